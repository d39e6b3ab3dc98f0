// Package services holds the write path shared by every intake form.
//
// RecorderService executes one WriteRequest against the pooled database,
// retrying transient failures through a retry.Executor, and reports exactly
// one intake.Outcome per request.
package services
