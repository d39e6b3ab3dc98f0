// Package forms defines the intake forms: which JSON fields each one
// requires, the message returned when they are missing, and the insert
// statement a valid submission becomes.
package forms
