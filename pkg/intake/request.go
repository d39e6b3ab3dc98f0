package intake

import (
	"github.com/google/uuid"
)

// WriteRequest describes one parameterized insert.
// It is immutable once constructed: accessors hand out copies.
type WriteRequest struct {
	id        uuid.UUID
	form      string
	statement string
	params    []any
}

// NewWriteRequest builds a request for the given form with a fresh ID.
// params must match the statement's placeholders in order.
func NewWriteRequest(form, statement string, params ...any) WriteRequest {
	return WriteRequest{
		id:        uuid.New(),
		form:      form,
		statement: statement,
		params:    append([]any(nil), params...),
	}
}

// ID identifies the request in logs and the X-Request-Id header.
func (r WriteRequest) ID() uuid.UUID { return r.id }

// Form is the name of the form the request came from.
func (r WriteRequest) Form() string { return r.form }

// Statement is the SQL template.
func (r WriteRequest) Statement() string { return r.statement }

// Params returns a copy of the ordered parameter list.
func (r WriteRequest) Params() []any {
	return append([]any(nil), r.params...)
}

// OutcomeKind is the terminal result class of a write.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the single terminal result reported for a WriteRequest.
type Outcome struct {
	Kind OutcomeKind

	// Err is the last underlying error when Kind is OutcomeFailure.
	Err error

	// Attempts counts statement submissions, including the first one.
	Attempts int
}

// Succeeded reports whether the insert was committed.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}

// Reason is the underlying error message, or "" on success.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
