package logging

import "github.com/vvka-141/intake/pkg/intake"

// NullLogger drops every message.
type NullLogger struct{}

var _ intake.Logger = NullLogger{}

// NewNullLogger returns a logger that writes nothing.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

func (NullLogger) Verbose(string, ...any) {}

func (NullLogger) Info(string, ...any) {}

func (NullLogger) Error(string, ...any) {}
