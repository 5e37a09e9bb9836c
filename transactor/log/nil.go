package log

import "context"

// NopLogger discards every event. It is the fallback wherever a logger is optional.
type NopLogger struct{}

var _ Logger = (*NopLogger)(nil)

// NewNop returns a logger that writes nothing.
func NewNop() Logger { return &NopLogger{} }

func (l *NopLogger) Log(context.Context, Level, string, ...Field) {}

//nolint:ireturn
func (l *NopLogger) With(...Field) Logger { return l }

//nolint:ireturn
func (l *NopLogger) WithGroup(string) Logger { return l }

// Enabled reports false for every level so callers can skip building fields.
func (l *NopLogger) Enabled(Level) bool { return false }

func (l *NopLogger) Sync(context.Context) error { return nil }
