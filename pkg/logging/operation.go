package logging

import (
	"fmt"
)

// ScopedLogger wraps a base logger with a message prefix and fixed context
type ScopedLogger struct {
	base    Logger
	scope   string
	context map[string]interface{}
}

// NewScopedLogger creates a new scoped logger
func NewScopedLogger(base Logger, scope string) *ScopedLogger {
	return &ScopedLogger{
		base:    base,
		scope:   scope,
		context: make(map[string]interface{}),
	}
}

// Info logs informational messages with scope context
func (s *ScopedLogger) Info(msg string, fields map[string]interface{}) {
	s.base.Info(fmt.Sprintf("[%s] %s", s.scope, msg), s.enrichFields(fields))
}

// Error logs error messages with scope context
func (s *ScopedLogger) Error(msg string, err error, fields map[string]interface{}) {
	s.base.Error(fmt.Sprintf("[%s] %s", s.scope, msg), err, s.enrichFields(fields))
}

// Warn logs warning messages with scope context
func (s *ScopedLogger) Warn(msg string, fields map[string]interface{}) {
	s.base.Warn(fmt.Sprintf("[%s] %s", s.scope, msg), s.enrichFields(fields))
}

// Debug logs debug messages with scope context
func (s *ScopedLogger) Debug(msg string, fields map[string]interface{}) {
	s.base.Debug(fmt.Sprintf("[%s] %s", s.scope, msg), s.enrichFields(fields))
}

// WithOperation creates a new logger tagged with an operation name
func (s *ScopedLogger) WithOperation(operation string) Logger {
	return s.WithContext(map[string]interface{}{"operation": operation})
}

// WithContext creates a new logger with additional context fields
func (s *ScopedLogger) WithContext(ctx map[string]interface{}) Logger {
	return &ScopedLogger{
		base:    s.base,
		scope:   s.scope,
		context: mergeFields(s.context, ctx),
	}
}

// enrichFields combines scope context with provided fields (provided fields win)
func (s *ScopedLogger) enrichFields(fields map[string]interface{}) map[string]interface{} {
	return mergeFields(s.context, fields)
}

// NewEntityLogger creates a logger for the CRUD service of one entity kind
func NewEntityLogger(base Logger, kind string) Logger {
	scoped := NewScopedLogger(base, kind)
	return scoped.WithContext(map[string]interface{}{
		"entity": kind,
	})
}

// NewRequestLogger creates a logger for one HTTP request
func NewRequestLogger(base Logger, method, path string) Logger {
	scoped := NewScopedLogger(base, "http")
	return scoped.WithContext(map[string]interface{}{
		"method": method,
		"path":   path,
	})
}

// Nop returns a logger that discards everything, used where no logger is injected
func Nop() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Info(string, map[string]interface{})         {}
func (nopLogger) Error(string, error, map[string]interface{}) {}
func (nopLogger) Warn(string, map[string]interface{})         {}
func (nopLogger) Debug(string, map[string]interface{})        {}
func (n nopLogger) WithOperation(string) Logger               { return n }
func (n nopLogger) WithContext(map[string]interface{}) Logger { return n }
