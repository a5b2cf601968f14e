package logging

import (
	"fmt"
	"sync"
)

// DefaultLoggerFactory implements LoggerFactory using zap loggers
type DefaultLoggerFactory struct {
	loggers map[string]Logger
	opts    Options
	mu      sync.Mutex
}

// NewLoggerFactory creates a new logger factory
func NewLoggerFactory(opts Options) LoggerFactory {
	return &DefaultLoggerFactory{
		loggers: make(map[string]Logger),
		opts:    opts,
	}
}

// CreateLogger creates a basic logger for the specified component
func (f *DefaultLoggerFactory) CreateLogger(component string) Logger {
	f.mu.Lock()
	defer f.mu.Unlock()

	if logger, exists := f.loggers[component]; exists {
		return logger
	}

	logger := NewZapLogger(component, f.opts)
	f.loggers[component] = logger
	return logger
}

// CreateEntityLogger creates a logger for an entity service
func (f *DefaultLoggerFactory) CreateEntityLogger(kind string) Logger {
	return NewEntityLogger(f.CreateLogger("entity"), kind)
}

// CreateRequestLogger creates a logger for one HTTP request
func (f *DefaultLoggerFactory) CreateRequestLogger(method, path string) Logger {
	return NewRequestLogger(f.CreateLogger("http"), method, path)
}

// DatabaseLoggerFactory extends the default factory with database persistence
type DatabaseLoggerFactory struct {
	*DefaultLoggerFactory
	repository LogRepository
}

// NewDatabaseLoggerFactory creates a logger factory with database persistence
func NewDatabaseLoggerFactory(opts Options, repository LogRepository) LoggerFactory {
	return &DatabaseLoggerFactory{
		DefaultLoggerFactory: &DefaultLoggerFactory{
			loggers: make(map[string]Logger),
			opts:    opts,
		},
		repository: repository,
	}
}

// CreateLogger creates a database-backed logger for the specified component
func (f *DatabaseLoggerFactory) CreateLogger(component string) Logger {
	f.mu.Lock()
	defer f.mu.Unlock()

	if logger, exists := f.loggers[component]; exists {
		return logger
	}

	dbLogger := NewDatabaseLogger(NewZapLogger(component, f.opts), component, f.repository)
	f.loggers[component] = dbLogger
	return dbLogger
}

// CreateEntityLogger creates a database-backed logger for an entity service
func (f *DatabaseLoggerFactory) CreateEntityLogger(kind string) Logger {
	return NewEntityLogger(f.CreateLogger("entity"), kind)
}

// CreateRequestLogger creates a database-backed logger for one HTTP request
func (f *DatabaseLoggerFactory) CreateRequestLogger(method, path string) Logger {
	return NewRequestLogger(f.CreateLogger("http"), method, path)
}

// DatabaseLogger wraps a base logger with database persistence.
// Debug entries are never persisted.
type DatabaseLogger struct {
	base       Logger
	component  string
	context    map[string]interface{}
	repository LogRepository
	wg         *sync.WaitGroup
}

// NewDatabaseLogger creates a new database-backed logger
func NewDatabaseLogger(base Logger, component string, repository LogRepository) *DatabaseLogger {
	return &DatabaseLogger{
		base:       base,
		component:  component,
		context:    make(map[string]interface{}),
		repository: repository,
		wg:         &sync.WaitGroup{},
	}
}

// Info logs informational messages and persists to database
func (d *DatabaseLogger) Info(msg string, fields map[string]interface{}) {
	d.base.Info(msg, fields)
	d.persistLog("INFO", msg, nil, fields)
}

// Error logs error messages and persists to database
func (d *DatabaseLogger) Error(msg string, err error, fields map[string]interface{}) {
	d.base.Error(msg, err, fields)
	d.persistLog("ERROR", msg, err, fields)
}

// Warn logs warning messages and persists to database
func (d *DatabaseLogger) Warn(msg string, fields map[string]interface{}) {
	d.base.Warn(msg, fields)
	d.persistLog("WARN", msg, nil, fields)
}

// Debug logs debug messages without persisting them
func (d *DatabaseLogger) Debug(msg string, fields map[string]interface{}) {
	d.base.Debug(msg, fields)
}

// WithOperation creates a new logger with operation context
func (d *DatabaseLogger) WithOperation(operation string) Logger {
	return d.WithContext(map[string]interface{}{"operation": operation})
}

// WithContext creates a new logger with additional context fields
func (d *DatabaseLogger) WithContext(ctx map[string]interface{}) Logger {
	return &DatabaseLogger{
		base:       d.base.WithContext(ctx),
		component:  d.component,
		context:    mergeFields(d.context, ctx),
		repository: d.repository,
		wg:         d.wg,
	}
}

// Wait blocks until in-flight persistence goroutines finish
func (d *DatabaseLogger) Wait() {
	d.wg.Wait()
}

// persistLog saves the log entry to the database
func (d *DatabaseLogger) persistLog(level, message string, err error, fields map[string]interface{}) {
	if d.repository == nil {
		return
	}

	all := mergeFields(d.context, fields)
	entry := LogEntry{
		Component: d.component,
		Level:     level,
		Message:   message,
		Fields:    all,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if entity, ok := all["entity"].(string); ok {
		entry.Entity = entity
	}
	if id, ok := all["entity_id"]; ok {
		entry.EntityID = fmt.Sprint(id)
	}
	if adminID, ok := all["admin_id"]; ok {
		entry.AdminID = fmt.Sprint(adminID)
	}

	// Save to database (non-blocking to avoid impacting request latency)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if saveErr := d.repository.SaveLog(entry); saveErr != nil {
			// Log to the base logger only, persisting here would recurse
			d.base.Error("Failed to persist log to database", saveErr, map[string]interface{}{
				"original_message": message,
				"original_level":   level,
			})
		}
	}()
}

// GlobalLoggerFactory provides a singleton logger factory instance
var (
	globalFactory LoggerFactory
	globalMu      sync.RWMutex
)

// GetGlobalLoggerFactory returns the global logger factory instance
func GetGlobalLoggerFactory() LoggerFactory {
	globalMu.RLock()
	factory := globalFactory
	globalMu.RUnlock()
	if factory != nil {
		return factory
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalFactory == nil {
		globalFactory = NewLoggerFactory(Options{Level: "info", Format: "json"})
	}
	return globalFactory
}

// SetGlobalLoggerFactory sets the global logger factory (useful for dependency injection)
func SetGlobalLoggerFactory(factory LoggerFactory) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalFactory = factory
}
