package logging_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/latoulicious/arise-companion/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockLogger implements the Logger interface for testing
type MockLogger struct {
	InfoCalls  []LogCall
	ErrorCalls []ErrorCall
	WarnCalls  []LogCall
	DebugCalls []LogCall
}

type LogCall struct {
	Message string
	Fields  map[string]interface{}
}

type ErrorCall struct {
	Message string
	Error   error
	Fields  map[string]interface{}
}

func (m *MockLogger) Info(msg string, fields map[string]interface{}) {
	m.InfoCalls = append(m.InfoCalls, LogCall{Message: msg, Fields: fields})
}

func (m *MockLogger) Error(msg string, err error, fields map[string]interface{}) {
	m.ErrorCalls = append(m.ErrorCalls, ErrorCall{Message: msg, Error: err, Fields: fields})
}

func (m *MockLogger) Warn(msg string, fields map[string]interface{}) {
	m.WarnCalls = append(m.WarnCalls, LogCall{Message: msg, Fields: fields})
}

func (m *MockLogger) Debug(msg string, fields map[string]interface{}) {
	m.DebugCalls = append(m.DebugCalls, LogCall{Message: msg, Fields: fields})
}

func (m *MockLogger) WithOperation(string) logging.Logger { return m }

func (m *MockLogger) WithContext(map[string]interface{}) logging.Logger { return m }

type mockLogRepository struct {
	mu      sync.Mutex
	entries []logging.LogEntry
	err     error
}

func (r *mockLogRepository) SaveLog(entry logging.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, entry)
	return nil
}

func TestScopedLogger_PrefixesAndMergesContext(t *testing.T) {
	base := &MockLogger{}
	logger := logging.NewEntityLogger(base, "weapons").WithContext(map[string]interface{}{
		"entity_id": 7,
	})

	logger.Info("Created", map[string]interface{}{"name": "Dague"})

	require.Len(t, base.InfoCalls, 1)
	call := base.InfoCalls[0]
	assert.True(t, strings.HasPrefix(call.Message, "[weapons]"))
	assert.Equal(t, "weapons", call.Fields["entity"])
	assert.Equal(t, 7, call.Fields["entity_id"])
	assert.Equal(t, "Dague", call.Fields["name"])
}

func TestScopedLogger_ProvidedFieldsOverrideContext(t *testing.T) {
	base := &MockLogger{}
	logger := logging.NewScopedLogger(base, "x").WithContext(map[string]interface{}{"k": "context"})

	logger.Warn("msg", map[string]interface{}{"k": "field"})

	require.Len(t, base.WarnCalls, 1)
	assert.Equal(t, "field", base.WarnCalls[0].Fields["k"])
}

func TestScopedLogger_Error(t *testing.T) {
	base := &MockLogger{}
	logger := logging.NewRequestLogger(base, "POST", "/admin/weapons")
	boom := errors.New("boom")

	logger.Error("Request failed", boom, nil)

	require.Len(t, base.ErrorCalls, 1)
	assert.Equal(t, boom, base.ErrorCalls[0].Error)
	assert.Equal(t, "POST", base.ErrorCalls[0].Fields["method"])
}

func TestDatabaseLogger_PersistsNonDebugEntries(t *testing.T) {
	base := &MockLogger{}
	repo := &mockLogRepository{}
	logger := logging.NewDatabaseLogger(base, "entity", repo)

	scoped := logger.WithContext(map[string]interface{}{"entity": "hunters", "entity_id": 3})
	scoped.Info("Created", nil)
	scoped.Error("Failed", errors.New("db down"), nil)
	scoped.Debug("Noise", nil)
	logger.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	require.Len(t, repo.entries, 2)
	levels := []string{repo.entries[0].Level, repo.entries[1].Level}
	assert.ElementsMatch(t, []string{"INFO", "ERROR"}, levels)
	for _, e := range repo.entries {
		assert.Equal(t, "entity", e.Component)
		assert.Equal(t, "hunters", e.Entity)
		assert.Equal(t, "3", e.EntityID)
	}
	assert.Len(t, base.DebugCalls, 1)
}

func TestDatabaseLogger_SaveFailureGoesToBase(t *testing.T) {
	base := &MockLogger{}
	repo := &mockLogRepository{err: errors.New("insert failed")}
	logger := logging.NewDatabaseLogger(base, "entity", repo)

	logger.Warn("Careful", nil)
	logger.Wait()

	require.Len(t, base.WarnCalls, 1)
	require.Len(t, base.ErrorCalls, 1)
	assert.Equal(t, "Failed to persist log to database", base.ErrorCalls[0].Message)
}

func TestZapLogger_WritesComponentAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := logging.NewZapLoggerFrom(zap.New(core), "storage").WithOperation("upload")

	logger.Info("Uploaded", map[string]interface{}{"bucket": "armes"})

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "[storage] Uploaded", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "upload", fields["operation"])
	assert.Equal(t, "armes", fields["bucket"])
}

func TestGlobalLoggerFactory(t *testing.T) {
	factory := logging.NewLoggerFactory(logging.Options{Level: "error"})
	logging.SetGlobalLoggerFactory(factory)
	defer logging.SetGlobalLoggerFactory(nil)

	assert.Same(t, factory, logging.GetGlobalLoggerFactory())
	assert.Same(t, factory.CreateLogger("a"), factory.CreateLogger("a"))
}
