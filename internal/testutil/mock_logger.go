// Package testutil provides common test utilities for MetaNet.
package testutil

import (
	"context"
	"sync"

	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
)

// MockLogger implements logging.Logger for testing purposes.  Children made
// by With, Named, WithContext and WithError share the parent's message list.
type MockLogger struct {
	store  *messageStore
	name   string
	fields []logging.Field
}

type messageStore struct {
	mu       sync.Mutex
	messages []LogMessage
}

// LogMessage represents a single log entry captured by MockLogger.
type LogMessage struct {
	Level   string
	Logger  string
	Message string
	Fields  []logging.Field
}

// Field returns the value of the named field and whether it was present.
func (m LogMessage) Field(key string) (interface{}, bool) {
	for _, f := range m.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// NewMockLogger creates a new MockLogger instance.
func NewMockLogger() *MockLogger {
	return &MockLogger{store: &messageStore{}}
}

func (m *MockLogger) log(level, msg string, fields []logging.Field) {
	all := make([]logging.Field, 0, len(m.fields)+len(fields))
	all = append(all, m.fields...)
	all = append(all, fields...)

	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.messages = append(m.store.messages, LogMessage{
		Level:   level,
		Logger:  m.name,
		Message: msg,
		Fields:  all,
	})
}

func (m *MockLogger) Debug(msg string, fields ...logging.Field) { m.log("debug", msg, fields) }
func (m *MockLogger) Info(msg string, fields ...logging.Field)  { m.log("info", msg, fields) }
func (m *MockLogger) Warn(msg string, fields ...logging.Field)  { m.log("warn", msg, fields) }
func (m *MockLogger) Error(msg string, fields ...logging.Field) { m.log("error", msg, fields) }
func (m *MockLogger) Fatal(msg string, fields ...logging.Field) { m.log("fatal", msg, fields) }

func (m *MockLogger) child(name string, extra ...logging.Field) *MockLogger {
	fields := make([]logging.Field, 0, len(m.fields)+len(extra))
	fields = append(fields, m.fields...)
	fields = append(fields, extra...)
	return &MockLogger{store: m.store, name: name, fields: fields}
}

func (m *MockLogger) With(fields ...logging.Field) logging.Logger {
	return m.child(m.name, fields...)
}

func (m *MockLogger) Named(name string) logging.Logger {
	if m.name != "" {
		name = m.name + "." + name
	}
	return m.child(name)
}

func (m *MockLogger) WithContext(ctx context.Context) logging.Logger {
	if id := logging.RequestIDFromContext(ctx); id != "" {
		return m.child(m.name, logging.String("request_id", id))
	}
	return m
}

func (m *MockLogger) WithError(err error) logging.Logger {
	if err == nil {
		return m
	}
	return m.child(m.name, logging.Err(err))
}

func (m *MockLogger) Sync() error {
	return nil
}

// GetMessages returns a copy of all logged messages.
func (m *MockLogger) GetMessages() []LogMessage {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	result := make([]LogMessage, len(m.store.messages))
	copy(result, m.store.messages)
	return result
}

// Clear removes all logged messages.
func (m *MockLogger) Clear() {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.messages = m.store.messages[:0]
}

// HasMessage checks if a message with the given level and content was logged.
func (m *MockLogger) HasMessage(level, msg string) bool {
	_, ok := m.Find(level, msg)
	return ok
}

// Find returns the first message with the given level and content.
func (m *MockLogger) Find(level, msg string) (LogMessage, bool) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, logged := range m.store.messages {
		if logged.Level == level && logged.Message == msg {
			return logged, true
		}
	}
	return LogMessage{}, false
}
