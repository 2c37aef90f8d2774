// Package notify delivers user-facing outcome messages.
package notify

import (
	"context"
	"log/slog"
	"sync"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier receives one message per completed user action.
type Notifier interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

// Log writes notifications to a logger.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (n *Log) Success(ctx context.Context, msg string) {
	n.logger.InfoContext(ctx, msg, "notification", LevelSuccess)
}

func (n *Log) Error(ctx context.Context, msg string) {
	n.logger.WarnContext(ctx, msg, "notification", LevelError)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Success(ctx context.Context, msg string) {
	for _, n := range m {
		n.Success(ctx, msg)
	}
}

func (m Multi) Error(ctx context.Context, msg string) {
	for _, n := range m {
		n.Error(ctx, msg)
	}
}

// Message is a delivered notification.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Memory keeps notifications in order. The CLI reads them back to print
// results; tests use it to assert on outcomes.
type Memory struct {
	mu   sync.Mutex
	msgs []Message
}

func (m *Memory) Success(_ context.Context, msg string) { m.add(LevelSuccess, msg) }

func (m *Memory) Error(_ context.Context, msg string) { m.add(LevelError, msg) }

func (m *Memory) add(level Level, text string) {
	m.mu.Lock()
	m.msgs = append(m.msgs, Message{Level: level, Text: text})
	m.mu.Unlock()
}

// Messages returns a copy of everything received so far.
func (m *Memory) Messages() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.msgs))
	copy(out, m.msgs)
	return out
}

// Last returns the most recent message, if any.
func (m *Memory) Last() (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.msgs) == 0 {
		return Message{}, false
	}
	return m.msgs[len(m.msgs)-1], true
}
