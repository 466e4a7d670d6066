// Package interaction keeps the process-wide history of explain and quiz
// exchanges, in memory or in Postgres.
package interaction

import (
	"sync"
	"time"
)

// Kind tags an entry.
type Kind string

const (
	KindExplain Kind = "explain"
	KindQuiz    Kind = "interactive_questions"
)

// Entry is one logged exchange. Explain entries carry Question and Answer;
// quiz entries carry Questions.
type Entry struct {
	Kind      Kind      `json:"type"`
	Question  string    `json:"question,omitempty"`
	Answer    string    `json:"answer,omitempty"`
	Questions any       `json:"questions,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// History is an append-only record of exchanges.
type History interface {
	Append(e Entry)
	Entries() []Entry
}

// Log is an in-memory History: an append-only, ordered sequence of entries.
type Log struct {
	mu      sync.Mutex
	now     func() time.Time
	entries []Entry
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// Append records e, stamping it when Timestamp is zero.
func (l *Log) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	l.entries = append(l.entries, e)
}

// Entries returns a copy of the log in append order.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
