// Package diag collects diagnostic messages produced while processing
// sequences. Messages never alter control flow; the caller decides how to
// present them.
package diag

import (
	"fmt"
	"strings"
	"sync"
)

// Level is the severity of a message.
type Level uint8

const (
	Info Level = iota
	Warning
	Error
)

// String returns the upper-case level name.
func (l Level) String() string {
	switch l {
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", uint8(l))
	}
}

// ParseLevel converts a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "INFO":
		return Info, nil
	case "WARNING", "WARN":
		return Warning, nil
	case "ERROR":
		return Error, nil
	default:
		return 0, fmt.Errorf("unknown message level %q", s)
	}
}

// Message is one diagnostic owned by a sequence.
type Message struct {
	SeqID int
	Level Level
	Text  string
}

// String renders "[LEVEL] seqid:text".
func (m Message) String() string {
	return fmt.Sprintf("[%s] %d:%s", m.Level, m.SeqID, m.Text)
}

// List is an append-only, concurrency-safe message list.
type List struct {
	mu   sync.Mutex
	msgs []Message
}

// Add appends a message.
func (l *List) Add(seqID int, level Level, format string, args ...any) {
	l.Append(Message{SeqID: seqID, Level: level, Text: fmt.Sprintf(format, args...)})
}

// Append appends m.
func (l *List) Append(m Message) {
	l.mu.Lock()
	l.msgs = append(l.msgs, m)
	l.mu.Unlock()
}

// Len returns the number of messages.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}

// All returns a copy of every message in append order.
func (l *List) All() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Message, len(l.msgs))
	copy(out, l.msgs)
	return out
}

// ForSeq returns the messages owned by seqID.
func (l *List) ForSeq(seqID int) []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Message
	for _, m := range l.msgs {
		if m.SeqID == seqID {
			out = append(out, m)
		}
	}
	return out
}

// Count returns the number of messages at level.
func (l *List) Count(level Level) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.msgs {
		if m.Level == level {
			n++
		}
	}
	return n
}
