package logger

import (
	"sync"
	"time"
)

// ErrorEntry is one aggregated error line kept for the health endpoint.
type ErrorEntry struct {
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// ErrorBuffer retains the most recent error log entries, deduplicated by
// message. It exists so operators can see what went wrong lately without
// digging through log output.
type ErrorBuffer struct {
	mu      sync.Mutex
	max     int
	entries map[string]*ErrorEntry
	order   []string
}

// NewErrorBuffer creates a buffer retaining up to max distinct messages.
func NewErrorBuffer(max int) *ErrorBuffer {
	if max <= 0 {
		max = 64
	}
	return &ErrorBuffer{
		max:     max,
		entries: make(map[string]*ErrorEntry),
	}
}

// Record adds or bumps an error entry.
func (b *ErrorBuffer) Record(msg string, fields []Field) {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	if e, ok := b.entries[msg]; ok {
		e.Count++
		e.LastSeen = now
		return
	}

	fm := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		k, v := f.GetKeyValue()
		fm[k] = v
	}
	b.entries[msg] = &ErrorEntry{
		Message:   msg,
		Fields:    fm,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
	b.order = append(b.order, msg)

	// evict oldest distinct message
	if len(b.order) > b.max {
		oldest := b.order[0]
		b.order = b.order[1:]
		delete(b.entries, oldest)
	}
}

// Snapshot returns the retained entries, oldest first.
func (b *ErrorBuffer) Snapshot() []ErrorEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]ErrorEntry, 0, len(b.order))
	for _, msg := range b.order {
		if e, ok := b.entries[msg]; ok {
			out = append(out, *e)
		}
	}
	return out
}
