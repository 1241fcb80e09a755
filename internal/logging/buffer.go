package logging

import (
	"sync"
	"time"
)

// LogEntry is one buffered log record.
type LogEntry struct {
	Seq        uint64         `json:"seq"`
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RingBuffer keeps the most recent log entries, numbered from 1.
type RingBuffer struct {
	mu      sync.RWMutex
	entries []LogEntry
	next    int // oldest entry once the buffer has wrapped
	seq     uint64
}

// NewRingBuffer creates a buffer holding at most size entries.
func NewRingBuffer(size int) *RingBuffer {
	if size < 1 {
		size = 1
	}
	return &RingBuffer{entries: make([]LogEntry, 0, size)}
}

// Write assigns entry the next sequence number and stores it, evicting the
// oldest entry when full. The stamped entry is returned.
func (rb *RingBuffer) Write(entry LogEntry) LogEntry {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.seq++
	entry.Seq = rb.seq

	if len(rb.entries) < cap(rb.entries) {
		rb.entries = append(rb.entries, entry)
		return entry
	}
	rb.entries[rb.next] = entry
	rb.next = (rb.next + 1) % len(rb.entries)
	return entry
}

// ReadAll returns the buffered entries oldest first.
func (rb *RingBuffer) ReadAll() []LogEntry {
	return rb.Since(0)
}

// Since returns the buffered entries with a sequence number above seq, oldest first.
func (rb *RingBuffer) Since(seq uint64) []LogEntry {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	var out []LogEntry
	for _, part := range [][]LogEntry{rb.entries[rb.next:], rb.entries[:rb.next]} {
		for _, e := range part {
			if e.Seq > seq {
				out = append(out, e)
			}
		}
	}
	return out
}

// Count returns the number of buffered entries.
func (rb *RingBuffer) Count() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return len(rb.entries)
}
