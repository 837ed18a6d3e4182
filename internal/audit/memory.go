package audit

import (
	"context"
	"sync"
	"time"
)

// DefaultMemoryCapacity is the number of entries a MemoryLog keeps when
// constructed with a non-positive capacity.
const DefaultMemoryCapacity = 10000

// MemoryLog keeps the most recent entries in process memory.
// It is safe for concurrent use.
type MemoryLog struct {
	mu       sync.RWMutex
	entries  []Entry // oldest first
	capacity int
	now      func() time.Time
}

// NewMemoryLog creates a log that retains at most capacity entries,
// evicting the oldest first.
func NewMemoryLog(capacity int) *MemoryLog {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryLog{capacity: capacity, now: time.Now}
}

// Record stores a new entry.
func (l *MemoryLog) Record(ctx context.Context, p Params) (*Entry, error) {
	e := newEntry(ctx, p, l.now())

	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) >= l.capacity {
		n := copy(l.entries, l.entries[1:])
		l.entries = l.entries[:n]
	}
	l.entries = append(l.entries, *e)
	return e, nil
}

// Query returns matching entries, newest first.
func (l *MemoryLog) Query(_ context.Context, f Filter) (*Result, error) {
	f = f.normalize()

	l.mu.RLock()
	defer l.mu.RUnlock()

	var (
		total   int64
		entries = make([]Entry, 0, f.Limit)
	)
	for i := len(l.entries) - 1; i >= 0; i-- {
		e := &l.entries[i]
		if !f.matches(e) {
			continue
		}
		if total >= int64(f.Offset) && len(entries) < f.Limit {
			entries = append(entries, *e)
		}
		total++
	}
	return newResult(entries, total, f), nil
}

// Purge removes entries created before the cutoff.
func (l *MemoryLog) Purge(_ context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.entries[:0]
	var purged int64
	for _, e := range l.entries {
		if e.CreatedAt.Before(before) {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	l.entries = kept
	return purged, nil
}

// Len returns the number of retained entries.
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
