package queue

import (
	"sync"
	"time"

	"github.com/llehouerou/waveplug/internal/meta"
)

// Entry is one playable unit: a media URL, an optional time range inside
// it and the metadata collected for it.
type Entry struct {
	URL      string
	Meta     []meta.Pair
	From     time.Duration // start offset inside URL
	To       time.Duration // end offset inside URL, 0 = until the end
	Duration time.Duration
	// Finalized is set once the time range has been converted to its final
	// units and the entry is ready for playback.
	Finalized bool
}

// Sink accepts finished entries. Ownership of the entry passes to the sink.
type Sink interface {
	Add(e Entry)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Entry)

// Add calls f(e).
func (f SinkFunc) Add(e Entry) { f(e) }

// Queue is an ordered in-memory sink.
type Queue struct {
	mu      sync.Mutex
	entries []Entry
}

// Verify Queue implements Sink at compile time.
var _ Sink = (*Queue)(nil)

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		entries: make([]Entry, 0),
	}
}

// Add appends an entry.
func (q *Queue) Add(e Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, e)
}

// Append appends entries in order.
func (q *Queue) Append(entries ...Entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, entries...)
}

// Entries returns a copy of all entries.
func (q *Queue) Entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()
	result := make([]Entry, len(q.entries))
	copy(result, q.entries)
	return result
}

// Len returns the number of entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// FormatDuration formats a duration as MM:SS.
func FormatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return padInt(m) + ":" + padInt(s)
}

func padInt(n int) string {
	if n < 10 {
		return "0" + string(rune('0'+n))
	}
	if n >= 100 {
		return padInt(n/10) + string(rune('0'+n%10))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}
