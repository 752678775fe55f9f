// Package meta holds the ordered name/value metadata collected by playlist
// readers before it is attached to a queue entry.
package meta

import "strings"

// Well-known metadata names emitted by the readers.
const (
	Album       = "album"
	AlbumArtist = "albumartist"
	Artist      = "artist"
	Title       = "title"
	TrackNumber = "tracknumber"
	Genre       = "genre"
	Date        = "date"
	Comment     = "comment"
)

// Pair is a single metadata name/value.
type Pair struct {
	Name  string
	Value string
}

// List is an append-only ordered list of pairs.
// Insertion order is the emission order and must be preserved.
type List struct {
	pairs []Pair
}

// Push appends a pair.
func (l *List) Push(name, value string) {
	l.pairs = append(l.pairs, Pair{Name: name, Value: value})
}

// Len returns the number of pairs.
func (l *List) Len() int {
	return len(l.pairs)
}

// Truncate cuts the list back to its first n pairs.
// n is clamped to [0, Len()].
func (l *List) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(l.pairs) {
		return
	}
	clear(l.pairs[n:])
	l.pairs = l.pairs[:n]
}

// Reset removes all pairs.
func (l *List) Reset() {
	l.Truncate(0)
}

// Own deep-copies every value so that none of them shares memory with a
// caller buffer.
func (l *List) Own() {
	for i := range l.pairs {
		l.pairs[i].Name = strings.Clone(l.pairs[i].Name)
		l.pairs[i].Value = strings.Clone(l.pairs[i].Value)
	}
}

// Pairs returns a copy of the pairs. The result is never nil.
func (l *List) Pairs() []Pair {
	result := make([]Pair, len(l.pairs))
	copy(result, l.pairs)
	return result
}

// Get returns the first value stored under name (case-insensitive).
func (l *List) Get(name string) (string, bool) {
	return Lookup(l.pairs, name)
}

// Lookup returns the first value stored under name (case-insensitive).
func Lookup(pairs []Pair, name string) (string, bool) {
	for _, p := range pairs {
		if strings.EqualFold(p.Name, name) {
			return p.Value, true
		}
	}
	return "", false
}
