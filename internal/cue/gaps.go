package cue

import (
	"fmt"
	"strings"
)

// GapPolicy decides which track owns the pre-gap between INDEX 00 and
// INDEX 01.
type GapPolicy int

const (
	// GapSkip drops the pre-gap: a track ends at the next INDEX 00.
	GapSkip GapPolicy = iota
	// GapPrev appends the pre-gap to the previous track.
	GapPrev
	// GapPrev1 behaves like GapPrev and also starts the first track at 0.
	GapPrev1
)

// DefaultGapPolicy is used when nothing is configured.
const DefaultGapPolicy = GapPrev

func (g GapPolicy) String() string {
	switch g {
	case GapSkip:
		return "skip"
	case GapPrev:
		return "prev"
	case GapPrev1:
		return "prev1"
	default:
		return fmt.Sprintf("GapPolicy(%d)", int(g))
	}
}

// Valid reports whether g is a known policy.
func (g GapPolicy) Valid() bool {
	return g >= GapSkip && g <= GapPrev1
}

// ParseGapPolicy accepts a policy name or its configuration number.
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "skip", "0":
		return GapSkip, nil
	case "prev", "1":
		return GapPrev, nil
	case "prev1", "2":
		return GapPrev1, nil
	}
	return DefaultGapPolicy, fmt.Errorf("unknown gap policy %q", s)
}
