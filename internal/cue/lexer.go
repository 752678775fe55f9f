package cue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/llehouerou/waveplug/internal/linebuf"
)

// Kind identifies a CUE token.
type Kind int

const (
	// KindMore means the lexer needs more input to produce a token.
	KindMore Kind = iota
	// KindDone means the input is exhausted.
	KindDone
	KindAlbumTitle
	KindAlbumPerformer
	KindTrackNumber
	KindTrackTitle
	KindTrackPerformer
	KindRemName
	KindRemValue
	KindFile
	KindIndex00
	KindIndexN
)

var kindNames = [...]string{
	KindMore:           "more",
	KindDone:           "done",
	KindAlbumTitle:     "album-title",
	KindAlbumPerformer: "album-performer",
	KindTrackNumber:    "track-number",
	KindTrackTitle:     "track-title",
	KindTrackPerformer: "track-performer",
	KindRemName:        "rem-name",
	KindRemValue:       "rem-value",
	KindFile:           "file",
	KindIndex00:        "index00",
	KindIndexN:         "index",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// FramesPerSecond is the CUE timestamp resolution.
const FramesPerSecond = 75

// Token is one semantic unit of a CUE sheet.
type Token struct {
	Kind Kind
	Val  string
	// Frames is the INDEX timestamp in CUE frames.
	Frames int64
	// Index is the INDEX number.
	Index int
	// Line is the 1-based source line.
	Line int
}

// SyntaxError reports malformed CUE input.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("cue: line %d: %s", e.Line, e.Msg)
}

// fileTypes are the FILE type keywords that may follow an unquoted name.
var fileTypes = map[string]bool{
	"WAVE": true, "MP3": true, "AIFF": true, "BINARY": true, "MOTOROLA": true, "FLAC": true,
}

// Lexer splits CUE text into tokens. It is fed arbitrary chunks and keeps
// incomplete lines in its own buffer, so callers may reuse their buffers
// between calls.
type Lexer struct {
	lines   linebuf.Splitter
	queue   []Token
	inTrack bool
}

// Next returns the next token from data. n is the number of bytes of data
// consumed; the caller passes data[n:] on the next call. final tells the
// lexer no input follows data.
func (l *Lexer) Next(data []byte, final bool) (tok Token, n int, err error) {
	if len(l.queue) > 0 {
		tok = l.queue[0]
		l.queue = l.queue[1:]
		return tok, 0, nil
	}

	for {
		line, m, ok := l.lines.Next(data[n:], final)
		n += m
		if !ok {
			if final {
				return Token{Kind: KindDone}, n, nil
			}
			return Token{Kind: KindMore}, n, nil
		}

		toks, err := l.parseLine(line)
		if err != nil {
			return Token{}, n, err
		}
		if len(toks) > 0 {
			l.queue = toks[1:]
			return toks[0], n, nil
		}
	}
}

func (l *Lexer) parseLine(s string) ([]Token, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	keyword, rest := splitWord(s)
	switch strings.ToUpper(keyword) {
	case "REM":
		name, value := splitWord(rest)
		if name == "" {
			return nil, nil
		}
		v, err := l.text(value)
		if err != nil {
			return nil, err
		}
		return []Token{
			{Kind: KindRemName, Val: name, Line: l.lines.Line()},
			{Kind: KindRemValue, Val: v, Line: l.lines.Line()},
		}, nil

	case "TITLE":
		v, err := l.text(rest)
		if err != nil {
			return nil, err
		}
		kind := KindAlbumTitle
		if l.inTrack {
			kind = KindTrackTitle
		}
		return []Token{{Kind: kind, Val: v, Line: l.lines.Line()}}, nil

	case "PERFORMER":
		v, err := l.text(rest)
		if err != nil {
			return nil, err
		}
		kind := KindAlbumPerformer
		if l.inTrack {
			kind = KindTrackPerformer
		}
		return []Token{{Kind: kind, Val: v, Line: l.lines.Line()}}, nil

	case "FILE":
		name, err := l.fileName(rest)
		if err != nil {
			return nil, err
		}
		return []Token{{Kind: KindFile, Val: name, Line: l.lines.Line()}}, nil

	case "TRACK":
		num, _ := splitWord(rest)
		if !isDigits(num) {
			return nil, l.errorf("invalid track number %q", num)
		}
		l.inTrack = true
		return []Token{{Kind: KindTrackNumber, Val: num, Line: l.lines.Line()}}, nil

	case "INDEX":
		if !l.inTrack {
			return nil, l.errorf("INDEX outside of TRACK")
		}
		num, ts := splitWord(rest)
		if !isDigits(num) {
			return nil, l.errorf("invalid index number %q", num)
		}
		idx, _ := strconv.Atoi(num)
		ts, _ = splitWord(ts)
		frames, err := l.timestamp(ts)
		if err != nil {
			return nil, err
		}
		kind := KindIndexN
		if idx == 0 {
			kind = KindIndex00
		}
		return []Token{{Kind: kind, Frames: frames, Index: idx, Line: l.lines.Line()}}, nil
	}

	// CATALOG, CDTEXTFILE, FLAGS, ISRC, PREGAP, POSTGAP, SONGWRITER and
	// anything unknown carry nothing we emit.
	return nil, nil
}

// text returns a quoted or bare value running to the end of the line.
func (l *Lexer) text(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, `"`) {
		return s, nil
	}
	end := strings.IndexByte(s[1:], '"')
	if end < 0 {
		return "", l.errorf("unterminated quote")
	}
	return s[1 : 1+end], nil
}

// fileName returns the FILE name without its trailing type keyword.
func (l *Lexer) fileName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `"`) {
		name, err := l.text(s)
		if err != nil {
			return "", err
		}
		if name == "" {
			return "", l.errorf("empty FILE name")
		}
		return name, nil
	}
	if s == "" {
		return "", l.errorf("FILE without a name")
	}
	if i := strings.LastIndexAny(s, " \t"); i > 0 && fileTypes[strings.ToUpper(s[i+1:])] {
		s = strings.TrimSpace(s[:i])
	}
	return s, nil
}

// timestamp converts mm:ss:ff into CUE frames.
func (l *Lexer) timestamp(s string) (int64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, l.errorf("invalid INDEX timestamp %q", s)
	}
	var v [3]int64
	for i, p := range parts {
		if !isDigits(p) {
			return 0, l.errorf("invalid INDEX timestamp %q", s)
		}
		v[i], _ = strconv.ParseInt(p, 10, 64)
	}
	if v[1] >= 60 || v[2] >= FramesPerSecond {
		return 0, l.errorf("INDEX timestamp %q out of range", s)
	}
	return (v[0]*60+v[1])*FramesPerSecond + v[2], nil
}

func (l *Lexer) errorf(format string, args ...any) error {
	return &SyntaxError{Line: l.lines.Line(), Msg: fmt.Sprintf(format, args...)}
}

// splitWord splits s at the first run of blanks.
func splitWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}

func isDigits(s string) bool {
	if s == "" || len(s) > 9 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
