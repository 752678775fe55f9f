package m3u

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/llehouerou/waveplug/internal/linebuf"
)

// Kind identifies an M3U token.
type Kind int

const (
	KindMore Kind = iota
	KindDone
	KindDuration
	KindArtist
	KindTitle
	KindFilename
)

func (k Kind) String() string {
	switch k {
	case KindMore:
		return "more"
	case KindDone:
		return "done"
	case KindDuration:
		return "duration"
	case KindArtist:
		return "artist"
	case KindTitle:
		return "title"
	case KindFilename:
		return "filename"
	default:
		return "unknown"
	}
}

// Token is one unit of an M3U playlist.
type Token struct {
	Kind Kind
	Val  string
	// Seconds is the #EXTINF duration, -1 when unknown.
	Seconds int64
	Line    int
}

// SyntaxError reports malformed M3U input.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("m3u: line %d: %s", e.Line, e.Msg)
}

const extinf = "#EXTINF:"

// Lexer splits M3U text into tokens.
type Lexer struct {
	lines linebuf.Splitter
	queue []Token
}

// Next returns the next token from data and the number of bytes consumed.
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

		toks, err := l.parseLine(strings.TrimSpace(line))
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
	line := l.lines.Line()
	switch {
	case s == "":
		return nil, nil
	case len(s) >= len(extinf) && strings.EqualFold(s[:len(extinf)], extinf):
		return l.parseExtinf(s[len(extinf):])
	case s[0] == '#':
		return nil, nil
	}
	return []Token{{Kind: KindFilename, Val: s, Line: line}}, nil
}

// parseExtinf handles "<seconds>[,<artist> - <title>]".
func (l *Lexer) parseExtinf(s string) ([]Token, error) {
	line := l.lines.Line()
	dur, text, _ := strings.Cut(s, ",")
	dur = strings.TrimSpace(dur)
	secs, ok := parseSeconds(dur)
	if !ok {
		return nil, &SyntaxError{Line: line, Msg: fmt.Sprintf("invalid duration %q", dur)}
	}

	toks := []Token{{Kind: KindDuration, Seconds: secs, Line: line}}
	text = strings.TrimSpace(text)
	if text == "" {
		return toks, nil
	}
	if artist, title, ok := strings.Cut(text, " - "); ok {
		return append(toks,
			Token{Kind: KindArtist, Val: strings.TrimSpace(artist), Line: line},
			Token{Kind: KindTitle, Val: strings.TrimSpace(title), Line: line},
		), nil
	}
	return append(toks, Token{Kind: KindTitle, Val: text, Line: line}), nil
}

// parseSeconds reads "<int>[.<digits>]". The fraction is dropped.
func parseSeconds(s string) (int64, bool) {
	whole, frac, _ := strings.Cut(s, ".")
	secs, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false
	}
	for _, c := range frac {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	return secs, true
}
