// Package linebuf cuts chunked text input into lines.
package linebuf

import "bytes"

var bom = []byte("\xef\xbb\xbf")

// Splitter returns complete lines from input that arrives in arbitrary
// chunks. A partial line is copied into the splitter's own buffer, so the
// caller may reuse its chunk buffer once the bytes are reported consumed.
type Splitter struct {
	carry []byte
	line  int
}

// Next returns the next line of data without its terminator. Both "\n"
// and "\r\n" end a line, and a UTF-8 BOM before the first line is dropped.
// n is the number of bytes of data consumed.
//
// ok is false when no complete line is available: all of data is then
// consumed, and if final is set the input is exhausted. With final set an
// unterminated last line is returned as complete.
func (s *Splitter) Next(data []byte, final bool) (line string, n int, ok bool) {
	var b []byte
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		b = append(s.carry, data[:i]...)
		n = i + 1
	} else {
		if !final || len(s.carry)+len(data) == 0 {
			s.carry = append(s.carry, data...)
			return "", len(data), false
		}
		b = append(s.carry, data...)
		n = len(data)
	}

	s.line++
	if s.line == 1 {
		b = bytes.TrimPrefix(b, bom)
	}
	b = bytes.TrimSuffix(b, []byte{'\r'})
	line = string(b)
	s.carry = s.carry[:0]
	return line, n, true
}

// Line returns the 1-based number of the last line returned by Next.
func (s *Splitter) Line() int {
	return s.line
}
