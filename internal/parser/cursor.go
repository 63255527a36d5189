package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLineSize bounds a single source line; guidance text can be long.
const maxLineSize = 1024 * 1024

// line is one source line with its position.
type line struct {
	// number is the 1-based line number.
	number int
	// text is the line without its terminator.
	text string
	// fields are the whitespace-separated tokens of text.
	fields []string
}

// keyword returns the first token, or "" for a blank line.
func (l line) keyword() string {
	if len(l.fields) == 0 {
		return ""
	}

	return l.fields[0]
}

// rest returns the text after the first n tokens, trimmed.
func (l line) rest(n int) string {
	s := strings.TrimSpace(l.text)
	for range n {
		s = strings.TrimLeft(s, " \t")

		idx := strings.IndexAny(s, " \t")
		if idx < 0 {
			return ""
		}

		s = s[idx:]
	}

	return strings.TrimSpace(s)
}

// cursor walks the source line by line and can push the last line back once.
type cursor struct {
	scanner *bufio.Scanner
	// number is the number of lines read from the scanner.
	number int
	// pending holds a pushed back line.
	pending *line
}

// newCursor wraps r.
func newCursor(r io.Reader) *cursor {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)

	return &cursor{scanner: scanner}
}

// next returns the following line. ok is false at the end of input; err is
// set when reading failed.
func (c *cursor) next() (l line, ok bool, err error) {
	if c.pending != nil {
		l, c.pending = *c.pending, nil

		return l, true, nil
	}

	if !c.scanner.Scan() {
		if err = c.scanner.Err(); err != nil {
			return line{}, false, fmt.Errorf("read line %d: %w", c.number+1, err)
		}

		return line{}, false, nil
	}

	c.number++
	text := strings.TrimRight(c.scanner.Text(), "\r")

	return line{
		number: c.number,
		text:   text,
		fields: strings.Fields(text),
	}, true, nil
}

// unread pushes l back so the next call to next returns it again.
func (c *cursor) unread(l line) {
	c.pending = &l
}
