package loaders

import (
	"bufio"
	"io"
	"strings"
)

const maxLineSize = 64 * 1024 * 1024

// lineCursor yields physical lines with a one-line lookahead buffer
type lineCursor struct {
	scanner *bufio.Scanner
	line    string
	lineNo  int
	peeked  bool
	eof     bool
}

func newLineCursor(r io.Reader) *lineCursor {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &lineCursor{scanner: scanner}
}

// Peek returns the next line and its 1-based number without consuming it
func (c *lineCursor) Peek() (string, int, bool) {
	if !c.peeked && !c.eof {
		if c.scanner.Scan() {
			c.line = c.scanner.Text()
			c.lineNo++
			c.peeked = true
		} else {
			c.eof = true
		}
	}
	if c.eof {
		return "", c.lineNo, false
	}
	return c.line, c.lineNo, true
}

// Advance consumes the line returned by the last Peek
func (c *lineCursor) Advance() {
	c.peeked = false
}

// Err returns the first read error, if any
func (c *lineCursor) Err() error {
	return c.scanner.Err()
}

// statement is one logical command: a keyword line plus continuations
type statement struct {
	Keyword string
	Args    string
	Line    int
}

// statementReader assembles logical statements from a line cursor
type statementReader struct {
	cursor *lineCursor
}

func newStatementReader(r io.Reader) *statementReader {
	return &statementReader{cursor: newLineCursor(r)}
}

// Next returns the next statement. ok is false at end of input.
func (r *statementReader) Next() (stmt statement, ok bool, err error) {
	var args strings.Builder
	for {
		raw, lineNo, more := r.cursor.Peek()
		if !more {
			break
		}
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			r.cursor.Advance()
			continue
		}

		if isKeywordLine(line) {
			if ok {
				// belongs to the next statement; leave it buffered
				break
			}
			end := 0
			for end < len(line) && isLetter(line[end]) {
				end++
			}
			stmt = statement{Keyword: line[:end], Line: lineNo}
			line = line[end:]
			ok = true
		} else if !ok {
			r.cursor.Advance()
			return statement{Line: lineNo}, false, newError(MalformedStatement, "continuation line without a statement: %q", truncate(line))
		}

		args.WriteByte(' ')
		args.WriteString(line)
		r.cursor.Advance()
	}

	if err := r.cursor.Err(); err != nil {
		return statement{}, false, err
	}
	stmt.Args = args.String()
	return stmt, ok, nil
}

// isKeywordLine reports whether a trimmed line starts a statement
func isKeywordLine(line string) bool {
	return line[0] >= 'A' && line[0] <= 'Z'
}

// stripComment removes a # comment that is not inside a quoted string
func stripComment(line string) string {
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case '#':
			if !inQuotes {
				return line[:i]
			}
		}
	}
	return line
}

func truncate(s string) string {
	const limit = 40
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
