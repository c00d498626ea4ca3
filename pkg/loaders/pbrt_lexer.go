package loaders

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// lexer scans the argument region of one statement
type lexer struct {
	src string
	pos int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isNumberChar(c byte) bool {
	return (c >= '0' && c <= '9') || c == '+' || c == '-' || c == '.' || c == 'e' || c == 'E'
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
}

// done skips whitespace and reports whether the input is exhausted
func (l *lexer) done() bool {
	l.skipSpace()
	return l.pos >= len(l.src)
}

// peek returns the next non-space byte, or 0 at end of input
func (l *lexer) peek() byte {
	if l.done() {
		return 0
	}
	return l.src[l.pos]
}

// accept consumes c if it is the next non-space byte
func (l *lexer) accept(c byte) bool {
	if l.peek() != c {
		return false
	}
	l.pos++
	return true
}

// rest returns the unconsumed input for error messages
func (l *lexer) rest() string {
	const limit = 32
	s := strings.TrimSpace(l.src[l.pos:])
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// quoted reads a double-quoted string
func (l *lexer) quoted() (string, error) {
	if !l.accept('"') {
		return "", newError(MalformedParameter, "expected quoted string near %q", l.rest())
	}
	end := strings.IndexByte(l.src[l.pos:], '"')
	if end < 0 {
		return "", newError(MalformedParameter, "unterminated string")
	}
	s := l.src[l.pos : l.pos+end]
	l.pos += end + 1
	return s, nil
}

// word reads a run of ASCII letters
func (l *lexer) word() string {
	l.skipSpace()
	start := l.pos
	for l.pos < len(l.src) && isLetter(l.src[l.pos]) {
		l.pos++
	}
	return l.src[start:l.pos]
}

// number reads the longest prefix that parses as a float. Whatever follows
// is left for the next token. A literal outside the float64 range is an
// error, not a shorter number.
func (l *lexer) number() (float64, error) {
	l.skipSpace()
	end := l.pos
	for end < len(l.src) && isNumberChar(l.src[end]) {
		end++
	}
	for ; end > l.pos; end-- {
		v, err := strconv.ParseFloat(l.src[l.pos:end], 64)
		if err == nil {
			l.pos = end
			return v, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return 0, newError(MalformedParameter, "number %s out of range", l.src[l.pos:end])
		}
	}
	return 0, newError(MalformedParameter, "expected number near %q", l.rest())
}

// integer reads a number that must be integral
func (l *lexer) integer() (int, error) {
	start := l.pos
	v, err := l.number()
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		l.pos = start
		return 0, newError(MalformedParameter, "expected integer near %q", l.rest())
	}
	return int(v), nil
}

// numbers reads exactly n numbers, tolerating an enclosing bracket
func (l *lexer) numbers(n int) ([]float64, error) {
	bracketed := l.accept('[')
	out := make([]float64, n)
	for i := range out {
		v, err := l.number()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	if bracketed && !l.accept(']') {
		return nil, newError(MalformedParameter, "expected ] after %d numbers near %q", n, l.rest())
	}
	return out, nil
}

// numberList reads numbers until the input ends or a quote starts,
// tolerating an enclosing bracket
func (l *lexer) numberList() ([]float64, error) {
	bracketed := l.accept('[')
	var out []float64
	for {
		c := l.peek()
		if c == 0 || c == '"' || (bracketed && c == ']') {
			break
		}
		v, err := l.number()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if bracketed && !l.accept(']') {
		return nil, newError(MalformedParameter, "missing ]")
	}
	return out, nil
}

// name reads a quoted name, tolerating an enclosing bracket
func (l *lexer) name() (string, error) {
	bracketed := l.accept('[')
	s, err := l.quoted()
	if err != nil {
		return "", err
	}
	if bracketed && !l.accept(']') {
		return "", newError(MalformedParameter, "missing ] after %q", s)
	}
	return s, nil
}
