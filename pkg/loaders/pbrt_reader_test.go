package loaders

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readStatements(t *testing.T, src string) []statement {
	t.Helper()
	r := newStatementReader(strings.NewReader(src))
	var out []statement
	for {
		stmt, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, stmt)
	}
}

func TestLineCursorPeekAdvance(t *testing.T) {
	c := newLineCursor(strings.NewReader("first\nsecond\n"))

	line, n, ok := c.Peek()
	require.True(t, ok)
	assert.Equal(t, "first", line)
	assert.Equal(t, 1, n)

	// peeking twice does not consume
	line, n, _ = c.Peek()
	assert.Equal(t, "first", line)
	assert.Equal(t, 1, n)

	c.Advance()
	line, n, ok = c.Peek()
	require.True(t, ok)
	assert.Equal(t, "second", line)
	assert.Equal(t, 2, n)

	c.Advance()
	_, _, ok = c.Peek()
	assert.False(t, ok)
	assert.NoError(t, c.Err())
}

func TestStatementReaderMultiLine(t *testing.T) {
	src := `# header comment
Camera "perspective"
    "float fov" 40   # trailing comment

Shape "trianglemesh"
    "point3 P" [0 0 0
                1 0 0
                0 1 0]
WorldEnd`
	stmts := readStatements(t, src)
	require.Len(t, stmts, 3)

	assert.Equal(t, "Camera", stmts[0].Keyword)
	assert.Equal(t, 2, stmts[0].Line)
	assert.Contains(t, stmts[0].Args, `"float fov" 40`)
	assert.NotContains(t, stmts[0].Args, "comment")

	assert.Equal(t, "Shape", stmts[1].Keyword)
	assert.Equal(t, 5, stmts[1].Line)
	assert.Contains(t, stmts[1].Args, "0 1 0]")

	assert.Equal(t, "WorldEnd", stmts[2].Keyword)
	assert.Equal(t, 9, stmts[2].Line)
	assert.Equal(t, "", strings.TrimSpace(stmts[2].Args))
}

func TestStatementReaderKeywordWithArgsOnSameLine(t *testing.T) {
	stmts := readStatements(t, `Translate 1 2 3`)
	require.Len(t, stmts, 1)
	assert.Equal(t, "Translate", stmts[0].Keyword)
	assert.Equal(t, "1 2 3", strings.TrimSpace(stmts[0].Args))
}

func TestStatementReaderContinuationWithoutStatement(t *testing.T) {
	r := newStatementReader(strings.NewReader("  \"float fov\" 40\n"))
	_, ok, err := r.Next()
	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedStatement))
}

func TestStripComment(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`Shape "sphere" # comment`, `Shape "sphere" `},
		{`Texture "a#b" "spectrum" "imagemap"`, `Texture "a#b" "spectrum" "imagemap"`},
		{`# whole line`, ``},
		{`no comment`, `no comment`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripComment(tt.in), tt.in)
	}
}

func TestLexerNumbers(t *testing.T) {
	l := newLexer(" [ 1 -2.5 3e2 ] 4")
	v, err := l.numbers(3)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -2.5, 300}, v)

	n, err := l.integer()
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, l.done())
}

func TestLexerNumberListStopsAtQuote(t *testing.T) {
	l := newLexer(`1 2 3 "float x" 1`)
	v, err := l.numberList()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, v)
	assert.Equal(t, byte('"'), l.peek())
}

func TestLexerErrors(t *testing.T) {
	_, err := newLexer("1.5").integer()
	assert.True(t, errors.Is(err, ErrMalformedParameter))

	_, err = newLexer(`"unterminated`).quoted()
	assert.True(t, errors.Is(err, ErrMalformedParameter))

	_, err = newLexer(`abc`).number()
	assert.True(t, errors.Is(err, ErrMalformedParameter))

	_, err = newLexer(`[ 1 2`).numbers(2)
	assert.True(t, errors.Is(err, ErrMalformedParameter))
}

func TestLexerNumberOutOfRange(t *testing.T) {
	for _, src := range []string{"1e400", "-1e400", "[ 1 1e309 ]"} {
		_, err := newLexer(src).numberList()
		assert.True(t, errors.Is(err, ErrMalformedParameter), src)
	}

	_, err := parseParams(newLexer(`"float x" [ 1e400 ]`))
	assert.True(t, errors.Is(err, ErrMalformedParameter))
}

func TestLexerName(t *testing.T) {
	name, err := newLexer(`[ "bracketed" ]`).name()
	require.NoError(t, err)
	assert.Equal(t, "bracketed", name)

	name, err = newLexer(`"plain"`).name()
	require.NoError(t, err)
	assert.Equal(t, "plain", name)
}
