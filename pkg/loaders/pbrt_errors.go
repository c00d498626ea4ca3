package loaders

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// ErrorKind classifies scene-file parse failures
type ErrorKind int

const (
	MalformedStatement ErrorKind = iota + 1
	MalformedParameter
	UnknownCommand
	UnknownEntity
	UnbalancedScope
	UnsupportedFeature
	UnsupportedSpectrumFile
	FileNotFound
)

var errorKindNames = map[ErrorKind]string{
	MalformedStatement:      "malformed statement",
	MalformedParameter:      "malformed parameter",
	UnknownCommand:          "unknown command",
	UnknownEntity:           "unknown entity",
	UnbalancedScope:         "unbalanced scope",
	UnsupportedFeature:      "unsupported feature",
	UnsupportedSpectrumFile: "unsupported spectrum file",
	FileNotFound:            "file not found",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("error kind %d", int(k))
}

// Sentinels for errors.Is; they match any ParseError of the same kind.
var (
	ErrMalformedStatement      = &ParseError{Kind: MalformedStatement}
	ErrMalformedParameter      = &ParseError{Kind: MalformedParameter}
	ErrUnknownCommand          = &ParseError{Kind: UnknownCommand}
	ErrUnknownEntity           = &ParseError{Kind: UnknownEntity}
	ErrUnbalancedScope         = &ParseError{Kind: UnbalancedScope}
	ErrUnsupportedFeature      = &ParseError{Kind: UnsupportedFeature}
	ErrUnsupportedSpectrumFile = &ParseError{Kind: UnsupportedSpectrumFile}
	ErrFileNotFound            = &ParseError{Kind: FileNotFound}
)

// ParseError reports a failure at a specific statement of a scene file.
type ParseError struct {
	File     string
	Line     int // 1-based
	Keyword  string
	Kind     ErrorKind
	Msg      string
	Err      error    // underlying cause, if any
	Includes []string // include chain, innermost first, as "file:line"
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.File != "" {
		fmt.Fprintf(&b, "[%s: %d] ", e.File, e.Line)
	}
	if e.Keyword != "" {
		fmt.Fprintf(&b, "%s: ", e.Keyword)
	}
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	for _, frame := range e.Includes {
		fmt.Fprintf(&b, "\n  included from %s", frame)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors by kind
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return t.File == "" && t.Msg == "" && t.Kind == e.Kind
}

func newError(kind ErrorKind, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, err error, format string, args ...interface{}) *ParseError {
	return &ParseError{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// unknownName builds an error for a missing name, suggesting the closest
// known candidate when one is similar enough.
func unknownName(kind ErrorKind, what, name string, candidates []string) *ParseError {
	if hint := closestMatch(name, candidates); hint != "" {
		return newError(kind, "%s %q (did you mean %q?)", what, name, hint)
	}
	return newError(kind, "%s %q", what, name)
}

func closestMatch(name string, candidates []string) string {
	const threshold = 0.6

	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	best, bestScore := "", threshold
	metric := metrics.NewLevenshtein()
	for _, candidate := range sorted {
		if candidate == "" {
			continue
		}
		score := strutil.Similarity(strings.ToLower(name), strings.ToLower(candidate), metric)
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	return best
}
