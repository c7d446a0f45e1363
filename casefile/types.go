package casefile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Sentinel errors for casefile.
var (
	// ErrFormat is wrapped by every ParseError and returned for an
	// unrecognized file extension.
	ErrFormat = errors.New("casefile: malformed input")

	// ErrNilCase is returned when there is nothing to encode.
	ErrNilCase = errors.New("casefile: case is nil")
)

// ParseError locates a malformed line. Line is 1-based; 0 means the
// problem is not tied to a single line.
type ParseError struct {
	Source string
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("casefile: %s:%d: %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("casefile: %s: %s", e.Source, e.Reason)
}

// Unwrap makes errors.Is(err, ErrFormat) hold.
func (e *ParseError) Unwrap() error { return ErrFormat }

// Format is a case or result file encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
	FormatMATPOWER
)

func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatMATPOWER:
		return "matpower"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatOf picks the format from a file extension: .yaml/.yml, .json or .m.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".m":
		return FormatMATPOWER, nil
	}
	return 0, fmt.Errorf("%w: cannot tell the format of %q", ErrFormat, path)
}
