package casefile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/gridopf/network"
)

// ReadCase loads a case from path, choosing the decoder by extension.
func ReadCase(path string) (*network.Case, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("casefile: %w", err)
	}
	defer f.Close()

	return DecodeCase(f, format, path)
}

// DecodeCase reads one case in the given format. source names r in
// errors. Unknown fields in YAML and JSON input are rejected.
func DecodeCase(r io.Reader, format Format, source string) (*network.Case, error) {
	var c network.Case
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return nil, &ParseError{Source: source, Reason: err.Error()}
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, &ParseError{Source: source, Reason: err.Error()}
		}
	case FormatMATPOWER:
		return decodeMATPOWER(r, source)
	default:
		return nil, fmt.Errorf("%w: unsupported format %s", ErrFormat, format)
	}

	return &c, nil
}
