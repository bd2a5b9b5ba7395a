package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LoadFile decodes a YAML, TOML or JSON file into v, choosing the format by extension.
// Unknown keys are rejected so a typo in a queue option fails at startup.
func LoadFile(path string, v any) error {
	if v == nil {
		return ErrNilPointer
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Join(ErrReadingFile, err)
	}

	if err := Decode(Format(path), data, v); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Format returns the decoder name for a file path: "yaml", "toml", "json" or "".
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	case ".json":
		return "json"
	default:
		return ""
	}
}

// Decode parses data in the given format into v.
func Decode(format string, data []byte, v any) error {
	switch format {
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil {
			return errors.Join(ErrDecodingFile, err)
		}

	case "toml":
		md, err := toml.Decode(string(data), v)
		if err != nil {
			return errors.Join(ErrDecodingFile, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("%w: unknown keys %v", ErrDecodingFile, undecoded)
		}

	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			return errors.Join(ErrDecodingFile, err)
		}

	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return nil
}
