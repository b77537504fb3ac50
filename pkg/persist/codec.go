// Package persist reads and writes documents with codecs chosen by file
// extension.
package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedCodec indicates a file extension with no registered codec.
var ErrUnsupportedCodec = errors.New("unsupported file format")

// File extensions for supported codecs.
const (
	jsonExtension = ".json"
	yamlExtension = ".yaml"
	ymlExtension  = ".yml"
)

const (
	defaultIndent = "  "
	yamlIndent    = 2
)

// Codec defines how a document is serialized and deserialized.
type Codec interface {
	Encode(w io.Writer, v any) error
	Decode(r io.Reader, v any) error
	// Extension returns the canonical file extension, e.g. ".yaml".
	Extension() string
}

// JSONCodec implements Codec using JSON encoding with optional indentation.
type JSONCodec struct {
	// Indent is the indentation string. Empty means compact JSON.
	Indent string
}

// NewJSONCodec creates a JSON codec with 2-space indentation.
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{Indent: defaultIndent}
}

// Encode implements Codec.
func (c *JSONCodec) Encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if c.Indent != "" {
		encoder.SetIndent("", c.Indent)
	}

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("json encode: %w", err)
	}

	return nil
}

// Decode implements Codec. Unknown fields are rejected.
func (c *JSONCodec) Decode(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(v)
	if err != nil {
		return fmt.Errorf("json decode: %w", err)
	}

	return nil
}

// Extension implements Codec.
func (c *JSONCodec) Extension() string {
	return jsonExtension
}

// YAMLCodec implements Codec using YAML.
type YAMLCodec struct{}

// NewYAMLCodec creates a YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Encode implements Codec.
func (c *YAMLCodec) Encode(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(yamlIndent)

	err := encoder.Encode(v)
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	err = encoder.Close()
	if err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}

	return nil
}

// Decode implements Codec. Unknown fields are rejected.
func (c *YAMLCodec) Decode(r io.Reader, v any) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	err := decoder.Decode(v)
	if err != nil {
		return fmt.Errorf("yaml decode: %w", err)
	}

	return nil
}

// Extension implements Codec.
func (c *YAMLCodec) Extension() string {
	return yamlExtension
}

// CodecFor picks the codec for path by its extension.
func CodecFor(path string) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case jsonExtension:
		return NewJSONCodec(), nil
	case yamlExtension, ymlExtension:
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCodec, path)
	}
}

// SaveFile encodes v to path with the codec chosen by its extension.
func SaveFile(path string, v any) error {
	codec, err := CodecFor(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer

	err = codec.Encode(&buf, v)
	if err != nil {
		return err
	}

	err = os.WriteFile(path, buf.Bytes(), 0o600)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	return nil
}

// LoadFile decodes path into v with the codec chosen by its extension.
// v must be a pointer.
func LoadFile(path string, v any) error {
	codec, err := CodecFor(path)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	err = codec.Decode(file, v)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	return nil
}

// DecodeBytes decodes data with codec into v.
func DecodeBytes(codec Codec, data []byte, v any) error {
	return codec.Decode(bytes.NewReader(data), v)
}
