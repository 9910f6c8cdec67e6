package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedExtension is returned by CodecFor for unknown item extensions.
var ErrUnsupportedExtension = errors.New("unsupported item extension")

// Codec converts between stored bytes and Documents.
type Codec interface {
	Decode(data []byte) (Document, error)
	Encode(doc Document) ([]byte, error)
}

// CodecFor returns the codec registered for an item file extension.
func CodecFor(ext string) (Codec, error) {
	switch strings.ToLower(ext) {
	case ".yml", ".yaml":
		return YAMLCodec{Indent: 2}, nil
	case ".toml":
		return TOMLCodec{}, nil
	case ".json":
		return JSONCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
}

// YAMLCodec reads and writes YAML documents with gopkg.in/yaml.v3.
type YAMLCodec struct {
	Indent int
}

// Decode parses a YAML mapping. An empty input decodes to an empty document.
func (c YAMLCodec) Decode(data []byte) (Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return Normalize(raw), nil
}

// Encode writes the document as block-style YAML.
func (c YAMLCodec) Encode(doc Document) ([]byte, error) {
	indent := c.Indent
	if indent <= 0 {
		indent = 2
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(map[string]any(doc)); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// TOMLCodec reads and writes TOML documents with pelletier/go-toml/v2.
type TOMLCodec struct{}

func (TOMLCodec) Decode(data []byte) (Document, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}
	return Normalize(raw), nil
}

func (TOMLCodec) Encode(doc Document) ([]byte, error) {
	out, err := toml.Marshal(map[string]any(doc))
	if err != nil {
		return nil, fmt.Errorf("toml: %w", err)
	}
	return out, nil
}

// JSONCodec reads and writes indented JSON documents.
type JSONCodec struct{}

func (JSONCodec) Decode(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return Normalize(raw), nil
}

// jsonNumber keeps integers exact: int64 first, then uint64, then float64.
func jsonNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return u
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

func (JSONCodec) Encode(doc Document) ([]byte, error) {
	out, err := json.MarshalIndent(map[string]any(doc), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json: %w", err)
	}
	return append(out, '\n'), nil
}
