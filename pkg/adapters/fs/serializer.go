package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/vellum/pkg/core"
)

// Serializer renders read-only views (snapshots, infos, reports) for export.
// The on-disk record format is not a Serializer concern; see record.go.
type Serializer interface {
	// Format returns the canonical format name, e.g. "json".
	Format() string
	// Serialize converts v to bytes.
	Serialize(v any) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers keyed by
// format name.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		"json": NewJSONSerializer(true),
		"yaml": NewYAMLSerializer(),
		"yml":  NewYAMLSerializer(),
	}
}

// SerializerFor looks a serializer up by format name, case-insensitively.
func SerializerFor(format string) (Serializer, error) {
	s, ok := DefaultSerializers()[strings.ToLower(strings.TrimSpace(format))]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported format %q (want one of %s)", core.ErrValidation, format, strings.Join(Formats(), ", "))
	}
	return s, nil
}

// Formats lists the supported format names, sorted.
func Formats() []string {
	var out []string
	for name := range DefaultSerializers() {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// --- JSON Serializer ---

// JSONSerializer renders JSON.
type JSONSerializer struct {
	// Indent pretty-prints with two spaces.
	Indent bool
}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer(indent bool) *JSONSerializer {
	return &JSONSerializer{Indent: indent}
}

func (s *JSONSerializer) Format() string { return "json" }

func (s *JSONSerializer) Serialize(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if s.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}
	return buf.Bytes(), nil
}

// --- YAML Serializer ---

// YAMLSerializer renders YAML.
type YAMLSerializer struct{}

// NewYAMLSerializer creates a new YAML serializer.
func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{}
}

func (s *YAMLSerializer) Format() string { return "yaml" }

func (s *YAMLSerializer) Serialize(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}
