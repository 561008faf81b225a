package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/aretw0/vellum/pkg/core"
)

// record is the on-disk shape of a document:
//
//	{"version": 3, "timestamp": {"created": ..., "updated": ...},
//	 "data": {"name": {"type": "string", "value": "alice"}}}
type record struct {
	Version   int64            `json:"version"`
	Timestamp recordTimestamps `json:"timestamp"`
	Data      map[string]field `json:"data"`
}

type recordTimestamps struct {
	Created *time.Time `json:"created,omitempty"`
	Updated *time.Time `json:"updated,omitempty"`
}

// field is a tagged value: the kind that produced it and its raw payload.
// A field without a kind reads as absent and is carried through rewrites
// untouched.
type field struct {
	Type  core.Kind       `json:"type,omitempty"`
	Value json.RawMessage `json:"value"`
}

func emptyRecord() *record {
	return &record{Data: make(map[string]field)}
}

// clone returns a deep copy. Payload bytes are shared; they are never
// mutated after being stored.
func (r *record) clone() *record {
	c := &record{
		Version: r.Version,
		Data:    make(map[string]field, len(r.Data)),
	}
	if r.Timestamp.Created != nil {
		t := *r.Timestamp.Created
		c.Timestamp.Created = &t
	}
	if r.Timestamp.Updated != nil {
		t := *r.Timestamp.Updated
		c.Timestamp.Updated = &t
	}
	for k, v := range r.Data {
		c.Data[k] = v
	}
	return c
}

func encodeRecord(r *record) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// decodeRecord parses and validates a document file. A zero-length file is
// a document created but never written; a missing version reads as 0.
func decodeRecord(data []byte) (*record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return emptyRecord(), nil
	}

	schema, err := recordSchema()
	if err != nil {
		return nil, err
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable record: %v", core.ErrIntegrity, err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return nil, fmt.Errorf("%w: record does not match schema: %s", core.ErrIntegrity, strings.Join(errs, "; "))
	}

	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: invalid record: %v", core.ErrIntegrity, err)
	}

	normalized := make(map[string]field, len(r.Data))
	for k, v := range r.Data {
		normalized[strings.ToLower(k)] = v
	}
	r.Data = normalized
	return &r, nil
}

var recordSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	kinds := make([]string, 0, len(core.Kinds()))
	for _, k := range core.Kinds() {
		kinds = append(kinds, string(k))
	}
	def := map[string]any{
		"type":     "object",
		"required": []string{"data"},
		"properties": map[string]any{
			"version": map[string]any{"type": "integer", "minimum": 0},
			"timestamp": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"created": map[string]any{"type": []string{"string", "null"}},
					"updated": map[string]any{"type": []string{"string", "null"}},
				},
			},
			"data": map[string]any{
				"type": "object",
				"additionalProperties": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{"enum": kinds},
					},
				},
			},
		},
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def))
	if err != nil {
		return nil, fmt.Errorf("invalid record schema: %w", err)
	}
	return schema, nil
})
