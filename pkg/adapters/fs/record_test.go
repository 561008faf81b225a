package fs

import (
	"errors"
	"testing"
	"time"

	"github.com/aretw0/vellum/pkg/core"
)

func TestDecodeRecord(t *testing.T) {
	t.Run("Empty File", func(t *testing.T) {
		for _, data := range [][]byte{nil, {}, []byte("  \n")} {
			r, err := decodeRecord(data)
			if err != nil {
				t.Fatalf("expected empty record, got %v", err)
			}
			if r.Version != 0 || len(r.Data) != 0 || r.Timestamp.Created != nil {
				t.Errorf("expected zero record, got %+v", r)
			}
		}
	})

	t.Run("Valid Record", func(t *testing.T) {
		data := []byte(`{
			"version": 3,
			"timestamp": {"created": "2024-01-02T03:04:05Z", "updated": "2024-01-03T03:04:05Z"},
			"data": {"Name": {"type": "string", "value": "alice"}, "age": {"type": "integer", "value": 42}}
		}`)
		r, err := decodeRecord(data)
		if err != nil {
			t.Fatalf("decodeRecord failed: %v", err)
		}
		if r.Version != 3 {
			t.Errorf("expected version 3, got %d", r.Version)
		}
		if _, ok := r.Data["name"]; !ok {
			t.Errorf("expected keys to be lowercased, got %v", r.Data)
		}
		if r.Timestamp.Updated == nil || r.Timestamp.Updated.Day() != 3 {
			t.Errorf("unexpected updated timestamp %v", r.Timestamp.Updated)
		}
	})

	cases := []struct {
		name string
		data string
	}{
		{"Not JSON", `{"version": `},
		{"Missing Data", `{"version": 1}`},
		{"Negative Version", `{"version": -1, "data": {}}`},
		{"Unknown Kind", `{"version": 1, "data": {"a": {"type": "blob", "value": 1}}}`},
		{"Empty Discriminant", `{"version": 1, "data": {"a": {"type": "", "value": 1}}}`},
		{"Field Not Object", `{"version": 1, "data": {"a": 5}}`},
		{"Array", `[1, 2, 3]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeRecord([]byte(tc.data))
			if !errors.Is(err, core.ErrIntegrity) {
				t.Errorf("expected ErrIntegrity, got %v", err)
			}
		})
	}
}

func TestRecordRoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 0, 0, 123, time.UTC)
	raw, err := core.Encode(core.NewDouble(2.5))
	if err != nil {
		t.Fatal(err)
	}
	r := &record{
		Version:   7,
		Timestamp: recordTimestamps{Created: &now, Updated: &now},
		Data:      map[string]field{"ratio": {Type: core.KindDouble, Value: raw}},
	}

	data, err := encodeRecord(r)
	if err != nil {
		t.Fatal(err)
	}
	back, err := decodeRecord(data)
	if err != nil {
		t.Fatalf("decodeRecord failed: %v\n%s", err, data)
	}
	if back.Version != 7 || !back.Timestamp.Created.Equal(now) {
		t.Errorf("unexpected record %+v", back)
	}
	v, err := core.Decode(back.Data["ratio"].Type, back.Data["ratio"].Value)
	if err != nil {
		t.Fatal(err)
	}
	if got, ok := v.(*core.Double).Value(); !ok || got != 2.5 {
		t.Errorf("expected 2.5, got %v", got)
	}
}

func TestRecordClone(t *testing.T) {
	now := time.Now()
	r := &record{
		Version:   1,
		Timestamp: recordTimestamps{Created: &now},
		Data:      map[string]field{"a": {Type: core.KindString}},
	}
	c := r.clone()
	c.Data["b"] = field{Type: core.KindInteger}
	c.Version++
	*c.Timestamp.Created = now.Add(time.Hour)

	if len(r.Data) != 1 || r.Version != 1 || !r.Timestamp.Created.Equal(now) {
		t.Errorf("clone mutated the original: %+v", r)
	}
}

func TestDecodeRecord_UntypedField(t *testing.T) {
	r, err := decodeRecord([]byte(`{"data": {"a": {"value": 5}, "b": {"type": "string", "value": "x"}}}`))
	if err != nil {
		t.Fatalf("a field without a kind must not fail the record: %v", err)
	}
	if r.Version != 0 {
		t.Errorf("missing version should read as 0, got %d", r.Version)
	}
	if r.Data["a"].Type != "" || r.Data["b"].Type != core.KindString {
		t.Errorf("unexpected fields %+v", r.Data)
	}

	data, err := encodeRecord(r)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := decodeRecord(data); err != nil {
		t.Errorf("untyped field must survive a rewrite: %v\n%s", err, data)
	}
}
