package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies a Value variant. It is the discriminant stored next to
// every field on disk.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindDouble  Kind = "double"
	KindDate    Kind = "date"
)

// Value is a typed wrapper around a loosely-typed payload.
//
// Set never fails: input that cannot be coerced into the variant's native
// type leaves the value absent. A field that carries a Kind but no value is
// "defined, no value", which is distinct from a missing field.
type Value interface {
	// Kind returns the variant discriminant.
	Kind() Kind
	// Set coerces raw into the native type, or clears the value.
	Set(raw any)
	// Get returns the native value, or nil when absent.
	Get() any
	// Present reports whether a native value is held.
	Present() bool
}

var constructors = map[Kind]func() Value{
	KindString:  func() Value { return &String{} },
	KindInteger: func() Value { return &Integer{} },
	KindDouble:  func() Value { return &Double{} },
	KindDate:    func() Value { return &Date{} },
}

// Kinds returns every registered kind.
func Kinds() []Kind {
	return []Kind{KindString, KindInteger, KindDouble, KindDate}
}

// ParseKind resolves a discriminant string, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := constructors[k]; !ok {
		return "", fmt.Errorf("%w: unknown value kind %q", ErrIntegrity, s)
	}
	return k, nil
}

// NewValue returns an empty Value of the given kind.
// Unknown kinds are a data-integrity error.
func NewValue(k Kind) (Value, error) {
	ctor, ok := constructors[k]
	if !ok {
		return nil, fmt.Errorf("%w: unknown value kind %q", ErrIntegrity, k)
	}
	return ctor(), nil
}

// String holds text.
type String struct {
	v  string
	ok bool
}

// NewString returns a String holding s.
func NewString(s string) *String { return &String{v: s, ok: true} }

func (s *String) Kind() Kind { return KindString }

// Set accepts strings and byte slices verbatim.
func (s *String) Set(raw any) {
	switch v := raw.(type) {
	case string:
		s.v, s.ok = v, true
	case *string:
		if v == nil {
			s.v, s.ok = "", false
			return
		}
		s.v, s.ok = *v, true
	case []byte:
		s.v, s.ok = string(v), true
	default:
		s.v, s.ok = "", false
	}
}

func (s *String) Get() any {
	if !s.ok {
		return nil
	}
	return s.v
}

func (s *String) Present() bool { return s.ok }

// Value returns the text and whether it is present.
func (s *String) Value() (string, bool) { return s.v, s.ok }

func (s *String) String() string {
	if !s.ok {
		return "<absent>"
	}
	return s.v
}

// Integer holds a signed 64-bit integer.
type Integer struct {
	v  int64
	ok bool
}

// NewInteger returns an Integer holding i.
func NewInteger(i int64) *Integer { return &Integer{v: i, ok: true} }

func (i *Integer) Kind() Kind { return KindInteger }

// Set accepts any Go number (floats are truncated) and falls back to
// parsing text.
func (i *Integer) Set(raw any) {
	i.v, i.ok = 0, false
	if f, isFloat := floatOf(raw); isFloat {
		i.v, i.ok = truncate(f)
		return
	}
	if n, isInt := intOf(raw); isInt {
		i.v, i.ok = n, true
		return
	}
	text, isText := textOf(raw)
	if !isText {
		return
	}
	text = strings.TrimSpace(text)
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		i.v, i.ok = n, true
		return
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		i.v, i.ok = truncate(f)
	}
}

// truncate converts f to int64, rejecting NaN, infinities and anything
// outside the int64 range. float64(math.MaxInt64) rounds up to 2^63, so the
// upper bound is exclusive.
func truncate(f float64) (int64, bool) {
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func (i *Integer) Get() any {
	if !i.ok {
		return nil
	}
	return i.v
}

func (i *Integer) Present() bool { return i.ok }

// Value returns the integer and whether it is present.
func (i *Integer) Value() (int64, bool) { return i.v, i.ok }

func (i *Integer) String() string {
	if !i.ok {
		return "<absent>"
	}
	return strconv.FormatInt(i.v, 10)
}

// Double holds a float64.
type Double struct {
	v  float64
	ok bool
}

// NewDouble returns a Double holding f.
func NewDouble(f float64) *Double { return &Double{v: f, ok: true} }

func (d *Double) Kind() Kind { return KindDouble }

// Set accepts any Go number and falls back to parsing text.
// NaN and infinities cannot be stored in JSON and are treated as absent.
func (d *Double) Set(raw any) {
	d.v, d.ok = 0, false
	if f, isFloat := floatOf(raw); isFloat {
		d.accept(f)
		return
	}
	if n, isInt := intOf(raw); isInt {
		d.accept(float64(n))
		return
	}
	text, isText := textOf(raw)
	if !isText {
		return
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
		d.accept(f)
	}
}

func (d *Double) accept(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return
	}
	d.v, d.ok = f, true
}

func (d *Double) Get() any {
	if !d.ok {
		return nil
	}
	return d.v
}

func (d *Double) Present() bool { return d.ok }

// Value returns the float and whether it is present.
func (d *Double) Value() (float64, bool) { return d.v, d.ok }

func (d *Double) String() string {
	if !d.ok {
		return "<absent>"
	}
	return strconv.FormatFloat(d.v, 'g', -1, 64)
}

// Date holds an absolute point in time.
type Date struct {
	v  time.Time
	ok bool
}

// NewDate returns a Date holding t.
func NewDate(t time.Time) *Date { return &Date{v: t, ok: true} }

func (d *Date) Kind() Kind { return KindDate }

// Set accepts time.Time, *time.Time and RFC 3339 text (the on-disk form).
func (d *Date) Set(raw any) {
	d.v, d.ok = time.Time{}, false
	switch v := raw.(type) {
	case time.Time:
		d.v, d.ok = v, true
	case *time.Time:
		if v != nil {
			d.v, d.ok = *v, true
		}
	case string:
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v)); err == nil {
			d.v, d.ok = t, true
		}
	}
}

func (d *Date) Get() any {
	if !d.ok {
		return nil
	}
	return d.v
}

func (d *Date) Present() bool { return d.ok }

// Value returns the time and whether it is present.
func (d *Date) Value() (time.Time, bool) { return d.v, d.ok }

func (d *Date) String() string {
	if !d.ok {
		return "<absent>"
	}
	return d.v.Format(time.RFC3339Nano)
}

// Encode returns the JSON payload stored on disk for v. Absent values encode
// as null.
func Encode(v Value) (json.RawMessage, error) {
	if !v.Present() {
		return json.RawMessage("null"), nil
	}
	payload := v.Get()
	if t, ok := payload.(time.Time); ok {
		payload = t.Format(time.RFC3339Nano)
	}
	return json.Marshal(payload)
}

// Decode rebuilds a Value of kind k from its stored JSON payload. A payload
// that does not coerce yields an absent value, not an error.
func Decode(k Kind, raw json.RawMessage) (Value, error) {
	v, err := NewValue(k)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		v.Set(nil)
		return v, nil
	}
	var payload any
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		v.Set(nil)
		return v, nil
	}
	v.Set(payload)
	return v, nil
}

func intOf(raw any) (int64, bool) {
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	}
	return 0, false
}

func floatOf(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		if _, err := v.Int64(); err == nil {
			return 0, false
		}
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func textOf(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case json.Number:
		return v.String(), true
	}
	return "", false
}
