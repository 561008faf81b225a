package main

import (
	"errors"
	"testing"
	"time"

	"github.com/aretw0/vellum/pkg/core"
)

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{
		"name=alice",
		"age=integer:42",
		"ratio=Double:0.5",
		"born=date:1990-04-01T00:00:00Z",
		"url=https://example.com",
		"empty=integer:",
	})
	if err != nil {
		t.Fatalf("parseAssignments failed: %v", err)
	}

	if got["name"].Get() != "alice" {
		t.Errorf("name: got %v", got["name"].Get())
	}
	if got["age"].Get() != int64(42) {
		t.Errorf("age: got %v", got["age"].Get())
	}
	if got["ratio"].Get() != 0.5 {
		t.Errorf("ratio: got %v", got["ratio"].Get())
	}
	born, ok := got["born"].Get().(time.Time)
	if !ok || born.Year() != 1990 {
		t.Errorf("born: got %v", got["born"].Get())
	}
	// "https" is not a kind, so the whole remainder is a string.
	if got["url"].Get() != "https://example.com" {
		t.Errorf("url: got %v", got["url"].Get())
	}
	if got["empty"].Kind() != core.KindInteger || got["empty"].Present() {
		t.Errorf("empty: expected defined integer with no value")
	}
}

func TestParseAssignments_Errors(t *testing.T) {
	for _, arg := range []string{"novalue", "=x", "age=integer:forty", "when=date:yesterday"} {
		if _, err := parseAssignments([]string{arg}); !errors.Is(err, core.ErrValidation) {
			t.Errorf("%q: expected ErrValidation, got %v", arg, err)
		}
	}
}
