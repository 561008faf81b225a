package core_test

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/aretw0/vellum/pkg/core"
)

func TestOpError(t *testing.T) {
	err := core.NewOpError("write", "docs", "abc123", core.ErrIO, fs.ErrPermission)

	if !errors.Is(err, core.ErrIO) {
		t.Error("expected errors.Is(err, ErrIO)")
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("expected errors.Is(err, fs.ErrPermission)")
	}
	if errors.Is(err, core.ErrNotFound) {
		t.Error("did not expect ErrNotFound")
	}

	want := "write docs/abc123: permission denied"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestOpError_KindOnly(t *testing.T) {
	err := core.NewOpError("get", "docs", "", core.ErrNotFound, nil)
	if err.Error() != "get docs: not found" {
		t.Errorf("unexpected message %q", err.Error())
	}

	var opErr *core.OpError
	if !errors.As(err, &opErr) || opErr.Namespace != "docs" {
		t.Error("expected errors.As to recover the OpError")
	}
}
