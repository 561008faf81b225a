package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/vellum/pkg/core"
)

func TestSource_Forwards(t *testing.T) {
	in := make(chan core.Event, 2)
	src := NewSource(in)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := src.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	in <- core.Event{Type: core.EventCreate, Namespace: "docs", ID: "abc123def"}
	select {
	case e := <-src.Events():
		if e.String() != "CREATE docs/abc123def" {
			t.Errorf("unexpected event %q", e.String())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	close(in)
	select {
	case _, ok := <-src.Events():
		if ok {
			t.Error("expected Events to close after the input closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for close")
	}
}

func TestSource_StopsOnCancel(t *testing.T) {
	src := NewSource(make(chan core.Event))
	ctx, cancel := context.WithCancel(context.Background())
	if err := src.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	select {
	case _, ok := <-src.Events():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("source did not stop")
	}
}
