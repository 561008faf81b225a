package vellum_test

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/aretw0/vellum"
	"github.com/aretw0/vellum/pkg/core"
)

// Example_basic demonstrates how to open a store, write a document, and read
// it back after reopening.
func Example_basic() {
	// Create a temporary directory for the example
	tmpDir, err := os.MkdirTemp("", "vellum-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := vellum.Open(tmpDir)
	if err != nil {
		log.Fatal(err)
	}

	ns, err := store.Create("People")
	if err != nil {
		log.Fatal(err)
	}
	doc, err := ns.Create()
	if err != nil {
		log.Fatal(err)
	}
	id := doc.ID()

	err = doc.WriteFields(map[string]vellum.Value{
		"Name": vellum.String("alice"),
		"age":  vellum.Integer(42),
	})
	if err != nil {
		log.Fatal(err)
	}
	doc.Release()
	store.Close()

	// Reopen and read it back
	store, err = vellum.Open(tmpDir)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	ns, err = store.Get("people")
	if err != nil {
		log.Fatal(err)
	}
	doc, err = ns.Get(id)
	if err != nil {
		log.Fatal(err)
	}
	defer doc.Release()

	name, err := doc.ReadField("name")
	if err != nil {
		log.Fatal(err)
	}
	info, err := doc.Info()
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("name=%v version=%d\n", name.Get(), info.Version)
	// Output:
	// name=alice version=1
}

// ExampleStore_Delete shows the namespace delete policy: only empty
// namespaces can be removed.
func ExampleStore_Delete() {
	tmpDir, err := os.MkdirTemp("", "vellum-delete-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := vellum.Open(tmpDir)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	ns, _ := store.Create("drafts")
	doc, _ := ns.Create()
	defer doc.Release()

	err = store.Delete("drafts")
	fmt.Println(errors.Is(err, core.ErrConflict))
	// Output:
	// true
}

// ExampleDate stores a date field and reads it back as a time.Time.
func ExampleDate() {
	tmpDir, err := os.MkdirTemp("", "vellum-date-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	store, err := vellum.Open(tmpDir)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	ns, err := store.Create("events")
	if err != nil {
		log.Fatal(err)
	}
	doc, err := ns.Create()
	if err != nil {
		log.Fatal(err)
	}
	defer doc.Release()

	launch := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	if err := doc.WriteField("launch", vellum.Date(launch)); err != nil {
		log.Fatal(err)
	}

	v, err := doc.ReadField("launch")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(v.Kind(), v.Get().(time.Time).Format(time.RFC3339))
	// Output:
	// date 2024-03-15T09:30:00Z
}
