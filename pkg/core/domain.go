// Package core holds the domain types shared by every vellum layer: the
// typed Value variants, the error taxonomy, events and read-only snapshots.
package core

import (
	"fmt"
	"time"
)

// EventType represents the type of change observed in a namespace.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a document file.
type Event struct {
	Type      EventType
	Namespace string
	ID        string
	Timestamp int64 // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s/%s", e.Type, e.Namespace, e.ID)
}

// FieldSnapshot is the exported view of a single field.
type FieldSnapshot struct {
	Kind  Kind `json:"type" yaml:"type"`
	Value any  `json:"value" yaml:"value"`
}

// Snapshot is a read-only copy of a document's state at one version.
type Snapshot struct {
	ID        string                   `json:"id" yaml:"id"`
	Namespace string                   `json:"namespace" yaml:"namespace"`
	Version   int64                    `json:"version" yaml:"version"`
	Created   *time.Time               `json:"created,omitempty" yaml:"created,omitempty"`
	Updated   *time.Time               `json:"updated,omitempty" yaml:"updated,omitempty"`
	Fields    map[string]FieldSnapshot `json:"fields" yaml:"fields"`
}
