// Package vellum is an embedded, file-system-backed document store.
//
// A store is a root directory. Each subdirectory is a namespace, and each
// namespace holds documents identified by random 60-character alphanumeric
// ids. A document is a versioned, timestamped map of typed fields kept in a
// single JSON file at root/<namespace>/<id[0:3]>/<id[3:6]>/<id[6:9]>/<id>.json.
//
// Within one process every handle to the same document shares one
// in-memory state and one reader/writer lock, so concurrent writers never
// lose updates. Writes replace the file atomically and are synced to disk
// before they return.
//
// Usage:
//
//	store, err := vellum.Open("./data", vellum.WithAutoInit(true))
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	ns, err := store.Create("people")
//	doc, err := ns.Create()
//	defer doc.Release()
//
//	err = doc.WriteFields(map[string]vellum.Value{
//		"name": vellum.String("alice"),
//		"age":  vellum.Integer(42),
//	})
//	name, err := doc.ReadField("name")
package vellum
