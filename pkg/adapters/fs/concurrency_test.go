package fs

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/vellum/pkg/core"
)

// TestConcurrentCreateAcrossNamespaces checks that documents created in
// parallel in several namespaces never share an identifier.
func TestConcurrentCreateAcrossNamespaces(t *testing.T) {
	s := openTestStore(t)

	const namespaces, perNamespace = 4, 50
	nss := make([]*Namespace, namespaces)
	for i := range nss {
		ns, err := s.Create(fmt.Sprintf("ns%d", i))
		require.NoError(t, err)
		nss[i] = ns
	}

	var (
		mu  sync.Mutex
		ids = make(map[string]string)
		wg  sync.WaitGroup
	)
	for _, ns := range nss {
		for w := 0; w < 2; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perNamespace/2; i++ {
					doc, err := ns.Create()
					if !assert.NoError(t, err) {
						return
					}
					mu.Lock()
					prev, dup := ids[doc.ID()]
					ids[doc.ID()] = ns.Name()
					mu.Unlock()
					assert.False(t, dup, "id %s reused (first in %s)", doc.ID(), prev)
					doc.Release()
				}
			}()
		}
	}
	wg.Wait()
	assert.Len(t, ids, namespaces*perNamespace)

	for _, ns := range nss {
		got, err := ns.IDs()
		require.NoError(t, err)
		assert.Len(t, got, perNamespace)
	}
}

// TestConcurrentCreateAndDelete races document creation against namespace
// deletion: either the delete is refused or the create fails, never both
// succeed with the document lost.
func TestConcurrentCreateAndDelete(t *testing.T) {
	for round := 0; round < 20; round++ {
		s := openTestStore(t)
		ns, err := s.Create("race")
		require.NoError(t, err)

		var (
			wg        sync.WaitGroup
			createErr error
			deleteErr error
			doc       *Document
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			doc, createErr = ns.Create()
		}()
		go func() {
			defer wg.Done()
			deleteErr = s.Delete("race")
		}()
		wg.Wait()

		switch {
		case createErr == nil && deleteErr == nil:
			t.Fatalf("round %d: document %s created in a deleted namespace", round, doc.ID())
		case createErr == nil:
			assert.True(t, errors.Is(deleteErr, core.ErrConflict), "round %d: %v", round, deleteErr)
			assert.FileExists(t, doc.Path())
			doc.Release()
		default:
			assert.True(t, errors.Is(createErr, core.ErrNotFound), "round %d: %v", round, createErr)
		}
	}
}

// TestConcurrentNamespaceCreate lets many goroutines race to create the same
// namespace under different spellings; exactly one wins.
func TestConcurrentNamespaceCreate(t *testing.T) {
	s := openTestStore(t)

	names := []string{"shared", "SHARED", "Shared", "sHaReD", "shareD", "SHAred"}
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  int
		conflict int
	)
	for _, name := range names {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Create(name)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, core.ErrConflict):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	assert.Equal(t, len(names)-1, conflict)
}
