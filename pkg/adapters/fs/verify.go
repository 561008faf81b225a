package fs

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/aretw0/vellum/pkg/core"
)

// DefaultVerifyWorkers bounds concurrent file reads during Verify.
const DefaultVerifyWorkers = 8

// VerifyProblem is one document file that failed to load.
type VerifyProblem struct {
	Namespace string `json:"namespace" yaml:"namespace"`
	ID        string `json:"id" yaml:"id"`
	Path      string `json:"path" yaml:"path"`
	Error     string `json:"error" yaml:"error"`
}

// VerifyReport summarizes a Verify run.
type VerifyReport struct {
	Namespaces int             `json:"namespaces" yaml:"namespaces"`
	Documents  int             `json:"documents" yaml:"documents"`
	Empty      int             `json:"empty" yaml:"empty"`
	Problems   []VerifyProblem `json:"problems,omitempty" yaml:"problems,omitempty"`
	Duration   time.Duration   `json:"duration" yaml:"duration"`
}

// OK reports whether every document loaded cleanly.
func (r *VerifyReport) OK() bool { return len(r.Problems) == 0 }

type verifyJob struct {
	ns   string
	id   string
	path string
}

// Verify reads every document file of every namespace straight from disk
// and checks it against the record shape and the set of value kinds. It
// does not touch cached documents.
func (s *Store) Verify(ctx context.Context) (*VerifyReport, error) {
	if s.isClosed() {
		return nil, core.NewOpError("verify", "", "", core.ErrClosed, nil)
	}
	start := time.Now()

	namespaces := s.List()
	var jobs []verifyJob
	for _, ns := range namespaces {
		err := ns.walkDocuments(func(id, path string) error {
			jobs = append(jobs, verifyJob{ns: ns.name, id: id, path: path})
			return ctx.Err()
		})
		if cerr := ctx.Err(); cerr != nil {
			return nil, core.NewOpError("verify", ns.name, "", nil, cerr)
		}
		if err != nil {
			return nil, core.NewOpError("verify", ns.name, "", core.ErrIO, err)
		}
	}

	pool, err := ants.NewPool(s.config.VerifyWorkers, ants.WithPanicHandler(func(v any) {
		s.logger.Error("verify worker panic", "panic", v)
	}))
	if err != nil {
		return nil, core.NewOpError("verify", "", "", core.ErrIO, fmt.Errorf("start worker pool: %w", err))
	}
	defer pool.Release()

	report := &VerifyReport{Namespaces: len(namespaces)}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, core.NewOpError("verify", job.ns, "", nil, err)
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			empty, err := verifyFile(job.path)

			mu.Lock()
			defer mu.Unlock()
			report.Documents++
			if empty {
				report.Empty++
			}
			if err != nil {
				report.Problems = append(report.Problems, VerifyProblem{
					Namespace: job.ns,
					ID:        job.id,
					Path:      job.path,
					Error:     err.Error(),
				})
			}
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, core.NewOpError("verify", job.ns, job.id, core.ErrIO, err)
		}
	}
	wg.Wait()

	sort.Slice(report.Problems, func(i, j int) bool {
		a, b := report.Problems[i], report.Problems[j]
		if a.Namespace != b.Namespace {
			return a.Namespace < b.Namespace
		}
		return a.ID < b.ID
	})
	report.Duration = time.Since(start)

	s.logger.Debug("verify finished", "documents", report.Documents, "problems", len(report.Problems), "duration", report.Duration)
	return report, nil
}

func verifyFile(path string) (empty bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	r, err := decodeRecord(data)
	if err != nil {
		return false, err
	}
	for name, f := range r.Data {
		if f.Type == "" {
			continue
		}
		if _, err := core.Decode(f.Type, f.Value); err != nil {
			return false, fmt.Errorf("field %q: %w", name, err)
		}
	}
	return r.Version == 0 && len(r.Data) == 0, nil
}
