package fs

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/aretw0/introspection"

	"github.com/aretw0/vellum/internal/metrics"
)

// ID pool defaults.
const (
	DefaultIDLength  = 60
	DefaultIDPoolMin = 10
	DefaultIDPoolMax = 50

	// maxCollisions bounds consecutive re-rolls before refill gives up.
	maxCollisions = 1000
)

const idAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// IDPool hands out identifiers that were unique across the whole store when
// they were generated. Allocation and refill share one mutex.
type IDPool struct {
	mu     sync.Mutex
	queue  []string
	min    int
	max    int
	length int
	exists func(id string) bool
	random io.Reader
	logger *slog.Logger
}

// NewIDPool creates an empty pool. exists reports whether an identifier is
// already taken anywhere in the store.
func NewIDPool(low, target, length int, exists func(id string) bool, logger *slog.Logger) *IDPool {
	if length < minIDLength {
		length = DefaultIDLength
	}
	if low < 0 {
		low = DefaultIDPoolMin
	}
	if target <= low {
		target = low + 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &IDPool{
		min:    low,
		max:    target,
		length: length,
		exists: exists,
		random: rand.Reader,
		logger: logger,
	}
}

// Next pops the next identifier. An empty queue is refilled synchronously
// first; a queue at or below the low-water mark is refilled before
// returning.
func (p *IDPool) Next() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.queue) == 0 {
		if err := p.refill(context.Background()); err != nil {
			return "", err
		}
	}

	id := p.queue[0]
	p.queue[0] = ""
	p.queue = p.queue[1:]

	if len(p.queue) <= p.min {
		if err := p.refill(context.Background()); err != nil {
			// id is still good; the next call retries the refill.
			p.logger.Warn("id pool refill failed", "error", err)
		}
	}
	return id, nil
}

// Fill tops the pool up to its target size. It is a no-op above the
// low-water mark.
func (p *IDPool) Fill(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refill(ctx)
}

// Len returns the number of queued identifiers.
func (p *IDPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// refill must be called with p.mu held.
func (p *IDPool) refill(ctx context.Context) error {
	if len(p.queue) > p.min {
		return nil
	}

	queued := make(map[string]struct{}, len(p.queue))
	for _, id := range p.queue {
		queued[id] = struct{}{}
	}

	added, collisions := 0, 0
	for len(p.queue) < p.max {
		if err := ctx.Err(); err != nil {
			return err
		}

		candidate, err := p.generate()
		if err != nil {
			return err
		}

		_, dup := queued[candidate]
		if dup || (p.exists != nil && p.exists(candidate)) {
			collisions++
			metrics.IDCollisions.Inc()
			if collisions >= maxCollisions {
				return fmt.Errorf("id pool: %d consecutive collisions, giving up", collisions)
			}
			continue
		}
		collisions = 0

		queued[candidate] = struct{}{}
		p.queue = append(p.queue, candidate)
		added++
	}

	metrics.IDsGenerated.Add(float64(added))
	p.logger.Debug("id pool refilled", "added", added, "size", len(p.queue))
	return nil
}

// generate draws a uniformly random alphanumeric string.
func (p *IDPool) generate() (string, error) {
	out := make([]byte, 0, p.length)
	buf := make([]byte, p.length+p.length/4)
	// 248 is the largest multiple of 62 below 256; rejecting bytes at or
	// above it keeps the distribution uniform.
	const limit = 256 - 256%len(idAlphabet)
	for len(out) < p.length {
		if _, err := io.ReadFull(p.random, buf); err != nil {
			return "", fmt.Errorf("id pool: read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, idAlphabet[int(b)%len(idAlphabet)])
			if len(out) == p.length {
				break
			}
		}
	}
	return string(out), nil
}

// IDPoolState exposes the pool for observability.
type IDPoolState struct {
	Size   int `json:"size"`
	Min    int `json:"min"`
	Max    int `json:"max"`
	Length int `json:"id_length"`
}

// State implements introspection.Introspectable.
func (p *IDPool) State() any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return IDPoolState{Size: len(p.queue), Min: p.min, Max: p.max, Length: p.length}
}

// ComponentType implements introspection.Component.
func (p *IDPool) ComponentType() string {
	return "id-pool"
}

var _ introspection.Introspectable = (*IDPool)(nil)
var _ introspection.Component = (*IDPool)(nil)
