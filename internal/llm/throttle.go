package llm

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Throttle caps the number of in-flight provider calls across the whole process.
type Throttle struct {
	next Generator
	sem  *semaphore.Weighted
}

func NewThrottle(next Generator, maxConcurrent int) *Throttle {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Throttle{next: next, sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

func (t *Throttle) Generate(ctx context.Context, req Request) (string, error) {
	if err := t.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer t.sem.Release(1)
	return t.next.Generate(ctx, req)
}
