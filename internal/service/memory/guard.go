package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/elvamem/internal/core"
)

// Every durable-store call goes through Execute or ExecuteVoid. The operation
// races a deadline timer; when the timer wins, the caller's wait ends but the
// operation itself may still land in the background. That is accepted
// at-least-once behavior: message inserts are absorbed by the dedup key and
// fact writes are upserts by fact key, so a late duplicate is harmless.

type result[T any] struct {
	val T
	err error
}

// Execute runs fn with a deadline and folds failures into the shared
// vocabulary: core.ErrTimeout, core.ErrNotFound passes through, anything
// else becomes a BackendError carrying the detail.
func Execute[T any](ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch := make(chan result[T], 1)
	go func() {
		val, err := fn(opCtx)
		ch <- result[T]{val: val, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return zero, classify(op, r.err)
		}
		return r.val, nil
	case <-opCtx.Done():
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%s: %w", op, core.ErrTimeout)
		}
		return zero, opCtx.Err()
	}
}

func ExecuteVoid(ctx context.Context, timeout time.Duration, op string, fn func(context.Context) error) error {
	_, err := Execute(ctx, timeout, op, func(c context.Context) (struct{}, error) {
		return struct{}{}, fn(c)
	})
	return err
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, core.ErrTimeout)
	default:
		return core.NewBackendError(op, err)
	}
}
