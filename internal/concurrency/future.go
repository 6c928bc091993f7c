package concurrency

import (
	"context"
	"errors"
	"sync"
)

// Future is the result of an operation completing on another goroutine.
// It is completed exactly once; later Complete calls are ignored.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// NewFuture returns an incomplete future
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future that is already complete
func Resolved[T any](val T, err error) *Future[T] {
	f := NewFuture[T]()
	f.Complete(val, err)
	return f
}

// Complete sets the result. It reports whether this call won.
func (f *Future[T]) Complete(val T, err error) bool {
	won := false
	f.once.Do(func() {
		f.val, f.err = val, err
		close(f.done)
		won = true
	})
	return won
}

// Done is closed once the result is available
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the result is available or ctx ends. Giving up on the
// wait does not cancel the underlying operation.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the result without blocking; ok is false while incomplete
func (f *Future[T]) Result() (val T, err error, ok bool) {
	select {
	case <-f.done:
		return f.val, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// Then returns a future completed with fn applied to f's result
func Then[T, U any](f *Future[T], fn func(T, error) (U, error)) *Future[U] {
	out := NewFuture[U]()
	go func() {
		<-f.done
		out.Complete(fn(f.val, f.err))
	}()
	return out
}

// All completes when every input future has. Values keep input order; the
// errors of all failed inputs are joined.
func All[T any](fs ...*Future[T]) *Future[[]T] {
	out := NewFuture[[]T]()
	go func() {
		vals := make([]T, len(fs))
		var errs []error
		for i, f := range fs {
			<-f.done
			vals[i] = f.val
			if f.err != nil {
				errs = append(errs, f.err)
			}
		}
		out.Complete(vals, errors.Join(errs...))
	}()
	return out
}
