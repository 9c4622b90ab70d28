// Package batch runs independent units of work as one fan-out/fan-in barrier.
//
// Every unit runs in its own goroutine. A failing unit never cancels its
// siblings; Run waits for all of them and then reports each outcome.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one unit.
type Result[T any] struct {
	Label string
	Value T
	Err   error
}

// OK reports whether the unit succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Unit describes one piece of work.
type Unit[I any] struct {
	Label string
	Input I
}

// Run executes fn for every unit concurrently and blocks until all complete.
// Results are index-aligned with units. The returned error joins every unit
// error (annotated with the unit label) and is nil only if all units succeeded.
func Run[I, O any](ctx context.Context, units []Unit[I], fn func(context.Context, I) (O, error)) ([]Result[O], error) {
	results := make([]Result[O], len(units))

	var g errgroup.Group
	for i, u := range units {
		results[i].Label = u.Label
		g.Go(func() error {
			v, err := call(ctx, u.Input, fn)
			results[i].Value = v
			results[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	return results, Errors(results)
}

// Errors joins the failures of results, each prefixed with its label.
func Errors[T any](results []Result[T]) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Label, r.Err))
		}
	}
	return errors.Join(errs...)
}

// Values returns the values of successful results in submission order.
func Values[T any](results []Result[T]) []T {
	values := make([]T, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			values = append(values, r.Value)
		}
	}
	return values
}

// call turns a panic inside fn into a unit error so one unit cannot take the
// whole batch down.
func call[I, O any](ctx context.Context, in I, fn func(context.Context, I) (O, error)) (out O, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanic, p, debug.Stack())
		}
	}()
	return fn(ctx, in)
}

// ErrPanic marks a unit that panicked.
var ErrPanic = errors.New("unit panicked")
