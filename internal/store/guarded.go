// v0
// internal/store/guarded.go
package store

import (
	"context"
	"errors"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/circuitbreaker"
	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

// Guarded routes every call through a circuit breaker so a failing engine is
// fast-failed instead of hammered. Validation failures do not trip the breaker.
type Guarded struct {
	inner   Store
	breaker *circuitbreaker.Breaker
}

// NewGuarded wraps inner with breaker.
func NewGuarded(inner Store, breaker *circuitbreaker.Breaker) *Guarded {
	return &Guarded{inner: inner, breaker: breaker}
}

// Append forwards to the inner store. Validation failures do not trip the breaker.
func (g *Guarded) Append(ctx context.Context, e scan.Event) (scan.Event, error) {
	var (
		out    scan.Event
		reject error
	)
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		ev, err := g.inner.Append(ctx, e)
		if errors.Is(err, scan.ErrValidation) {
			reject = err
			return nil
		}
		out = ev
		return err
	})
	if reject != nil {
		return scan.Event{}, reject
	}
	if err != nil {
		return scan.Event{}, g.wrap("append", err)
	}
	return out, nil
}

// Query forwards to the inner store through the breaker.
func (g *Guarded) Query(ctx context.Context, f Filter) ([]scan.Event, error) {
	var out []scan.Event
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.inner.Query(ctx, f)
		return err
	})
	if err != nil {
		return nil, g.wrap("query", err)
	}
	return out, nil
}

// Clear forwards to the inner store through the breaker.
func (g *Guarded) Clear(ctx context.Context) (int64, error) {
	var n int64
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		n, err = g.inner.Clear(ctx)
		return err
	})
	if err != nil {
		return 0, g.wrap("clear", err)
	}
	return n, nil
}

// Ping checks the inner engine when it supports it.
func (g *Guarded) Ping(ctx context.Context) error {
	p, ok := g.inner.(Pinger)
	if !ok {
		return nil
	}
	return g.breaker.Execute(ctx, p.Ping)
}

// Close closes the inner store.
func (g *Guarded) Close() error { return g.inner.Close() }

// wrap reports everything except caller cancellation as a transient failure,
// including circuitbreaker.ErrOpen.
func (g *Guarded) wrap(op string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return Transient(op, err)
}
