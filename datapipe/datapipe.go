// Package datapipe provides the typed event channels the daemon modules
// communicate over. A pipe caches the last committed value; input
// triggers observe values before commit, filters may rewrite them, and
// output triggers run after commit. Dispatch is synchronous in the
// publishing goroutine.
package datapipe

import (
	"sync"
)

// Trigger is the removal handle returned by AddInputTrigger and
// AddOutputTrigger.
type Trigger[T any] struct {
	fn func(T)
}

// Filter is the removal handle returned by AddFilter.
type Filter[T any] struct {
	fn func(T) T
}

type Pipe[T any] struct {
	name string

	mu      sync.RWMutex
	cached  T
	filters []*Filter[T]
	inputs  []*Trigger[T]
	outputs []*Trigger[T]
}

func New[T any](name string, initial T) *Pipe[T] {
	return &Pipe[T]{name: name, cached: initial}
}

func (p *Pipe[T]) Name() string {
	return p.name
}

// Latest returns the most recently committed value.
func (p *Pipe[T]) Latest() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cached
}

// Publish runs the input triggers with v, lets the filters rewrite it,
// commits the result and runs the output triggers with the committed
// value, which is also returned.
func (p *Pipe[T]) Publish(v T) T {
	p.mu.RLock()
	inputs := append([]*Trigger[T](nil), p.inputs...)
	filters := append([]*Filter[T](nil), p.filters...)
	p.mu.RUnlock()

	for _, t := range inputs {
		t.fn(v)
	}
	for _, f := range filters {
		v = f.fn(v)
	}

	p.mu.Lock()
	p.cached = v
	outputs := append([]*Trigger[T](nil), p.outputs...)
	p.mu.Unlock()

	for _, t := range outputs {
		t.fn(v)
	}
	return v
}

func (p *Pipe[T]) AddInputTrigger(fn func(T)) *Trigger[T] {
	t := &Trigger[T]{fn: fn}
	p.mu.Lock()
	p.inputs = append(p.inputs, t)
	p.mu.Unlock()
	return t
}

func (p *Pipe[T]) RemoveInputTrigger(t *Trigger[T]) {
	p.mu.Lock()
	p.inputs = remove(p.inputs, t)
	p.mu.Unlock()
}

func (p *Pipe[T]) AddOutputTrigger(fn func(T)) *Trigger[T] {
	t := &Trigger[T]{fn: fn}
	p.mu.Lock()
	p.outputs = append(p.outputs, t)
	p.mu.Unlock()
	return t
}

func (p *Pipe[T]) RemoveOutputTrigger(t *Trigger[T]) {
	p.mu.Lock()
	p.outputs = remove(p.outputs, t)
	p.mu.Unlock()
}

func (p *Pipe[T]) AddFilter(fn func(T) T) *Filter[T] {
	f := &Filter[T]{fn: fn}
	p.mu.Lock()
	p.filters = append(p.filters, f)
	p.mu.Unlock()
	return f
}

func (p *Pipe[T]) RemoveFilter(f *Filter[T]) {
	p.mu.Lock()
	p.filters = remove(p.filters, f)
	p.mu.Unlock()
}

func remove[E comparable](s []E, e E) []E {
	for i, v := range s {
		if v == e {
			return append(s[:i:i], s[i+1:]...)
		}
	}
	return s
}
