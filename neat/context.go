package neat

import (
	"context"
	"errors"
)

// ErrOptionsNotFound is the value MustFromContext panics with when ctx carries no Options, e.g. a
// training goroutine spawned from a request path that skipped NewContext.
var ErrOptionsNotFound = errors.New("novatheus: Options not found in context")

// optionsKey is an unexported type for the single key this package stores in a Context, per the
// standard library's context-key pattern: an unexported type prevents collisions with keys other
// packages might add to the same Context.
type optionsKey struct{}

// NewContext returns a Context that carries the population/training Options. The crossval
// trainer and evolution driver do not read Options from a Context; they take them directly.
func NewContext(ctx context.Context, opts *Options) context.Context {
	return context.WithValue(ctx, optionsKey{}, opts)
}

// FromContext returns the Options stored in ctx, if any.
func FromContext(ctx context.Context) (*Options, bool) {
	opts, ok := ctx.Value(optionsKey{}).(*Options)
	return opts, ok
}

// MustFromContext is like FromContext but panics if ctx carries no Options. Intended for fold
// worker goroutines spawned from a call site that has already validated the context.
func MustFromContext(ctx context.Context) *Options {
	opts, found := FromContext(ctx)
	if !found {
		panic(ErrOptionsNotFound)
	}
	return opts
}
