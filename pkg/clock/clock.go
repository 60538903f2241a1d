// Package clock provides the process-wide source of "now".
//
// Lookups are resolved per call: an override installed in the context wins,
// then a global override, then the wall clock. Context overrides nest
// naturally (the innermost one wins) and disappear when the derived context
// goes out of scope, which keeps parallel tests isolated.
package clock

import (
	"context"
	"sync/atomic"
	"time"
)

// Clock is a source of the current time.
type Clock interface {
	Now(ctx context.Context) time.Time
}

// Func adapts a function to the Clock interface.
type Func func(ctx context.Context) time.Time

// Now calls f(ctx).
func (f Func) Now(ctx context.Context) time.Time { return f(ctx) }

// System resolves time through Now.
var System Clock = Func(Now)

type overrideKey struct{}

type override struct {
	at     time.Time
	parent *override
}

var global atomic.Pointer[time.Time]

// Now returns the current time for ctx.
func Now(ctx context.Context) time.Time {
	if ctx != nil {
		if o, ok := ctx.Value(overrideKey{}).(*override); ok && o != nil {
			return o.at
		}
	}
	if t := global.Load(); t != nil {
		return *t
	}
	return time.Now()
}

// WithTime returns a context in which Now reports t.
func WithTime(ctx context.Context, t time.Time) context.Context {
	parent, _ := ctx.Value(overrideKey{}).(*override)
	return context.WithValue(ctx, overrideKey{}, &override{at: t, parent: parent})
}

// Depth returns the number of scoped overrides stacked in ctx.
func Depth(ctx context.Context) int {
	n := 0
	o, _ := ctx.Value(overrideKey{}).(*override)
	for ; o != nil; o = o.parent {
		n++
	}
	return n
}

// Set installs a process-wide override. Scoped overrides still take precedence.
func Set(t time.Time) {
	global.Store(&t)
}

// Reset removes the process-wide override.
func Reset() {
	global.Store(nil)
}

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time) Clock {
	return Func(func(context.Context) time.Time { return t })
}
