package engine

import (
	"context"
	"log"
	"time"
)

// callWithFallback runs an external call under a bounded timeout and
// substitutes the constructed fallback value on any error. It is the one
// degradation path for every external dependency: embedding, evaluative
// calls, stores, providers. The second return reports whether the
// fallback was used.
func callWithFallback[T any](ctx context.Context, name string, timeout time.Duration, call func(context.Context) (T, error), fallback func(err error) T) (T, bool) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	out, err := call(ctx)
	if err != nil {
		log.Printf("[ENGINE] %s failed, using fallback: %v", name, err)
		return fallback(err), true
	}
	return out, false
}
