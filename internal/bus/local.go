package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boxabirds/post-to-bluesky/domain"
)

// Local implements domain.Bus by dispatching through an in-process router.
// The underlying channel is at-most-once with no timeout of its own, so every
// Send is bounded here: a counterpart that was torn down mid-request would
// otherwise leave the caller pending forever.
type Local struct {
	router  *Router
	timeout time.Duration
}

// NewLocal creates a bus over the given router.
func NewLocal(router *Router, timeout time.Duration) domain.Bus {
	return &Local{router: router, timeout: timeout}
}

type result struct {
	resp json.RawMessage
	err  error
}

// Send implements domain.Bus
func (b *Local) Send(ctx context.Context, name string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		resp, err := b.router.Dispatch(ctx, name, payload)
		ch <- result{resp: resp, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s request abandoned: %w", name, ctx.Err())
	case r := <-ch:
		return r.resp, r.err
	}
}
