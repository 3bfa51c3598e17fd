package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/boxabirds/post-to-bluesky/domain"
)

// HandlerFunc handles one named message. The request body is the raw message
// payload; the return value is marshalled into the response.
type HandlerFunc func(ctx context.Context, req json.RawMessage) (any, error)

// Router dispatches messages to handlers by name. Handlers are pure with
// respect to the router: everything they need arrives in the request or comes
// from the persisted state they read themselves.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	logger   *zap.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}
}

// Handle registers a handler for a message name, replacing any previous one.
func (r *Router) Handle(name string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = h
}

// Dispatch routes one request to its handler and marshals the result. A
// panicking handler is converted to an error; a single bad message must never
// take down the background controller.
func (r *Router) Dispatch(ctx context.Context, name string, req json.RawMessage) (resp json.RawMessage, err error) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()

	requestID := uuid.NewString()
	log := r.logger.With(zap.String("message", name), zap.String("request_id", requestID))

	if !ok {
		log.Warn("no handler registered")
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownMessage, name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("handler panicked", zap.Any("panic", rec))
			err = fmt.Errorf("handler for %s panicked: %v", name, rec)
			resp = nil
		}
	}()

	log.Debug("dispatching")
	out, err := h(ctx, req)
	if err != nil {
		log.Warn("handler failed", zap.Error(err))
		return nil, err
	}

	resp, err = json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response for %s: %w", name, err)
	}
	log.Debug("dispatched")
	return resp, nil
}
