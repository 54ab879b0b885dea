package dialog

import (
	"context"
	"fmt"
	"strings"

	domerrors "github.com/ugrasage/sagebot-go/internal/errors"
	"github.com/ugrasage/sagebot-go/internal/nlu/entity"
	"github.com/ugrasage/sagebot-go/internal/nlu/extract"
	"github.com/ugrasage/sagebot-go/internal/nlu/intent"
)

// Handler answers one intent once its required entities are collected.
type Handler interface {
	Handle(ctx context.Context, userID string, ents *entity.Store) (string, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, userID string, ents *entity.Store) (string, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, userID string, ents *entity.Store) (string, error) {
	return f(ctx, userID, ents)
}

// Dispatcher routes a completed turn to the intent's handler.
type Dispatcher struct {
	handlers map[intent.Key]Handler
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[intent.Key]Handler)}
}

// Register binds a handler to an intent key.
func (d *Dispatcher) Register(key intent.Key, h Handler) {
	d.handlers[key] = h
}

// Validate checks the dispatcher and requirement table for configuration
// errors at startup: every intent needs a handler, every required kind
// needs both an extractor and a question template. A request must never
// be the first place these gaps surface.
func (d *Dispatcher) Validate(orch *extract.Orchestrator) error {
	for _, key := range intent.All() {
		if _, ok := d.handlers[key]; !ok {
			return fmt.Errorf("%w: intent %s", domerrors.ErrMissingHandler, key)
		}
		for _, g := range Requirements(key) {
			for _, k := range g.Kinds {
				if !orch.HasKind(k) {
					return fmt.Errorf("%w: kind %s required by intent %s", domerrors.ErrMissingExtractor, k, key)
				}
				if _, ok := questionFor(k); !ok {
					return fmt.Errorf("no clarification question for kind %s required by intent %s", k, key)
				}
			}
		}
	}
	return nil
}

// Dispatch invokes the handler for key. An unrecognized key is a
// programming error, never a silent no-op. A handler that succeeds must
// produce user-facing text; blank output surfaces as ErrEmptyAnswer
// instead of a silent empty reply.
func (d *Dispatcher) Dispatch(ctx context.Context, key intent.Key, userID string, ents *entity.Store) (string, error) {
	h, ok := d.handlers[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", domerrors.ErrUnknownIntent, key)
	}
	text, err := h.Handle(ctx, userID, ents)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: intent %s", domerrors.ErrEmptyAnswer, key)
	}
	return text, nil
}
