// Package llm is the model-client boundary for component edits. The editor
// core only ever sees json.RawMessage coming back; trust decisions happen in
// the finalizer, never here.
package llm

import (
	"context"
	"encoding/json"
)

// Client is the minimal surface the edit pipeline needs from a model.
type Client interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}

// Middleware wraps a Client with a cross-cutting concern.
type Middleware func(Client) Client

// Chain applies middlewares left to right, so the first listed is the
// outermost.
func Chain(c Client, mws ...Middleware) Client {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}
