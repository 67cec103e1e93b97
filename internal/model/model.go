// Package model defines the boundary to the generative vision model. Adapters
// return the model's raw structured output; interpreting it is left to
// analysis.Resolve.
package model

import (
	"context"
	"errors"

	"github.com/vbonduro/foodcoach/internal/analysis"
)

// ErrUnavailable wraps every failure to obtain a reply from the model:
// transport errors, non-success statuses and timeouts.
var ErrUnavailable = errors.New("model unavailable")

//go:generate mockgen -destination=mocks/mock_invoker.go -package=mocks . Invoker

// Invoker sends one image and prompt to a vision model.
type Invoker interface {
	// Name returns the backend name, e.g. "claude" or "ollama".
	Name() string

	// Invoke returns the raw text the model produced under p.Schema. Errors
	// wrap ErrUnavailable.
	Invoke(ctx context.Context, image []byte, mimeType string, p analysis.Prompt) (string, error)
}
