// Package generation provides text generation for answer synthesis.
package generation

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the generation backend could not produce a
// response. Callers are expected to degrade to a fallback answer.
var ErrUnavailable = errors.New("generation backend unavailable")

// Generator produces a completion for a fully assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}
