package generation

import (
	"context"
	"fmt"
	"strings"
)

// MockGenerator returns canned responses without a model backend. Used when
// no generation endpoint is configured and in tests.
type MockGenerator struct {
	// Response, when set, is returned verbatim for every prompt.
	Response string
	// Err, when set, is returned for every prompt.
	Err error
}

// NewMockGenerator creates a mock generator with default behavior.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate returns the configured response, or a short summary of the prompt.
func (g *MockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	if g.Err != nil {
		return "", g.Err
	}
	if g.Response != "" {
		return g.Response, nil
	}
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	last := lines[len(lines)-1]
	return fmt.Sprintf("Based on the available catalog information: %s", last), nil
}

// Close is a no-op.
func (g *MockGenerator) Close() error {
	return nil
}
