package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OllamaGenerator calls a local Ollama server's /api/generate endpoint.
type OllamaGenerator struct {
	endpoint string
	model    string
	client   *http.Client
	logger   *zap.Logger
}

// OllamaOption configures an OllamaGenerator.
type OllamaOption func(*OllamaGenerator)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) OllamaOption {
	return func(g *OllamaGenerator) {
		g.logger = logger
	}
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) OllamaOption {
	return func(g *OllamaGenerator) {
		g.client = client
	}
}

// NewOllamaGenerator creates a generator targeting endpoint (for example
// "http://localhost:11434") with the given model and request timeout.
func NewOllamaGenerator(endpoint, model string, timeout time.Duration, opts ...OllamaOption) *OllamaGenerator {
	g := &OllamaGenerator{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		client:   &http.Client{Timeout: timeout},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model     string `json:"model"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`
	CreatedAt string `json:"created_at"`
}

// Generate sends the prompt and returns the full completion. Any transport
// or backend failure is reported as ErrUnavailable.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:  g.model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("generation request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		g.logger.Warn("generation backend returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(data)))
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}

	g.logger.Debug("generation complete",
		zap.String("model", out.Model),
		zap.Int("response_length", len(out.Response)),
		zap.Duration("took", time.Since(start)))

	return strings.TrimSpace(out.Response), nil
}

// Close releases idle connections.
func (g *OllamaGenerator) Close() error {
	g.client.CloseIdleConnections()
	return nil
}
