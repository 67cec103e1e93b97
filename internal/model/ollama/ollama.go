// Package ollama invokes a local Ollama server through /api/generate with a
// structured-output format schema.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vbonduro/foodcoach/internal/analysis"
	"github.com/vbonduro/foodcoach/internal/model"
)

type generateRequest struct {
	Model  string           `json:"model"`
	Prompt string           `json:"prompt"`
	Images []string         `json:"images"`
	Stream bool             `json:"stream"`
	Format *analysis.Schema `json:"format,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

type Invoker struct {
	host   string
	model  string
	client *http.Client
}

func New(host, modelName string) *Invoker {
	return &Invoker{
		host:   strings.TrimRight(host, "/"),
		model:  modelName,
		client: &http.Client{},
	}
}

func (o *Invoker) Name() string { return "ollama" }

func (o *Invoker) Invoke(ctx context.Context, image []byte, _ string, p analysis.Prompt) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Model:  o.model,
		Prompt: p.Instruction,
		Images: []string{base64.StdEncoding.EncodeToString(image)},
		Stream: false,
		Format: p.Schema,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to call ollama: %w", model.ErrUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close ollama response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: ollama returned status %d: %s", model.ErrUnavailable, resp.StatusCode, body)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: failed to decode ollama response: %w", model.ErrUnavailable, err)
	}

	return out.Response, nil
}
