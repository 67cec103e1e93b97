// Package claude invokes Anthropic's Messages API. The response schema is
// sent as the input schema of a forced tool call, so the tool input is the
// structured output.
package claude

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/vbonduro/foodcoach/internal/analysis"
	"github.com/vbonduro/foodcoach/internal/model"
)

const (
	toolName        = "record_food_analysis"
	toolDescription = "Record the nutrition analysis of the food in the image."

	// Two or three short list entries per field plus 30 words of advice fit
	// well inside this.
	maxTokens = 1024
)

type Invoker struct {
	client *anthropic.Client
	model  string
}

// New returns an Invoker for the given model. baseURL overrides the API
// endpoint when non-empty.
func New(apiKey, modelName, baseURL string) *Invoker {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return &Invoker{
		client: anthropic.NewClient(apiKey, opts...),
		model:  modelName,
	}
}

func (c *Invoker) Name() string { return "claude" }

func (c *Invoker) Invoke(ctx context.Context, image []byte, mimeType string, p analysis.Prompt) (string, error) {
	req := anthropic.MessagesRequest{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.Message{{
			Role: anthropic.RoleUser,
			Content: []anthropic.MessageContent{
				anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
					anthropic.MessagesContentSourceTypeBase64,
					normaliseMIME(mimeType),
					base64.StdEncoding.EncodeToString(image),
				)),
				anthropic.NewTextMessageContent(p.Instruction),
			},
		}},
		Tools: []anthropic.ToolDefinition{{
			Name:        toolName,
			Description: toolDescription,
			InputSchema: p.Schema,
		}},
		ToolChoice: &anthropic.ToolChoice{Type: "tool", Name: toolName},
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: claude: %w", model.ErrUnavailable, err)
	}

	return rawOutput(resp.Content), nil
}

// rawOutput returns the forced tool's input, or the first text block when the
// model answered in prose.
func rawOutput(content []anthropic.MessageContent) string {
	var text string
	for _, c := range content {
		switch c.Type {
		case anthropic.MessagesContentTypeToolUse:
			if c.MessageContentToolUse != nil {
				return string(c.MessageContentToolUse.Input)
			}
		case anthropic.MessagesContentTypeText:
			if text == "" && c.Text != nil {
				text = *c.Text
			}
		}
	}
	return text
}

// normaliseMIME maps browser MIME types to the values the Anthropic API accepts.
// Unknown types are coerced to jpeg.
func normaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
