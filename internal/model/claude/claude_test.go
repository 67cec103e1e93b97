package claude

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/foodcoach/internal/analysis"
	"github.com/vbonduro/foodcoach/internal/model"
)

const toolInput = `{"coachAdvice":"Savour it.","food":"Apple","benefits":["Fibre","Vitamin C"],"calories":95,"carbs":25,"sugar":19,"drawbacks":["Sugar; pair with nuts","Acid; rinse"],"nutrients":["Fibre: digestion — 80","Vitamin C: immunity — 60"]}`

func testPrompt(t *testing.T) analysis.Prompt {
	t.Helper()
	p, err := analysis.BuildPrompt([]string{"Hippocrates"}, nil)
	require.NoError(t, err)
	return p
}

func messageResponse(content ...map[string]any) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-test",
		"content":     content,
		"stop_reason": "tool_use",
		"usage":       map[string]any{"input_tokens": 10, "output_tokens": 20},
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestInvoke_ToolUse(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		writeJSON(t, w, messageResponse(map[string]any{
			"type":  "tool_use",
			"id":    "toolu_1",
			"name":  toolName,
			"input": json.RawMessage(toolInput),
		}))
	}))
	defer server.Close()

	inv := New("sk-test", "claude-test", server.URL+"/v1")
	image := []byte{0x89, 'P', 'N', 'G'}

	raw, err := inv.Invoke(context.Background(), image, "image/png", testPrompt(t))
	require.NoError(t, err)
	assert.JSONEq(t, toolInput, raw)

	assert.Equal(t, "claude-test", got["model"])
	choice := got["tool_choice"].(map[string]any)
	assert.Equal(t, "tool", choice["type"])
	assert.Equal(t, toolName, choice["name"])

	tools := got["tools"].([]any)
	require.Len(t, tools, 1)
	schema := tools[0].(map[string]any)["input_schema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])

	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	content := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	source := content[0].(map[string]any)["source"].(map[string]any)
	assert.Equal(t, "image/png", source["media_type"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(image), source["data"])
	assert.Contains(t, content[1].(map[string]any)["text"], "Hippocrates")
}

func TestInvoke_TextFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, messageResponse(map[string]any{
			"type": "text",
			"text": `{"fallback":"No food detected"}`,
		}))
	}))
	defer server.Close()

	inv := New("sk-test", "claude-test", server.URL+"/v1")

	raw, err := inv.Invoke(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg", testPrompt(t))
	require.NoError(t, err)
	assert.Equal(t, `{"fallback":"No food detected"}`, raw)
}

func TestInvoke_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	inv := New("sk-test", "claude-test", server.URL+"/v1")

	_, err := inv.Invoke(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg", testPrompt(t))
	assert.ErrorIs(t, err, model.ErrUnavailable)
}

func TestInvoke_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	inv := New("sk-test", "claude-test", url+"/v1")

	_, err := inv.Invoke(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg", testPrompt(t))
	assert.ErrorIs(t, err, model.ErrUnavailable)
}

func TestNormaliseMIME(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"image/png", "image/png"},
		{"image/gif", "image/gif"},
		{"image/webp", "image/webp"},
		{"image/jpeg", "image/jpeg"},
		{"image/heic", "image/jpeg"},
		{"", "image/jpeg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normaliseMIME(tt.in), tt.in)
	}
}

func TestName(t *testing.T) {
	assert.Equal(t, "claude", New("k", "m", "").Name())
}
