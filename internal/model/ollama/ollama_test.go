package ollama

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

func testPrompt(t *testing.T) analysis.Prompt {
	t.Helper()
	p, err := analysis.BuildPrompt([]string{"Marie Curie"}, nil)
	require.NoError(t, err)
	return p
}

func TestInvoke(t *testing.T) {
	var got struct {
		Model  string          `json:"model"`
		Prompt string          `json:"prompt"`
		Images []string        `json:"images"`
		Stream bool            `json:"stream"`
		Format json.RawMessage `json:"format"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":    got.Model,
			"response": `{"fallback":"No food detected"}`,
			"done":     true,
		})
	}))
	defer server.Close()

	inv := New(server.URL+"/", "llava")
	image := []byte{0xFF, 0xD8, 0xFF, 0xE0}

	raw, err := inv.Invoke(context.Background(), image, "image/jpeg", testPrompt(t))
	require.NoError(t, err)
	assert.Equal(t, `{"fallback":"No food detected"}`, raw)

	assert.Equal(t, "llava", got.Model)
	assert.False(t, got.Stream)
	assert.Equal(t, []string{base64.StdEncoding.EncodeToString(image)}, got.Images)
	assert.Contains(t, got.Prompt, "Marie Curie")

	var format analysis.Schema
	require.NoError(t, json.Unmarshal(got.Format, &format))
	assert.Equal(t, "object", format.Type)
	assert.Contains(t, format.Required, analysis.FieldCalories)
}

func TestInvoke_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(server.URL, "llava").Invoke(context.Background(), []byte{1}, "image/jpeg", testPrompt(t))
	assert.ErrorIs(t, err, model.ErrUnavailable)
}

func TestInvoke_InvalidBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := New(server.URL, "llava").Invoke(context.Background(), []byte{1}, "image/jpeg", testPrompt(t))
	assert.ErrorIs(t, err, model.ErrUnavailable)
}

func TestInvoke_NetworkError(t *testing.T) {
	_, err := New("http://localhost:99999", "llava").Invoke(context.Background(), []byte{1}, "image/jpeg", testPrompt(t))
	assert.ErrorIs(t, err, model.ErrUnavailable)
}

func TestInvoke_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(server.URL, "llava").Invoke(ctx, []byte{1}, "image/jpeg", testPrompt(t))
	assert.ErrorIs(t, err, model.ErrUnavailable)
	assert.ErrorIs(t, err, context.Canceled)
}
