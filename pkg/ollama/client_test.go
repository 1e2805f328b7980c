package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery(t *testing.T) {
	var got api.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/x-ndjson")
		_ = json.NewEncoder(w).Encode(api.ChatResponse{
			Model:   got.Model,
			Message: api.Message{Role: "assistant", Content: `{"aligned":true}`},
			Done:    true,
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL + "/api/chat")
	require.NoError(t, err)

	img := []byte{0xff, 0xd8, 0xff}
	answer, err := c.Query(context.Background(), "openbmb/minicpm-v4.5", "check", base64.StdEncoding.EncodeToString(img))
	require.NoError(t, err)
	assert.Equal(t, `{"aligned":true}`, answer)

	assert.Equal(t, "openbmb/minicpm-v4.5", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "check", got.Messages[0].Content)
	require.Len(t, got.Messages[0].Images, 1)
	assert.Equal(t, img, []byte(got.Messages[0].Images[0]))
	require.NotNil(t, got.Stream)
	assert.False(t, *got.Stream)
	assert.Equal(t, 4096.0, got.Options["num_ctx"])
}

func TestQueryServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Query(context.Background(), "missing", "check", base64.StdEncoding.EncodeToString([]byte("x")))
	assert.Error(t, err)
}

func TestQueryBadImage(t *testing.T) {
	c, err := NewClient("http://localhost:11434")
	require.NoError(t, err)

	_, err = c.Query(context.Background(), "m", "p", "not base64!")
	assert.Error(t, err)
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient("localhost")
	assert.Error(t, err)

	_, err = NewClient("://bad")
	assert.Error(t, err)
}

func TestModelOptions(t *testing.T) {
	assert.Empty(t, modelOptions("llava:7b"))
	assert.Equal(t, 0.8, modelOptions("OpenBMB/MiniCPM-V4.5")["top_p"])
}
