package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, status int, body string, got *ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestQuery(t *testing.T) {
	var got ChatCompletionRequest
	srv := newServer(t, http.StatusOK, `{"choices":[{"index":0,"message":{"role":"assistant","content":"looks fine"}}]}`, &got)

	c, err := NewClient(srv.URL + "/")
	require.NoError(t, err)

	answer, err := c.Query(context.Background(), "minicpm", "check", "QUJD")
	require.NoError(t, err)
	assert.Equal(t, "looks fine", answer)

	assert.Equal(t, "minicpm", got.Model)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 1)

	parts, ok := got.Messages[0].Content.([]any)
	require.True(t, ok)
	require.Len(t, parts, 2)
	image := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/jpeg;base64,QUJD", image["url"])
}

func TestQueryContentParts(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"part answer"}]}}]}`, nil)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	answer, err := c.Query(context.Background(), "m", "p", "")
	require.NoError(t, err)
	assert.Equal(t, "part answer", answer)
}

func TestQueryErrors(t *testing.T) {
	tests := map[string]struct {
		status int
		body   string
	}{
		"status":     {http.StatusInternalServerError, `oops`},
		"not json":   {http.StatusOK, `<html>`},
		"no choices": {http.StatusOK, `{"choices":[]}`},
		"empty":      {http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":""}}]}`},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			srv := newServer(t, tc.status, tc.body, nil)
			c, err := NewClient(srv.URL)
			require.NoError(t, err)

			_, err = c.Query(context.Background(), "m", "p", "QUJD")
			assert.Error(t, err)
		})
	}
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, c.baseURL)

	_, err = NewClient("localhost:8080")
	assert.Error(t, err)
}
