package advice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))
		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAICompleteSendsRequest(t *testing.T) {
	var payload map[string]any
	srv := newTestServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Пейте воду."}, "finish_reason": "stop"}]
	}`, &payload)

	c := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "gpt-4"})
	answer, err := c.Complete(context.Background(), Request{
		System:      "sys",
		User:        "user",
		MaxTokens:   500,
		Temperature: 0.5,
		TopP:        0.25,
	})
	require.NoError(t, err)
	assert.Equal(t, "Пейте воду.", answer)

	assert.Equal(t, "gpt-4", payload["model"])
	assert.EqualValues(t, 500, payload["max_tokens"])
	assert.EqualValues(t, 0.5, payload["temperature"])
	assert.EqualValues(t, 0.25, payload["top_p"])
	msgs, ok := payload["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["content"])
}

func TestOpenAICompleteMapsStatus(t *testing.T) {
	srv := newTestServer(t, http.StatusServiceUnavailable,
		`{"error": {"message": "overloaded", "type": "server_error"}}`, nil)

	c := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	_, err := c.Complete(context.Background(), Request{System: "s", User: "u"})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, KindTransient, classify(err))
}

func TestOpenAICompleteRejectsBadRequest(t *testing.T) {
	srv := newTestServer(t, http.StatusBadRequest,
		`{"error": {"message": "bad model", "type": "invalid_request_error"}}`, nil)

	c := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	_, err := c.Complete(context.Background(), Request{System: "s", User: "u"})
	assert.Equal(t, KindTerminal, classify(err))
}

func TestOpenAICompleteNoChoices(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, `{"id": "x", "choices": []}`, nil)

	c := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	_, err := c.Complete(context.Background(), Request{System: "s", User: "u"})
	assert.ErrorIs(t, err, ErrEmptyAnswer)
}

func TestOpenAIUnreachableIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: url + "/v1"})
	_, err := c.Complete(context.Background(), Request{System: "s", User: "u"})
	require.Error(t, err)
	assert.Equal(t, KindTransient, classify(err))
}
