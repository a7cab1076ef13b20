package advice

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
)

// RequestIDHeader correlates a completion call with provider-side logs.
const RequestIDHeader = "X-Request-ID"

// OpenAIConfig describes an OpenAI-compatible chat completions endpoint.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// HTTPTimeout bounds a single HTTP exchange; zero means no client-side limit.
	HTTPTimeout time.Duration
}

// OpenAI is a Completer backed by go-openai.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: requestIDTransport{base: http.DefaultTransport},
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4
	}
	return &OpenAI{client: openai.NewClientWithConfig(oc), model: model}
}

func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.System},
			{Role: openai.ChatMessageRoleUser, Content: req.User},
		},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
	})
	if err != nil {
		return "", translateError(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyAnswer
	}
	return resp.Choices[0].Message.Content, nil
}

// translateError lifts provider status codes into *StatusError and leaves
// transport errors untouched for netutil to classify.
func translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &StatusError{StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &StatusError{StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return err
}

type requestIDTransport struct {
	base http.RoundTripper
}

func (t requestIDTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get(RequestIDHeader) != "" {
		return t.base.RoundTrip(r)
	}
	clone := r.Clone(r.Context())
	clone.Header.Set(RequestIDHeader, uuid.NewString())
	return t.base.RoundTrip(clone)
}
