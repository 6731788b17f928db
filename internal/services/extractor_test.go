package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/orderbot-backend/internal/models"
)

// capturedRequest is the subset of the chat completions body the tests inspect
type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

func TestAPIBaseURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"http://localhost:1234/v1", "http://localhost:1234/v1"},
		{"http://localhost:1234/v1/", "http://localhost:1234/v1"},
		{"http://localhost:11434", "http://localhost:11434/v1"},
		{"", "http://localhost:1234/v1"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, apiBaseURL(tc.base), "base=%q", tc.base)
	}
}

func TestLLMExtractor_BaseURLWithoutVersionPrefix(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"*Name: Ana"}}]}`))
	}))
	defer srv.Close()

	e := NewLLMExtractor(DefaultMessages(), WithBaseURL(srv.URL))
	out, err := e.Extract(context.Background(), "Ana", models.NewOrderDraft())
	require.NoError(t, err)
	require.Equal(t, "*Name: Ana", out)
	require.Equal(t, "/v1/chat/completions", path)
}

func TestLLMExtractor_SendsDraftAndReturnsContent(t *testing.T) {
	var captured capturedRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  *Name: Ana\n*Payment Method: card  "}}]}`))
	}))
	defer srv.Close()

	e := NewLLMExtractor(DefaultMessages(),
		WithBaseURL(srv.URL+"/v1"),
		WithModel("llama-3.1-8b"),
		WithAPIKey("sk-test"),
		WithSampling(0.1, 500),
	)

	current := models.OrderDraft{Name: models.Unset, Address: "Rua A, 1", Order: models.Unset, Payment: models.Unset}
	out, err := e.Extract(context.Background(), "My name is Ana, paying by card", current)
	require.NoError(t, err)
	require.Equal(t, "*Name: Ana\n*Payment Method: card", out)

	require.Equal(t, "Bearer sk-test", auth)
	require.Equal(t, "llama-3.1-8b", captured.Model)
	require.InDelta(t, 0.1, captured.Temperature, 1e-6)
	require.Equal(t, 500, captured.MaxTokens)
	require.Len(t, captured.Messages, 2)
	require.Equal(t, "system", captured.Messages[0].Role)
	require.Contains(t, captured.Messages[0].Content, "*Address: Rua A, 1")
	require.Contains(t, captured.Messages[0].Content, "*Name: [Not provided]")
	require.Contains(t, captured.Messages[0].Content, "NEW CUSTOMER MESSAGE: My name is Ana, paying by card")
	require.Contains(t, captured.Messages[0].Content, "*Payment Method: [Payment Method]")
	require.NotContains(t, captured.Messages[0].Content, "{draft}")
	require.Equal(t, "user", captured.Messages[1].Role)
}

func TestLLMExtractor_ConnectionRefusedIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	e := NewLLMExtractor(DefaultMessages(), WithBaseURL(url))
	_, err := e.Extract(context.Background(), "hello", models.NewOrderDraft())
	require.ErrorIs(t, err, ErrExtractorUnreachable)
	require.NotErrorIs(t, err, ErrExtractorFailed)
}

func TestLLMExtractor_DeadlineIsUnreachable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	e := NewLLMExtractor(DefaultMessages(), WithBaseURL(srv.URL))
	_, err := e.Extract(ctx, "hello", models.NewOrderDraft())
	require.ErrorIs(t, err, ErrExtractorUnreachable)
}

func TestLLMExtractor_StatusAndDecodeFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("model not loaded"))
		},
		"bad json": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("not json"))
		},
		"no choices": func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			e := NewLLMExtractor(DefaultMessages(), WithBaseURL(srv.URL))
			_, err := e.Extract(context.Background(), "hello", models.NewOrderDraft())
			require.ErrorIs(t, err, ErrExtractorFailed)
			require.NotErrorIs(t, err, ErrExtractorUnreachable)
		})
	}
}

func TestLLMExtractor_StatusErrorCarriesCode(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"empty body":        {http.StatusServiceUnavailable, ""},
		"openai error body": {http.StatusNotFound, `{"error":{"message":"model not found","type":"invalid_request_error"}}`},
		"plain text body":   {http.StatusInternalServerError, "model not loaded"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			e := NewLLMExtractor(DefaultMessages(), WithBaseURL(srv.URL))
			_, err := e.Extract(context.Background(), "hello", models.NewOrderDraft())

			var statusErr *HTTPStatusError
			require.ErrorAs(t, err, &statusErr)
			require.Equal(t, tc.status, statusErr.StatusCode)
			require.ErrorIs(t, err, ErrExtractorFailed)
		})
	}
}
