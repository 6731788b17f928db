package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Ananth-NQI/orderbot-backend/internal/models"
)

var (
	// ErrExtractorUnreachable means the language model could not be reached (refused, dial failure, timeout)
	ErrExtractorUnreachable = errors.New("extractor unreachable")
	// ErrExtractorFailed covers every other extraction failure
	ErrExtractorFailed = errors.New("extractor failed")
)

// Extractor proposes an updated draft, as structured text, from a free-text message
type Extractor interface {
	Extract(ctx context.Context, message string, current models.OrderDraft) (string, error)
}

// HTTPStatusError captures non-2xx responses from the model server
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("llm: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// LLMExtractor calls an OpenAI-compatible chat completions endpoint
// (LM Studio, Ollama, OpenAI)
type LLMExtractor struct {
	baseURL     string
	model       string
	apiKey      string
	temperature float64
	maxTokens   int
	httpClient  *http.Client

	client     *openai.Client
	messages   *Messages
	reconciler *Reconciler
}

type LLMOption func(*LLMExtractor)

func WithBaseURL(baseURL string) LLMOption {
	return func(e *LLMExtractor) {
		e.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithModel(model string) LLMOption {
	return func(e *LLMExtractor) {
		e.model = model
	}
}

func WithAPIKey(apiKey string) LLMOption {
	return func(e *LLMExtractor) {
		e.apiKey = apiKey
	}
}

func WithSampling(temperature float64, maxTokens int) LLMOption {
	return func(e *LLMExtractor) {
		e.temperature = temperature
		e.maxTokens = maxTokens
	}
}

func WithHTTPClient(httpClient *http.Client) LLMOption {
	return func(e *LLMExtractor) {
		e.httpClient = httpClient
	}
}

// NewLLMExtractor creates an extractor whose prompt uses the catalog's labels
func NewLLMExtractor(messages *Messages, opts ...LLMOption) *LLMExtractor {
	e := &LLMExtractor{
		baseURL:     defaultLLMBaseURL,
		model:       "local-model",
		apiKey:      "not-needed",
		temperature: 0.1,
		maxTokens:   500,
		// the conversation applies its own deadline; this only bounds a hung connection
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		messages:   messages,
		reconciler: NewReconciler(messages),
	}
	for _, opt := range opts {
		opt(e)
	}

	cfg := openai.DefaultConfig(e.apiKey)
	cfg.BaseURL = apiBaseURL(e.baseURL)
	cfg.HTTPClient = e.httpClient
	e.client = openai.NewClientWithConfig(cfg)
	return e
}

const defaultLLMBaseURL = "http://localhost:1234/v1"

// apiBaseURL returns the base URL with the /v1 prefix the client expects
func apiBaseURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		return defaultLLMBaseURL
	}
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

// Extract asks the model for the complete, updated draft
func (e *LLMExtractor) Extract(ctx context.Context, message string, current models.OrderDraft) (string, error) {
	log.Println("🤖 Sending extraction request to the LLM...")
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Messages:    e.buildMessages(message, current),
		Temperature: float32(e.temperature),
		MaxTokens:   e.maxTokens,
	})
	if err != nil {
		return "", e.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrExtractorFailed)
	}
	log.Println("🤖 LLM response received")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classify maps client errors onto the extractor error classes
func (e *LLMExtractor) classify(err error) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		return fmt.Errorf("%w: %w", ErrExtractorFailed, &HTTPStatusError{
			StatusCode: apiErr.HTTPStatusCode,
			URL:        apiBaseURL(e.baseURL),
			Body:       apiErr.Message,
		})
	case errors.As(err, &reqErr):
		return fmt.Errorf("%w: %w", ErrExtractorFailed, &HTTPStatusError{
			StatusCode: reqErr.HTTPStatusCode,
			URL:        apiBaseURL(e.baseURL),
			Body:       reqErr.Error(),
		})
	default:
		return classifyTransportError(err)
	}
}

func (e *LLMExtractor) buildMessages(message string, current models.OrderDraft) []openai.ChatCompletionMessage {
	labels := make([]string, 0, len(models.Fields))
	for _, f := range models.Fields {
		labels = append(labels, e.messages.Label(f))
	}

	system := strings.NewReplacer(
		"{labels}", strings.Join(labels, ", "),
		"{unset}", e.messages.Unset,
		"{draft}", e.reconciler.Render(current),
		"{message}", message,
		"{template}", e.reconciler.RenderTemplate(),
	).Replace(e.messages.Prompt.System)

	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: system},
		{Role: openai.ChatMessageRoleUser, Content: e.messages.Prompt.User},
	}
}

// classifyTransportError separates "model server not reachable" from other failures
func classifyTransportError(err error) error {
	var netErr net.Error
	var opErr *net.OpError
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.As(err, &opErr) && opErr.Op == "dial",
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", ErrExtractorUnreachable, err)
	default:
		return fmt.Errorf("%w: %w", ErrExtractorFailed, err)
	}
}
