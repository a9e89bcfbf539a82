package text

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nao1215/riskscope/internal/transport"
)

const (
	// DefaultLLMBaseURL is the chat completions API root.
	DefaultLLMBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the model asked to classify text.
	DefaultModel = "gpt-3.5-turbo"

	maxCompletionTokens = 200
)

const systemPrompt = "You are a security assistant that classifies messages. " +
	"Answer with a single JSON object and nothing else, using the keys " +
	`"label" (one of "malicious", "suspicious", "benign"), "reason" (one sentence) ` +
	`and "risk_score" (an integer from 0 to 100). ` +
	"Use malicious for clear phishing, malware or scam calls to action, " +
	"suspicious for ambiguous or potentially risky content and benign for normal content."

// LLMClassifier classifies text through a chat completions endpoint.
type LLMClassifier struct {
	apiKey  string
	baseURL string
	model   string
	retrier *transport.Retrier
	logger  *slog.Logger
}

// LLMOption configures an LLMClassifier.
type LLMOption func(*LLMClassifier)

// WithLLMBaseURL overrides the API root, for compatible gateways.
func WithLLMBaseURL(baseURL string) LLMOption {
	return func(c *LLMClassifier) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithModel overrides the model name.
func WithModel(model string) LLMOption {
	return func(c *LLMClassifier) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLLMLogger sets the logger.
func WithLLMLogger(logger *slog.Logger) LLMOption {
	return func(c *LLMClassifier) {
		c.logger = logger
	}
}

// NewLLMClassifier creates an LLMClassifier authenticating with apiKey.
func NewLLMClassifier(apiKey string, retrier *transport.Retrier, opts ...LLMOption) *LLMClassifier {
	c := &LLMClassifier{
		apiKey:  apiKey,
		baseURL: DefaultLLMBaseURL,
		model:   DefaultModel,
		retrier: retrier,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Classify implements Classifier.
func (c *LLMClassifier) Classify(ctx context.Context, text string) (Verdict, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: "Message:\n-----\n" + text + "\n-----"},
		},
		Temperature: 0,
		MaxTokens:   maxCompletionTokens,
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to encode completion request: %w", err)
	}

	resp, err := c.retrier.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Verdict{}, fmt.Errorf("failed to decode completion response: %w", err)
	}
	if len(out.Choices) == 0 {
		return Verdict{}, ErrNoChoices
	}

	content := out.Choices[0].Message.Content
	c.logger.Debug("classifier reply received", "model", c.model, "length", len(content))
	return ParseReply(content)
}
