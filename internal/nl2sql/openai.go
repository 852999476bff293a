package nl2sql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sqlask/sqlask/internal/observability"
)

type OpenAIConfig struct {
	BaseURL               string
	APIKey                string
	Model                 string
	Dialect               string
	ClassifyTemperature   float64
	SynthesizeTemperature float64
	MaxTokens             int
	Timeout               time.Duration
	HTTPClient            *http.Client
	Logger                *slog.Logger
}

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint and
// implements both Classifier and Synthesizer. It never retries a request.
type OpenAIClient struct {
	baseURL               string
	apiKey                string
	model                 string
	dialect               string
	classifyTemperature   float64
	synthesizeTemperature float64
	maxTokens             int
	client                *http.Client
	logger                *slog.Logger
}

var (
	_ Classifier  = (*OpenAIClient)(nil)
	_ Synthesizer = (*OpenAIClient)(nil)
)

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-4o"
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 300
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &OpenAIClient{
		baseURL:               strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:                strings.TrimSpace(cfg.APIKey),
		model:                 model,
		dialect:               strings.TrimSpace(cfg.Dialect),
		classifyTemperature:   cfg.ClassifyTemperature,
		synthesizeTemperature: cfg.SynthesizeTemperature,
		maxTokens:             maxTokens,
		client:                client,
		logger:                logger,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Temperature    float64             `json:"temperature"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

// complete performs one chat completion and returns the first choice's
// content. Every failure is a transport failure from the caller's view.
func (c *OpenAIClient) complete(ctx context.Context, call string, payload chatRequest) (string, error) {
	start := time.Now()
	content, err := c.doComplete(ctx, payload)
	elapsed := time.Since(start)
	observability.ObserveLLMRequest(call, err, elapsed)

	logger := observability.LoggerFromContext(ctx, c.logger)
	if err != nil {
		logger.Error("chat completion failed",
			slog.String("call", call),
			slog.String("model", c.model),
			slog.String("duration", elapsed.String()),
			slog.Any("error", err),
		)
		return "", err
	}
	logger.Debug("chat completion",
		slog.String("call", call),
		slog.String("model", c.model),
		slog.String("duration", elapsed.String()),
		slog.Int("reply_bytes", len(content)),
	)
	return content, nil
}

func (c *OpenAIClient) doComplete(ctx context.Context, payload chatRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request chat completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("chat completion failed status=%d body=%s", resp.StatusCode, truncate(string(rawRespBody), 512))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return "", fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// stripMarkdownFence removes a surrounding ``` fence with an optional
// language tag.
func stripMarkdownFence(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 && !strings.ContainsAny(trimmed[:newline], "{[") {
		trimmed = trimmed[newline+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
