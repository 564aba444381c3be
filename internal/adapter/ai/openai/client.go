// Package openai implements the AI client against an OpenAI-compatible
// chat-completions API.
package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"log/slog"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/meeting-summarizer/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/meeting-summarizer/internal/adapter/observability"
	"github.com/fairyhunter13/meeting-summarizer/internal/config"
	"github.com/fairyhunter13/meeting-summarizer/internal/domain"
	"github.com/fairyhunter13/meeting-summarizer/internal/resilience"
)

// Client implements domain.AIClient over HTTP.
type Client struct {
	cfg     config.Config
	prompts *config.PromptConfig
	hc      *http.Client
	policy  resilience.Policy
	timeout time.Duration
	stats   *observability.CallStats
	tokens  *tokencount.Counter
}

// New constructs a client. Per-call deadlines come from the timeout guard,
// so the http.Client itself carries no timeout.
func New(cfg config.Config, prompts *config.PromptConfig, stats *observability.CallStats) *Client {
	maxAttempts, baseDelay := cfg.AIRetry()
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("AI %s %s", r.Method, r.URL.Host)
		}),
	)
	return &Client{
		cfg:     cfg,
		prompts: prompts,
		hc:      &http.Client{Transport: transport},
		policy:  resilience.Policy{MaxAttempts: maxAttempts, BaseDelay: baseDelay, Jitter: cfg.RetryJitter},
		timeout: cfg.AITimeout,
		stats:   stats,
		tokens:  tokencount.NewCounter(),
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// GenerateSummary builds a single-message completion request and runs it
// under the timeout guard inside the retry engine. A 2xx response with an
// empty completion is a validation fault and is never retried.
func (c *Client) GenerateSummary(ctx domain.Context, transcript, customPrompt string, opts domain.SummarizeOptions) (domain.Summary, error) {
	if c.cfg.OpenAIAPIKey == "" {
		slog.Error("AI provider API key missing")
		return domain.Summary{}, fmt.Errorf("%w: OPENAI_API_KEY missing", domain.ErrInvalidArgument)
	}

	model := opts.Model
	if model == "" {
		model = c.cfg.ChatModel
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = c.cfg.Temperature
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}
	systemPrompt := c.prompts.Resolve(customPrompt)

	body := map[string]any{
		"model":       model,
		"temperature": temperature,
		"max_tokens":  maxTokens,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": transcript},
		},
	}
	b, _ := json.Marshal(body)

	promptEst := c.tokens.Count(systemPrompt+transcript, model)
	slog.Info("calling AI provider",
		slog.String("model", model),
		slog.Int("max_tokens", maxTokens),
		slog.Int("prompt_tokens_est", promptEst))

	onAttempt := func(index int, latency time.Duration, err error) {
		c.stats.RecordAttempt(index, latency, err)
		outcome := "success"
		if err != nil {
			outcome = "failure"
		}
		observability.AIRequestsTotal.WithLabelValues("chat", outcome).Inc()
		observability.AIRequestDuration.WithLabelValues("chat").Observe(latency.Seconds())
		if index > 0 {
			observability.RetriesTotal.WithLabelValues("ai_chat").Inc()
		}
	}

	out, err := resilience.Do(ctx, c.policy, onAttempt, func(ctx domain.Context) (chatResponse, error) {
		return resilience.WithTimeout(ctx, c.timeout, func(ctx domain.Context) (chatResponse, error) {
			return c.callOnce(ctx, b, model)
		})
	})
	if err != nil {
		slog.Error("AI provider failed after retries", slog.String("model", model), slog.Any("error", err))
		return domain.Summary{}, fmt.Errorf("ai chat completion: %w", err)
	}

	content := out.Choices[0].Message.Content
	c.stats.AddTokens(out.Usage.TotalTokens)
	observability.AITokensTotal.Add(float64(out.Usage.TotalTokens))
	slog.Info("AI provider call successful",
		slog.String("model", model),
		slog.Int("total_tokens", out.Usage.TotalTokens),
		slog.Int("content_length", len(content)))

	return domain.Summary{
		Content:     content,
		Model:       model,
		TokensUsed:  out.Usage.TotalTokens,
		PromptEst:   promptEst,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// callOnce performs exactly one provider round trip. The request is rebuilt
// per attempt so a consumed body is never reused.
func (c *Client) callOnce(ctx domain.Context, reqBody []byte, model string) (chatResponse, error) {
	var out chatResponse
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenAIBaseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return out, err
	}
	r.Header.Set("Authorization", "Bearer "+c.cfg.OpenAIAPIKey)
	r.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(r)
	if err != nil {
		return out, err
	}
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("failed to read provider response body", slog.Any("error", err))
		return out, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(bodyBytes)
		if len(snippet) > 512 {
			snippet = snippet[:512]
		}
		lvl := slog.LevelError
		if resp.StatusCode == 429 || (resp.StatusCode >= 400 && resp.StatusCode < 500) {
			lvl = slog.LevelWarn
		}
		slog.Log(ctx, lvl, "ai provider non-2xx",
			slog.Int("status", resp.StatusCode),
			slog.String("model", model),
			slog.String("x_request_id", resp.Header.Get("X-Request-Id")),
			slog.String("body", snippet))
		return out, &domain.StatusError{Code: resp.StatusCode, Body: snippet}
	}

	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		slog.Error("ai provider decode error", slog.String("model", model), slog.Any("error", err))
		return out, err
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		// Fatal: a 2xx with nothing in it will not improve on retry.
		return out, &domain.ClassifiedError{
			Kind:      domain.KindValidationFault,
			Retryable: false,
			Err:       fmt.Errorf("%w: empty completion from provider", domain.ErrInvalidArgument),
		}
	}
	return out, nil
}
