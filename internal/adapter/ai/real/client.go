// Package real implements the AI text generator against an OpenAI-compatible
// chat completions API.
package real

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fairyhunter13/ielts-writing-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ielts-writing-coach/internal/config"
	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
	obsctx "github.com/fairyhunter13/ielts-writing-coach/internal/observability"
)

const (
	provider     = "openai_compatible"
	systemPrompt = "You are an experienced IELTS Writing examiner. Reply with a single JSON object and nothing else."
	// errBodyLimit bounds how much of an error response body is logged.
	errBodyLimit = 512
	// maxBodyBytes bounds the decoded provider response.
	maxBodyBytes = 1 << 20
)

// Client implements domain.TextGenerator. Each Generate is a single attempt;
// callers degrade to rule-based results instead of retrying.
type Client struct {
	cfg config.Config
	hc  *http.Client
}

var _ domain.TextGenerator = (*Client)(nil)

// New constructs a client whose HTTP timeout is the configured per-call AI timeout.
func New(cfg config.Config) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("AI %s %s", r.Method, r.URL.Host)
		}),
	)
	return &Client{cfg: cfg, hc: &http.Client{Timeout: cfg.AICallTimeoutFor(), Transport: transport}}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// readSnippet reads up to n bytes from r.
func readSnippet(r io.Reader, n int) string {
	if r == nil || n <= 0 {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, int64(n)))
	return string(b)
}

// Generate sends prompt as the user message and returns the first choice's content.
func (c *Client) Generate(ctx domain.Context, prompt string) (string, error) {
	if c.cfg.AIAPIKey == "" {
		return "", fmt.Errorf("%w: AI_API_KEY missing", domain.ErrInvalidArgument)
	}
	ctx, span := otel.Tracer("ai.real").Start(ctx, "ai.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("ai.model", c.cfg.AIModel), attribute.Int("ai.prompt_chars", len(prompt)))

	out, err := c.call(ctx, prompt)
	outcome := "success"
	if err != nil {
		outcome = "failure"
		if errors.Is(err, domain.ErrUpstreamTimeout) {
			outcome = "timeout"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	observability.AIRequestsTotal.WithLabelValues(provider, outcome).Inc()
	return out, err
}

func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	lg := obsctx.LoggerFromContext(ctx)
	endpoint := strings.TrimRight(c.cfg.AIBaseURL, "/") + "/chat/completions"
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.AIModel,
		Temperature: c.cfg.AITemperature,
		MaxTokens:   c.cfg.AIMaxTokens,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("op=ai.generate: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("op=ai.generate: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.AIAPIKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	observability.AIRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		if isTimeout(ctx, err) {
			return "", fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", domain.ErrAICall, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		lg.Warn("ai provider non-2xx",
			slog.String("provider", provider),
			slog.Int("status", resp.StatusCode),
			slog.String("model", c.cfg.AIModel),
			slog.String("x_request_id", resp.Header.Get("X-Request-Id")),
			slog.String("body", readSnippet(resp.Body, errBodyLimit)))
		return "", fmt.Errorf("%w: chat status %d", domain.ErrAICall, resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		lg.Warn("ai provider decode error", slog.String("provider", provider), slog.Any("error", err))
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrAICall, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: empty choices", domain.ErrAICall)
	}
	return out.Choices[0].Message.Content, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
