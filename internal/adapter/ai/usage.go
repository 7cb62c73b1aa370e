package ai

import (
	"math"
	"sync/atomic"

	"github.com/fairyhunter13/ielts-writing-coach/internal/adapter/ai/tokencount"
	obsadapter "github.com/fairyhunter13/ielts-writing-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
)

// TokenCounter counts the tokens of a text.
type TokenCounter func(text string) int

// UsageCollector is the process-wide advisory usage tally. It is safe for
// concurrent use; analysis decisions never read it.
type UsageCollector struct {
	requests         atomic.Int64
	failures         atomic.Int64
	promptTokens     atomic.Int64
	completionTokens atomic.Int64
	costMicros       atomic.Int64

	costPer1K float64
	count     TokenCounter
}

var _ domain.UsageRecorder = (*UsageCollector)(nil)

// NewUsageCollector counts tokens with tiktoken for model.
func NewUsageCollector(model string, costPer1K float64) *UsageCollector {
	return NewUsageCollectorWithCounter(func(text string) int {
		return tokencount.DefaultCounter.Estimate(text, model)
	}, costPer1K)
}

// NewUsageCollectorWithCounter uses count for token estimates. A nil count
// falls back to four bytes per token.
func NewUsageCollectorWithCounter(count TokenCounter, costPer1K float64) *UsageCollector {
	if count == nil {
		count = func(text string) int { return len(text) / 4 }
	}
	return &UsageCollector{costPer1K: costPer1K, count: count}
}

// RecordCall tallies one generation call. Failed calls count the prompt only.
func (u *UsageCollector) RecordCall(prompt, response string, err error) {
	u.requests.Add(1)
	pt := int64(u.count(prompt))
	var ct int64
	if err != nil {
		u.failures.Add(1)
	} else {
		ct = int64(u.count(response))
	}
	u.promptTokens.Add(pt)
	u.completionTokens.Add(ct)
	u.costMicros.Add(int64(math.Round(float64(pt+ct) / 1000 * u.costPer1K * 1e6)))

	obsadapter.AITokensTotal.WithLabelValues("prompt").Add(float64(pt))
	obsadapter.AITokensTotal.WithLabelValues("completion").Add(float64(ct))
}

// UsageSnapshot is a point-in-time copy of the counters.
type UsageSnapshot struct {
	Requests         int64   `json:"requests"`
	Failures         int64   `json:"failures"`
	PromptTokens     int64   `json:"prompt_tokens"`
	CompletionTokens int64   `json:"completion_tokens"`
	CostUSD          float64 `json:"cost_usd"`
}

// Snapshot returns the current counters. Fields are read independently.
func (u *UsageCollector) Snapshot() UsageSnapshot {
	return UsageSnapshot{
		Requests:         u.requests.Load(),
		Failures:         u.failures.Load(),
		PromptTokens:     u.promptTokens.Load(),
		CompletionTokens: u.completionTokens.Load(),
		CostUSD:          float64(u.costMicros.Load()) / 1e6,
	}
}
