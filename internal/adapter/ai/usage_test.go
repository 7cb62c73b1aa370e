package ai

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func wordTokens(s string) int { return len(strings.Fields(s)) }

func TestUsageCollector_RecordCall(t *testing.T) {
	t.Parallel()

	u := NewUsageCollectorWithCounter(wordTokens, 1.0)
	u.RecordCall("a b c d", "x y", nil)
	u.RecordCall("one two", "ignored response", errors.New("boom"))

	s := u.Snapshot()
	assert.Equal(t, int64(2), s.Requests)
	assert.Equal(t, int64(1), s.Failures)
	assert.Equal(t, int64(6), s.PromptTokens)
	assert.Equal(t, int64(2), s.CompletionTokens)
	assert.InDelta(t, 0.008, s.CostUSD, 1e-9)
}

func TestUsageCollector_Concurrent(t *testing.T) {
	t.Parallel()

	u := NewUsageCollectorWithCounter(nil, 0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.RecordCall("12345678", "1234", nil)
		}()
	}
	wg.Wait()

	s := u.Snapshot()
	assert.Equal(t, int64(50), s.Requests)
	assert.Equal(t, int64(100), s.PromptTokens)
	assert.Equal(t, int64(50), s.CompletionTokens)
	assert.Zero(t, s.CostUSD)
}
