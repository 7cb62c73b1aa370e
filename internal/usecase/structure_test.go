package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ielts-writing-coach/internal/adapter/ai"
	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
	"github.com/fairyhunter13/ielts-writing-coach/internal/essay"
)

func detectTestEssay(t *testing.T) (domain.Essay, domain.CandidateSet) {
	t.Helper()
	e := essay.Segment(testEssay)
	set := essay.NewDetector(nil).Detect(e)
	require.NotEmpty(t, set.Hook)
	return e, set
}

func TestFallbackStructure(t *testing.T) {
	e, set := detectTestEssay(t)
	s := fallbackStructure(e, set)

	assert.Equal(t, domain.SourceFallback, s.Source)
	assert.True(t, s.Hook.Found)
	assert.Equal(t, domain.ScoreNeedsWork, s.Hook.Score)
	assert.Contains(t, s.Hook.Feedback, set.Hook[0].Reason)
	require.Len(t, s.TopicSentences, 1)
	require.NotNil(t, s.TopicSentences[0].ParagraphIndex)
	assert.Equal(t, 1, *s.TopicSentences[0].ParagraphIndex)

	empty := fallbackStructure(domain.Essay{}, domain.CandidateSet{})
	assert.False(t, empty.OverallConclusion.Found)
	assert.Equal(t, domain.ScorePoor, empty.OverallConclusion.Score)
	require.Len(t, empty.ParagraphConclusions, 1)
	assert.False(t, empty.ParagraphConclusions[0].Found)
}

func TestStructureFromAI_Unusable(t *testing.T) {
	e, set := detectTestEssay(t)
	_, ok := structureFromAI(e, set, ai.Payload{"comment": "looks fine"})
	assert.False(t, ok)
}

func TestStructureFromAI_UnknownTextFallsBackToTopCandidate(t *testing.T) {
	e, set := detectTestEssay(t)
	p := ai.Payload{
		"hook":   map[string]any{"text": "A sentence the essay never contains.", "score": "poor", "feedback": "Weak."},
		"thesis": nil,
	}
	s, ok := structureFromAI(e, set, p)
	require.True(t, ok)

	assert.Equal(t, domain.SourceAI, s.Source)
	assert.Equal(t, testHook, s.Hook.Text)
	assert.Equal(t, domain.SourceRules, s.Hook.Source)
	assert.Equal(t, domain.ScorePoor, s.Hook.Score)
	assert.Equal(t, "Weak.", s.Hook.Feedback)

	assert.Equal(t, testThesis, s.Thesis.Text, "null selection keeps the top candidate")
	assert.Equal(t, domain.SourceRules, s.Thesis.Source)
	require.Len(t, s.TopicSentences, 1)
	assert.Equal(t, domain.SourceRules, s.TopicSentences[0].Source)
}

func TestStructureFromAI_SelectionOutsideCandidates(t *testing.T) {
	e, set := detectTestEssay(t)
	pick := "For example, online libraries hold millions of books."
	p := ai.Payload{
		"topic_sentences": []any{map[string]any{"text": "  for example, ONLINE libraries hold millions of books. ", "score": "good"}},
	}
	s, ok := structureFromAI(e, set, p)
	require.True(t, ok)
	require.Len(t, s.TopicSentences, 1)

	el := s.TopicSentences[0]
	assert.Equal(t, pick, el.Text)
	assert.Equal(t, testEssay[el.StartIndex:el.EndIndex], el.Text)
	assert.Equal(t, domain.SourceAI, el.Source)
	assert.Equal(t, domain.ScoreGood, el.Score)
	assert.InDelta(t, aiOnlyConfidence, el.Confidence, 1e-9)
}

func TestQualityOf(t *testing.T) {
	cases := map[string]domain.QualityScore{
		"Excellent":  domain.ScoreExcellent,
		"needs work": domain.ScoreNeedsWork,
		" POOR ":     domain.ScorePoor,
		"amazing":    domain.ScoreNeedsWork,
	}
	for in, want := range cases {
		assert.Equal(t, want, qualityOf(ai.Payload{"score": in}, domain.ScoreNeedsWork), in)
	}
	assert.Equal(t, domain.ScoreGood, qualityOf(ai.Payload{}, domain.ScoreGood))
}
