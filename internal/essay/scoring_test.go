package essay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
	"github.com/fairyhunter13/ielts-writing-coach/pkg/textx"
)

func sentence(s string) domain.Sentence {
	return domain.Sentence{Text: s, EndIndex: len(s), WordCount: textx.WordCount(s)}
}

func TestClamp01(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 1.0, Clamp01(1.7))
	assert.Equal(t, 0.42, Clamp01(0.42))
}

func TestThesisPatternScore(t *testing.T) {
	t.Parallel()

	lex := DefaultLexicon()
	tests := []struct {
		name string
		in   string
		want float64
		cats int
	}{
		{"no indicators", "The sky is blue today.", 0, 0},
		{"single category", "I believe so.", 0.45, 1},
		{"long sentence bonus", "In my opinion the government ought to invest far more money in public transport systems across every major city.", 0.7, 2},
		{"capped at one", "I believe we should support better policies because they help.", 1.0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, cats := lex.ThesisPatternScore(sentence(tt.in))
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Len(t, cats, tt.cats)
		})
	}
}

func TestHasTransition_Positional(t *testing.T) {
	t.Parallel()

	lex := DefaultLexicon()
	assert.True(t, lex.HasTransition("Firstly, cars pollute.", 0))
	assert.False(t, lex.HasTransition("Moreover, cars pollute.", 0))
	assert.True(t, lex.HasTransition("Moreover, cars pollute.", 1))
	assert.False(t, lex.HasTransition("Firstly, cars pollute.", 1))
	// paragraphs beyond the second reuse the subsequent table
	assert.True(t, lex.HasTransition("Thirdly, cars pollute.", 4))
	assert.True(t, lex.HasTransition("However, cars pollute.", 0))
	assert.True(t, lex.HasTransition("However, cars pollute.", 3))
}

func TestOverallConclusionScore_ThesisOverlapRaisesScore(t *testing.T) {
	t.Parallel()

	lex := DefaultLexicon()
	thesis := sentence("I believe cats should be adopted more because they reduce loneliness.")
	s := sentence("In conclusion, cats reduce loneliness and should be adopted more.")

	without, a0 := lex.OverallConclusionScore(s, false, false, nil)
	with, a1 := lex.OverallConclusionScore(s, false, false, &thesis)

	assert.InDelta(t, 0.75, without, 1e-9)
	assert.False(t, a0.RestatesThesis)
	assert.InDelta(t, 0.99, with, 1e-9)
	assert.True(t, a1.RestatesThesis)
	assert.Equal(t, []string{"summary"}, a1.MatchedCategories)
}

func TestParagraphConclusionScore(t *testing.T) {
	t.Parallel()

	lex := DefaultLexicon()
	first := sentence("Students enjoy games.")
	got, a := lex.ParagraphConclusionScore(sentence("Therefore, students must set clear limits on device use."), first)
	assert.InDelta(t, 0.7, got, 1e-9)
	assert.True(t, a.SharesTopicKeyword)
	assert.Equal(t, []string{"causal"}, a.MatchedCategories)
}

func TestKeywords(t *testing.T) {
	t.Parallel()

	lex := DefaultLexicon()
	assert.Equal(t,
		[]string{"believe", "cats", "adopted", "reduce", "loneliness"},
		lex.Keywords("I believe cats should be adopted more because they reduce loneliness. Cats!"))
	assert.Empty(t, lex.Keywords("It is so."))
	assert.InDelta(t, 0.0, lex.KeywordOverlap("", "anything here"), 1e-9)
	assert.True(t, lex.SharesKeyword("Cities grow quickly.", "Growing cities need planning."))
}
