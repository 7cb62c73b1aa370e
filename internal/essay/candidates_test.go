package essay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
)

func detect(text string) domain.CandidateSet {
	return NewDetector(nil).Detect(Segment(text))
}

func TestDetect_EmptyEssay(t *testing.T) {
	t.Parallel()

	set := detect("")
	for _, r := range domain.Roles {
		assert.Empty(t, set.ForRole(r), "role %s", r)
	}
}

func TestDetect_FullEssay(t *testing.T) {
	t.Parallel()

	set := detect(sampleEssay)

	require.Len(t, set.Hook, 1)
	assert.Equal(t, "Many people debate whether technology helps students.", set.Hook[0].Text)
	assert.InDelta(t, 0.9, set.Hook[0].Confidence, 1e-9)

	require.Len(t, set.Thesis, 1)
	assert.Equal(t, "I believe it does more good than harm.", set.Thesis[0].Text)
	assert.InDelta(t, 0.9, set.Thesis[0].Confidence, 1e-9)
	assert.Equal(t, []string{"opinion"}, set.Thesis[0].Analysis.MatchedCategories)

	require.Len(t, set.TopicSentences, 3)
	assert.Equal(t, "However, the main problem is distraction, which reduces focus in class.", set.TopicSentences[0].Text)
	assert.Equal(t, "stronger topic indicators", set.TopicSentences[0].Reason)
	assert.InDelta(t, 1.0, set.TopicSentences[0].Confidence, 1e-9)
	assert.True(t, set.TopicSentences[0].Analysis.HasTransition)
	assert.Equal(t, "Firstly, technology gives students access to many resources.", set.TopicSentences[1].Text)
	assert.InDelta(t, 0.75, set.TopicSentences[1].Confidence, 1e-9)
	assert.Equal(t, "Students enjoy games.", set.TopicSentences[2].Text)
	assert.InDelta(t, 0.75, set.TopicSentences[2].Confidence, 1e-9)

	require.Len(t, set.ParagraphConclusions, 2)
	assert.Equal(t, "Therefore, students must set clear limits on device use.", set.ParagraphConclusions[0].Text)
	assert.InDelta(t, 0.7, set.ParagraphConclusions[0].Confidence, 1e-9)
	assert.True(t, set.ParagraphConclusions[0].Analysis.SharesTopicKeyword)
	assert.Equal(t, "This shows that learning becomes easier.", set.ParagraphConclusions[1].Text)
	assert.InDelta(t, 0.6, set.ParagraphConclusions[1].Confidence, 1e-9)

	require.Len(t, set.OverallConclusion, 1)
	assert.InDelta(t, 0.95, set.OverallConclusion[0].Confidence, 1e-9)
	require.NotNil(t, set.OverallConclusion[0].ParagraphIndex)
	assert.Equal(t, 3, *set.OverallConclusion[0].ParagraphIndex)
}

func TestDetect_ListsAreRankedAndWithinBounds(t *testing.T) {
	t.Parallel()

	set := detect(sampleEssay)
	for _, r := range domain.Roles {
		list := set.ForRole(r)
		seen := map[int]bool{}
		for i, c := range list {
			assert.Equal(t, r, c.Role)
			assert.GreaterOrEqual(t, c.Confidence, 0.0)
			assert.LessOrEqual(t, c.Confidence, 1.0)
			assert.False(t, seen[c.Index], "duplicate sentence %d in %s", c.Index, r)
			seen[c.Index] = true
			assert.Equal(t, sampleEssay[c.StartIndex:c.EndIndex], c.Text)
			if i > 0 {
				assert.GreaterOrEqual(t, list[i-1].Confidence, c.Confidence, "role %s not sorted", r)
			}
		}
	}
}

func TestDetect_ConclusionRestatesThesis(t *testing.T) {
	t.Parallel()

	text := "Cats are useful. I believe cats should be adopted more because they reduce loneliness.\n\n" +
		"In conclusion, cats reduce loneliness and should be adopted more."
	set := detect(text)

	require.NotEmpty(t, set.Thesis)
	assert.Equal(t, "I believe cats should be adopted more because they reduce loneliness.", set.Thesis[0].Text)
	assert.Empty(t, set.TopicSentences)
	assert.Empty(t, set.ParagraphConclusions)

	require.Len(t, set.OverallConclusion, 1)
	c := set.OverallConclusion[0]
	assert.Greater(t, c.Confidence, 0.6)
	assert.True(t, c.Analysis.RestatesThesis)
	assert.InDelta(t, 0.8, c.Analysis.ThesisOverlap, 1e-9)
	assert.True(t, c.Analysis.HasRecommendation)
	assert.Contains(t, c.Reason, "restates thesis")
}

func TestDetect_ThesisPositions(t *testing.T) {
	t.Parallel()

	set := detect("Tourism is growing fast. Some say it harms local culture. This essay will discuss both views.")
	require.Len(t, set.Thesis, 2)
	assert.Equal(t, "This essay will discuss both views.", set.Thesis[0].Text)
	assert.InDelta(t, 0.9, set.Thesis[0].Confidence, 1e-9)
	assert.Equal(t, "Some say it harms local culture.", set.Thesis[1].Text)
	assert.InDelta(t, 0.7, set.Thesis[1].Confidence, 1e-9)
}

func TestDetect_HookFallsBackPastEmptyIntroduction(t *testing.T) {
	t.Parallel()

	set := detect("...\n\nReal sentence here.")
	require.Len(t, set.Hook, 1)
	assert.Equal(t, "Real sentence here.", set.Hook[0].Text)
	assert.InDelta(t, 0.8, set.Hook[0].Confidence, 1e-9)
	assert.Equal(t, "first sentence of essay", set.Hook[0].Reason)
	assert.Empty(t, set.Thesis)
}

func TestRank_MergesDuplicates(t *testing.T) {
	t.Parallel()

	s1 := domain.Sentence{Text: "a.", Index: 1}
	s2 := domain.Sentence{Text: "b.", Index: 2}
	low := newCandidate(s1, domain.RoleThesis, 0.4, "pattern", 0)
	low.Analysis.MatchedCategories = []string{"opinion"}
	high := newCandidate(s1, domain.RoleThesis, 0.9, "position", 0)
	other := newCandidate(s2, domain.RoleThesis, 0.9, "position", 0)

	out := rank([]domain.Candidate{other, low, high})
	require.Len(t, out, 2)
	assert.Equal(t, 1, out[0].Index, "ties keep text order")
	assert.InDelta(t, 0.9, out[0].Confidence, 1e-9)
	assert.Equal(t, []string{"opinion"}, out[0].Analysis.MatchedCategories)
	assert.Equal(t, 2, out[1].Index)

	assert.Nil(t, rank(nil))
}
