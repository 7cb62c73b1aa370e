package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ielts-writing-coach/internal/adapter/ai"
	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
)

func TestRelocate_PrefersNearestOccurrence(t *testing.T) {
	text := "Yes. No. Yes. No. Yes."
	at, ok := relocate(text, "Yes.", 12)
	require.True(t, ok)
	assert.Equal(t, 9, at)

	at, ok = relocate(text, "Yes.", 0)
	require.True(t, ok)
	assert.Equal(t, 0, at)

	_, ok = relocate(text, "Maybe.", 0)
	assert.False(t, ok)
}

func TestAnnotationsFromAI(t *testing.T) {
	p := ai.Payload{"annotations": []any{
		map[string]any{"text": "Yes.", "start_index": 0.0, "end_index": 4.0, "type": "good", "element": "hook"},
		map[string]any{"text": " No. ", "start_index": 100.0, "end_index": 105.0, "element": "thesis"},
		map[string]any{"text": "Yes.", "element": "paragraph"},
		map[string]any{"element": "hook"},
		"not an object",
	}}
	text := "Yes. No. Yes."
	anns, dropped := annotationsFromAI(text, p)

	require.Len(t, anns, 2)
	assert.Equal(t, 2, dropped)
	assert.Equal(t, domain.AnnotationGood, anns[0].Type)
	assert.Equal(t, "No.", anns[1].Text)
	assert.Equal(t, 5, anns[1].StartIndex)
	assert.Equal(t, domain.AnnotationNeedsWork, anns[1].Type)
	assertAnnotationsAligned(t, text, anns)
}

func TestLiteralAnnotations(t *testing.T) {
	text := "Cats are useful.  I believe cats help."
	elements := []domain.ElementAnalysis{
		{Role: domain.RoleHook, Found: true, Text: "Cats are useful.", StartIndex: 0, EndIndex: 16, Score: domain.ScoreExcellent},
		{Role: domain.RoleThesis, Found: true, Text: "I believe cats help.", StartIndex: 1, EndIndex: 2, Score: domain.ScorePoor},
		{Role: domain.RoleThesis, Found: true, Text: "I  believe", Score: domain.ScoreGood},
	}
	anns, dropped := literalAnnotations(text, elements)

	require.Len(t, anns, 2)
	assert.Equal(t, 1, dropped)
	assert.Equal(t, domain.AnnotationGood, anns[0].Type)
	assert.Equal(t, domain.AnnotationError, anns[1].Type)
	assert.Equal(t, 18, anns[1].StartIndex)
	assertAnnotationsAligned(t, text, anns)
}

func TestAnnotationTargets(t *testing.T) {
	s := domain.StructuralAnalysis{
		Hook:   domain.ElementAnalysis{Role: domain.RoleHook},
		Thesis: domain.ElementAnalysis{Role: domain.RoleThesis, Found: true, Text: "I agree."},
	}
	got := annotationTargets(s)
	require.Len(t, got, 1)
	assert.Equal(t, domain.RoleThesis, got[0].Role)
	assert.Empty(t, annotationTargets(domain.StructuralAnalysis{}))
}
