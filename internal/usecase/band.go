package usecase

import (
	"math"

	"github.com/fairyhunter13/ielts-writing-coach/internal/adapter/ai"
	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
)

const (
	// minWordCount is the IELTS Task 2 minimum length.
	minWordCount          = 250
	fallbackBandScore     = 4.0
	fallbackJustification = "Automated assessment failed for this criterion; a provisional score of 4 is shown."
)

// criterionKeys lists accepted payload keys per criterion, preferred first.
var criterionKeys = [4][]string{
	{"task_response", "taskResponse", "task_achievement"},
	{"coherence_cohesion", "coherenceCohesion", "coherence_and_cohesion"},
	{"lexical_resource", "lexicalResource"},
	{"grammar_accuracy", "grammarAccuracy", "grammatical_range_accuracy"},
}

// CalculateOverallBand averages the four criteria and rounds to the nearest
// half band: round(average*2)/2.
func CalculateOverallBand(b domain.BandScores) float64 {
	avg := (b.TaskResponse.Score + b.CoherenceCohesion.Score + b.LexicalResource.Score + b.GrammarAccuracy.Score) / 4
	return math.Round(avg*2) / 2
}

// snapBand clamps v to [0,9] and rounds it to a half band.
func snapBand(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 9 {
		return 9
	}
	return math.Round(v*2) / 2
}

func criterionFrom(p ai.Payload, keys []string) (domain.CriterionScore, bool) {
	for _, k := range keys {
		if obj, ok := p.Object(k); ok {
			if n, ok := obj.Number("score"); ok {
				return domain.CriterionScore{
					Score:         snapBand(n),
					Justification: obj.StringOr("justification", obj.StringOr("feedback", "")),
				}, true
			}
			continue
		}
		if n, ok := p.Number(k); ok {
			return domain.CriterionScore{Score: snapBand(n)}, true
		}
	}
	return domain.CriterionScore{}, false
}

// bandFromAI reads the band response. It reports false unless all four
// criteria carry a numeric score. The overall band is always recomputed.
func bandFromAI(p ai.Payload, wordCount int) (domain.BandScores, bool) {
	var crit [4]domain.CriterionScore
	for i, keys := range criterionKeys {
		c, ok := criterionFrom(p, keys)
		if !ok {
			return domain.BandScores{}, false
		}
		crit[i] = c
	}
	b := domain.BandScores{
		TaskResponse:      crit[0],
		CoherenceCohesion: crit[1],
		LexicalResource:   crit[2],
		GrammarAccuracy:   crit[3],
		Feedback:          p.StringOr("feedback", p.StringOr("overall_feedback", "")),
		WordCountAdequate: wordCount >= minWordCount,
		Source:            domain.SourceAI,
	}
	b.OverallBand = CalculateOverallBand(b)
	return b, true
}

// fallbackBand is the deterministic band result used when the AI stage is unusable.
func fallbackBand(wordCount int) domain.BandScores {
	c := domain.CriterionScore{Score: fallbackBandScore, Justification: fallbackJustification}
	b := domain.BandScores{
		TaskResponse:      c,
		CoherenceCohesion: c,
		LexicalResource:   c,
		GrammarAccuracy:   c,
		OverallBand:       fallbackBandScore,
		Feedback:          "Automated band assessment failed; the scores shown are provisional.",
		WordCountAdequate: wordCount >= minWordCount,
		Source:            domain.SourceFallback,
	}
	if !b.WordCountAdequate {
		b.Feedback += " The essay is under the 250-word minimum, which lowers the Task Response score."
	}
	return b
}
