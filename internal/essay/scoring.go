package essay

import (
	"strings"
	"unicode"

	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
)

// Scoring weights. Each heuristic is base + sum of matched contributions, clamped to [0,1].
const (
	thesisPatternBase     = 0.3
	thesisPerCategory     = 0.15
	thesisLongBonus       = 0.1
	thesisLongWords       = 15
	topicBase             = 0.5
	topicTransitionBonus  = 0.2
	topicPerCategory      = 0.15
	topicLongBonus        = 0.1
	topicLongWords        = 12
	topicCommaBonus       = 0.05
	paraConclusionBase    = 0.4
	paraConclusionPerCat  = 0.15
	paraConclusionKeyword = 0.1
	paraConclusionLong    = 0.1
	paraConclusionWords   = 10
	paraConclusionComma   = 0.05
	overallBase           = 0.5
	overallFirstBonus     = 0.1
	overallLastBonus      = 0.2
	overallPerCategory    = 0.15
	overallOverlapWeight  = 0.3
	overallRecommendation = 0.1
	minKeywordLen         = 3
)

// Clamp01 limits v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ThesisPatternScore scores a sentence against the thesis indicators.
// It returns 0 and no categories when nothing matches.
func (l *Lexicon) ThesisPatternScore(s domain.Sentence) (float64, []string) {
	cats := matched(l.Thesis, s.Text)
	if len(cats) == 0 {
		return 0, nil
	}
	score := thesisPatternBase + thesisPerCategory*float64(len(cats))
	if score > 1 {
		score = 1
	}
	if s.WordCount > thesisLongWords {
		score += thesisLongBonus
	}
	return Clamp01(score), cats
}

// HasTransition reports whether s contains a connector suitable for the
// body paragraph at the given 0-based ordinal. Ordinal 0 uses the first-position
// table; every later paragraph shares the subsequent-position table.
func (l *Lexicon) HasTransition(s string, bodyOrdinal int) bool {
	positional := &l.Transitions.First
	if bodyOrdinal > 0 {
		positional = &l.Transitions.Subsequent
	}
	return positional.Match(s) || l.Transitions.Contrast.Match(s)
}

// TopicSentenceScore is the heuristic score of s as a topic sentence.
func (l *Lexicon) TopicSentenceScore(s domain.Sentence, bodyOrdinal int) (float64, domain.CandidateAnalysis) {
	var a domain.CandidateAnalysis
	score := topicBase
	if l.HasTransition(s.Text, bodyOrdinal) {
		a.HasTransition = true
		score += topicTransitionBonus
	}
	a.MatchedCategories = matched(l.Topic, s.Text)
	score += topicPerCategory * float64(len(a.MatchedCategories))
	if s.WordCount > topicLongWords {
		score += topicLongBonus
	}
	if strings.Contains(s.Text, ",") {
		score += topicCommaBonus
	}
	return Clamp01(score), a
}

// ParagraphConclusionScore is the heuristic score of last as the closing
// sentence of a paragraph whose first sentence is first.
func (l *Lexicon) ParagraphConclusionScore(last, first domain.Sentence) (float64, domain.CandidateAnalysis) {
	var a domain.CandidateAnalysis
	score := paraConclusionBase
	a.MatchedCategories = matched(l.Conclusion, last.Text)
	score += paraConclusionPerCat * float64(len(a.MatchedCategories))
	if l.SharesKeyword(first.Text, last.Text) {
		a.SharesTopicKeyword = true
		score += paraConclusionKeyword
	}
	if last.WordCount > paraConclusionWords {
		score += paraConclusionLong
	}
	if strings.Contains(last.Text, ",") {
		score += paraConclusionComma
	}
	return Clamp01(score), a
}

// OverallConclusionScore scores a sentence of the concluding paragraph. thesis may be nil.
func (l *Lexicon) OverallConclusionScore(s domain.Sentence, isFirst, isLast bool, thesis *domain.Sentence) (float64, domain.CandidateAnalysis) {
	var a domain.CandidateAnalysis
	score := overallBase
	if isFirst {
		score += overallFirstBonus
	}
	if isLast {
		score += overallLastBonus
	}
	a.MatchedCategories = matched(l.Conclusion, s.Text)
	score += overallPerCategory * float64(len(a.MatchedCategories))
	if thesis != nil {
		a.ThesisOverlap = l.KeywordOverlap(thesis.Text, s.Text)
		a.RestatesThesis = a.ThesisOverlap > 0
		score += a.ThesisOverlap * overallOverlapWeight
	}
	if l.Recommendation.Match(s.Text) {
		a.HasRecommendation = true
		score += overallRecommendation
	}
	return Clamp01(score), a
}

// Keywords returns the distinct lower-cased tokens of s longer than three
// characters that are not stop words, in first-occurrence order.
func (l *Lexicon) Keywords(s string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	seen := make(map[string]struct{}, len(tokens))
	var out []string
	for _, t := range tokens {
		t = strings.Trim(t, "'")
		if len([]rune(t)) <= minKeywordLen || l.IsStopWord(t) {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// KeywordOverlap is |keywords(thesis) ∩ keywords(s)| / |keywords(thesis)|.
func (l *Lexicon) KeywordOverlap(thesis, s string) float64 {
	tk := l.Keywords(thesis)
	if len(tk) == 0 {
		return 0
	}
	sk := make(map[string]struct{})
	for _, k := range l.Keywords(s) {
		sk[k] = struct{}{}
	}
	shared := 0
	for _, k := range tk {
		if _, ok := sk[k]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(tk))
}

// SharesKeyword reports whether a and b have at least one keyword in common.
func (l *Lexicon) SharesKeyword(a, b string) bool {
	return l.KeywordOverlap(a, b) > 0
}
