package essay

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
)

// Fixed positional confidences.
const (
	hookIntroConfidence         = 0.9
	hookFallbackConfidence      = 0.8
	thesisLastConfidence        = 0.9
	thesisPenultConfidence      = 0.7
	topicFirstMinConfidence     = 0.75
	paraConclusionMinConfidence = 0.6
)

// Detector proposes ranked structural candidates using only the lexicon.
type Detector struct {
	lex *Lexicon
}

// NewDetector returns a Detector. A nil lexicon selects the embedded default.
func NewDetector(lex *Lexicon) *Detector {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Detector{lex: lex}
}

// Lexicon returns the lexicon the detector scores with.
func (d *Detector) Lexicon() *Lexicon { return d.lex }

// Detect returns the candidate lists for every role. Each list is sorted by
// confidence descending; ties keep text order.
func (d *Detector) Detect(e domain.Essay) domain.CandidateSet {
	var set domain.CandidateSet
	set.Hook = d.hooks(e)
	set.Thesis = d.theses(e)
	set.TopicSentences = d.topicSentences(e)
	set.ParagraphConclusions = d.paragraphConclusions(e)
	var thesis *domain.Sentence
	if len(set.Thesis) > 0 {
		thesis = &set.Thesis[0].Sentence
	}
	set.OverallConclusion = d.overallConclusions(e, thesis)
	return set
}

func (d *Detector) hooks(e domain.Essay) []domain.Candidate {
	if len(e.Paragraphs) > 0 && len(e.Paragraphs[0].Sentences) > 0 {
		s := e.Paragraphs[0].Sentences[0]
		return []domain.Candidate{newCandidate(s, domain.RoleHook, hookIntroConfidence, "first sentence of introduction", 0)}
	}
	// Paragraph structure is unusable; fall back to the first sentence anywhere.
	for _, p := range e.Paragraphs {
		if len(p.Sentences) > 0 {
			return []domain.Candidate{newCandidate(p.Sentences[0], domain.RoleHook, hookFallbackConfidence, "first sentence of essay", p.Index)}
		}
	}
	return nil
}

func (d *Detector) theses(e domain.Essay) []domain.Candidate {
	if len(e.Paragraphs) == 0 || e.Paragraphs[0].Type != domain.ParagraphIntroduction {
		return nil
	}
	intro := e.Paragraphs[0]
	n := len(intro.Sentences)
	if n == 0 {
		return nil
	}
	var out []domain.Candidate
	out = append(out, newCandidate(intro.Sentences[n-1], domain.RoleThesis, thesisLastConfidence, "last sentence of introduction", intro.Index))
	if n > 2 {
		out = append(out, newCandidate(intro.Sentences[n-2], domain.RoleThesis, thesisPenultConfidence, "second-to-last sentence of introduction", intro.Index))
	}
	for _, s := range intro.Sentences {
		score, cats := d.lex.ThesisPatternScore(s)
		if len(cats) == 0 {
			continue
		}
		c := newCandidate(s, domain.RoleThesis, score, "matches thesis indicators: "+strings.Join(cats, ", "), intro.Index)
		c.Analysis.MatchedCategories = cats
		out = append(out, c)
	}
	return rank(out)
}

func (d *Detector) topicSentences(e domain.Essay) []domain.Candidate {
	var out []domain.Candidate
	ordinal := 0
	for _, p := range e.Paragraphs {
		if p.Type != domain.ParagraphBody {
			continue
		}
		bodyOrdinal := ordinal
		ordinal++
		if len(p.Sentences) == 0 {
			continue
		}
		first := p.Sentences[0]
		h1, a1 := d.lex.TopicSentenceScore(first, bodyOrdinal)
		c := newCandidate(first, domain.RoleTopicSentence, max(topicFirstMinConfidence, h1), "first sentence of body paragraph", p.Index)
		c.Analysis = a1
		out = append(out, c)
		if len(p.Sentences) >= 2 {
			second := p.Sentences[1]
			h2, a2 := d.lex.TopicSentenceScore(second, bodyOrdinal)
			if h2 > h1 {
				alt := newCandidate(second, domain.RoleTopicSentence, h2, "stronger topic indicators", p.Index)
				alt.Analysis = a2
				out = append(out, alt)
			}
		}
	}
	return rank(out)
}

func (d *Detector) paragraphConclusions(e domain.Essay) []domain.Candidate {
	var out []domain.Candidate
	for _, p := range e.Paragraphs {
		if p.Type != domain.ParagraphBody || len(p.Sentences) < 2 {
			continue
		}
		first, last := p.Sentences[0], p.Sentences[len(p.Sentences)-1]
		h, a := d.lex.ParagraphConclusionScore(last, first)
		c := newCandidate(last, domain.RoleParagraphConclusion, max(paraConclusionMinConfidence, h), "last sentence of body paragraph", p.Index)
		c.Analysis = a
		out = append(out, c)
	}
	return rank(out)
}

func (d *Detector) overallConclusions(e domain.Essay, thesis *domain.Sentence) []domain.Candidate {
	target := conclusionParagraph(e)
	if target == nil {
		return nil
	}
	all := e.Sentences()
	lastIdx := -1
	if len(all) > 0 {
		lastIdx = all[len(all)-1].Index
	}
	var out []domain.Candidate
	for i, s := range target.Sentences {
		isFirst, isLast := i == 0, s.Index == lastIdx
		score, a := d.lex.OverallConclusionScore(s, isFirst, isLast, thesis)
		c := newCandidate(s, domain.RoleOverallConclusion, score, conclusionReason(isFirst, isLast, a), target.Index)
		c.Analysis = a
		out = append(out, c)
	}
	return rank(out)
}

// conclusionParagraph returns the paragraph typed conclusion, else the last paragraph.
func conclusionParagraph(e domain.Essay) *domain.Paragraph {
	for i := range e.Paragraphs {
		if e.Paragraphs[i].Type == domain.ParagraphConclusion {
			return &e.Paragraphs[i]
		}
	}
	if n := len(e.Paragraphs); n > 0 {
		return &e.Paragraphs[n-1]
	}
	return nil
}

func conclusionReason(isFirst, isLast bool, a domain.CandidateAnalysis) string {
	parts := []string{"sentence of conclusion paragraph"}
	if isFirst {
		parts = append(parts, "opens the paragraph")
	}
	if isLast {
		parts = append(parts, "closes the essay")
	}
	if len(a.MatchedCategories) > 0 {
		parts = append(parts, "conclusion indicators: "+strings.Join(a.MatchedCategories, ", "))
	}
	if a.RestatesThesis {
		parts = append(parts, fmt.Sprintf("restates thesis (%.0f%% keyword overlap)", a.ThesisOverlap*100))
	}
	return strings.Join(parts, "; ")
}

func newCandidate(s domain.Sentence, role domain.Role, confidence float64, reason string, paragraph int) domain.Candidate {
	p := paragraph
	return domain.Candidate{
		Sentence:       s,
		Role:           role,
		Confidence:     Clamp01(confidence),
		Reason:         reason,
		ParagraphIndex: &p,
	}
}

// rank merges duplicates of the same sentence (keeping the highest confidence)
// and orders by confidence descending, stable on text order.
func rank(cands []domain.Candidate) []domain.Candidate {
	if len(cands) == 0 {
		return nil
	}
	pos := make(map[int]int, len(cands))
	out := make([]domain.Candidate, 0, len(cands))
	for _, c := range cands {
		if i, ok := pos[c.Index]; ok {
			if c.Confidence > out[i].Confidence {
				c.Analysis.MatchedCategories = mergeNames(c.Analysis.MatchedCategories, out[i].Analysis.MatchedCategories)
				out[i] = c
			} else {
				out[i].Analysis.MatchedCategories = mergeNames(out[i].Analysis.MatchedCategories, c.Analysis.MatchedCategories)
			}
			continue
		}
		pos[c.Index] = len(out)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

func mergeNames(a, b []string) []string {
	for _, n := range b {
		found := false
		for _, m := range a {
			if m == n {
				found = true
				break
			}
		}
		if !found {
			a = append(a, n)
		}
	}
	return a
}
