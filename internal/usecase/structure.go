package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ielts-writing-coach/internal/adapter/ai"
	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
)

// Payload keys of the structure response.
const (
	keyHook                 = "hook"
	keyThesis               = "thesis"
	keyTopicSentences       = "topic_sentences"
	keyParagraphConclusions = "paragraph_conclusions"
	keyOverallConclusion    = "overall_conclusion"
)

// aiOnlyConfidence is assigned to a selection the model made outside the candidate lists.
const aiOnlyConfidence = 0.6

var missingFeedback = map[domain.Role]string{
	domain.RoleHook:                "No opening hook was found. Start the introduction with a sentence that introduces the topic and engages the reader.",
	domain.RoleThesis:              "No clear thesis was found. End the introduction with a sentence that states your position.",
	domain.RoleTopicSentence:       "No body paragraphs were found. Develop each main idea in its own paragraph that opens with a topic sentence.",
	domain.RoleParagraphConclusion: "No body paragraph closes with a concluding sentence. Finish each body paragraph by linking its idea back to your position.",
	domain.RoleOverallConclusion:   "No conclusion was found. Finish with a paragraph that restates your position and summarises the main points.",
}

func notFound(role domain.Role, source domain.Source) domain.ElementAnalysis {
	return domain.ElementAnalysis{
		Role:     role,
		Score:    domain.ScorePoor,
		Feedback: missingFeedback[role],
		Source:   source,
	}
}

func fromCandidate(c domain.Candidate, score domain.QualityScore, feedback string, source domain.Source) domain.ElementAnalysis {
	return domain.ElementAnalysis{
		Role:           c.Role,
		Found:          true,
		Text:           c.Text,
		StartIndex:     c.StartIndex,
		EndIndex:       c.EndIndex,
		ParagraphIndex: c.ParagraphIndex,
		Confidence:     c.Confidence,
		Score:          score,
		Feedback:       feedback,
		Source:         source,
	}
}

func fallbackFeedback(c domain.Candidate) string {
	return fmt.Sprintf("Selected automatically (%s). Detailed AI feedback was unavailable for this element.", c.Reason)
}

// fallbackStructure builds the structural result from rule-based candidates only.
func fallbackStructure(e domain.Essay, set domain.CandidateSet) domain.StructuralAnalysis {
	pick := func(role domain.Role, cands []domain.Candidate) domain.ElementAnalysis {
		if len(cands) == 0 {
			return notFound(role, domain.SourceFallback)
		}
		return fromCandidate(cands[0], domain.ScoreNeedsWork, fallbackFeedback(cands[0]), domain.SourceFallback)
	}
	perParagraph := func(role domain.Role, cands []domain.Candidate) []domain.ElementAnalysis {
		var out []domain.ElementAnalysis
		for _, group := range groupByParagraph(e, cands) {
			out = append(out, fromCandidate(group[0], domain.ScoreNeedsWork, fallbackFeedback(group[0]), domain.SourceFallback))
		}
		if len(out) == 0 {
			out = append(out, notFound(role, domain.SourceFallback))
		}
		return out
	}
	return domain.StructuralAnalysis{
		Hook:                 pick(domain.RoleHook, set.Hook),
		Thesis:               pick(domain.RoleThesis, set.Thesis),
		TopicSentences:       perParagraph(domain.RoleTopicSentence, set.TopicSentences),
		ParagraphConclusions: perParagraph(domain.RoleParagraphConclusion, set.ParagraphConclusions),
		OverallConclusion:    pick(domain.RoleOverallConclusion, set.OverallConclusion),
		Feedback:             "Structure was assessed with rule-based heuristics only; AI review was unavailable.",
		Source:               domain.SourceFallback,
	}
}

// groupByParagraph splits ranked candidates by paragraph, in essay order.
// Each group keeps the confidence ranking.
func groupByParagraph(e domain.Essay, cands []domain.Candidate) [][]domain.Candidate {
	by := make(map[int][]domain.Candidate)
	for _, c := range cands {
		if c.ParagraphIndex == nil {
			continue
		}
		by[*c.ParagraphIndex] = append(by[*c.ParagraphIndex], c)
	}
	var out [][]domain.Candidate
	for _, p := range e.Paragraphs {
		if g := by[p.Index]; len(g) > 0 {
			out = append(out, g)
		}
	}
	return out
}

// structureFromAI applies the model's selections. It reports false when the
// payload names none of the structural elements.
func structureFromAI(e domain.Essay, set domain.CandidateSet, p ai.Payload) (domain.StructuralAnalysis, bool) {
	usable := false
	for _, k := range []string{keyHook, keyThesis, keyTopicSentences, keyParagraphConclusions, keyOverallConclusion} {
		if _, ok := p[k]; ok {
			usable = true
			break
		}
	}
	if !usable {
		return domain.StructuralAnalysis{}, false
	}
	return domain.StructuralAnalysis{
		Hook:                 selectSingle(e, domain.RoleHook, set.Hook, p, keyHook),
		Thesis:               selectSingle(e, domain.RoleThesis, set.Thesis, p, keyThesis),
		TopicSentences:       selectPerParagraph(e, domain.RoleTopicSentence, set.TopicSentences, p.Objects(keyTopicSentences)),
		ParagraphConclusions: selectPerParagraph(e, domain.RoleParagraphConclusion, set.ParagraphConclusions, p.Objects(keyParagraphConclusions)),
		OverallConclusion:    selectSingle(e, domain.RoleOverallConclusion, set.OverallConclusion, p, keyOverallConclusion),
		Feedback:             p.StringOr("feedback", ""),
		Source:               domain.SourceAI,
	}, true
}

func qualityOf(p ai.Payload, def domain.QualityScore) domain.QualityScore {
	s, ok := p.String("score")
	if !ok {
		return def
	}
	q := domain.QualityScore(strings.Join(strings.Fields(strings.ToLower(s)), "_"))
	if !q.Valid() {
		return def
	}
	return q
}

func selectSingle(e domain.Essay, role domain.Role, cands []domain.Candidate, p ai.Payload, key string) domain.ElementAnalysis {
	obj, ok := p.Object(key)
	if !ok {
		if len(cands) == 0 {
			return notFound(role, domain.SourceAI)
		}
		return fromCandidate(cands[0], domain.ScoreNeedsWork, cands[0].Reason, domain.SourceRules)
	}
	return applyPick(e, role, cands, obj, nil)
}

// applyPick resolves one model selection. paragraph restricts the match when non-nil.
// A selection that cannot be found in the essay falls back to the top candidate.
func applyPick(e domain.Essay, role domain.Role, cands []domain.Candidate, obj ai.Payload, paragraph *int) domain.ElementAnalysis {
	feedback, _ := obj.String("feedback")
	if text, ok := obj.String("text"); ok {
		if el, ok := locate(e, role, cands, text, paragraph); ok {
			el.Score = qualityOf(obj, domain.ScoreNeedsWork)
			if feedback != "" {
				el.Feedback = feedback
			}
			el.Source = domain.SourceAI
			return el
		}
	}
	if len(cands) == 0 {
		nf := notFound(role, domain.SourceAI)
		if feedback != "" {
			nf.Feedback = feedback
		}
		return nf
	}
	if feedback == "" {
		feedback = cands[0].Reason
	}
	return fromCandidate(cands[0], qualityOf(obj, domain.ScoreNeedsWork), feedback, domain.SourceRules)
}

func selectPerParagraph(e domain.Essay, role domain.Role, cands []domain.Candidate, picks []ai.Payload) []domain.ElementAnalysis {
	byPara := make(map[int]ai.Payload)
	for _, pk := range picks {
		idx, ok := pk.Int("paragraph_index")
		if !ok {
			text, hasText := pk.String("text")
			if !hasText {
				continue
			}
			el, found := locate(e, role, cands, text, nil)
			if !found || el.ParagraphIndex == nil {
				continue
			}
			idx = *el.ParagraphIndex
		}
		if _, dup := byPara[idx]; !dup {
			byPara[idx] = pk
		}
	}

	var out []domain.ElementAnalysis
	for _, group := range groupByParagraph(e, cands) {
		para := *group[0].ParagraphIndex
		if pk, ok := byPara[para]; ok {
			out = append(out, applyPick(e, role, group, pk, &para))
			continue
		}
		out = append(out, fromCandidate(group[0], domain.ScoreNeedsWork, group[0].Reason, domain.SourceRules))
	}
	if len(out) == 0 {
		out = append(out, notFound(role, domain.SourceAI))
	}
	return out
}

// locate maps model text onto the essay: a candidate with the same text, then
// any sentence (exact, then whitespace and case insensitive), then a literal
// substring of the essay.
func locate(e domain.Essay, role domain.Role, cands []domain.Candidate, text string, paragraph *int) (domain.ElementAnalysis, bool) {
	want := strings.TrimSpace(text)
	if want == "" {
		return domain.ElementAnalysis{}, false
	}
	inScope := func(idx int) bool { return paragraph == nil || *paragraph == idx }

	for _, c := range cands {
		if c.Text == want && c.ParagraphIndex != nil && inScope(*c.ParagraphIndex) {
			return fromCandidate(c, "", c.Reason, domain.SourceAI), true
		}
	}
	norm := normalize(want)
	for pass := 0; pass < 2; pass++ {
		for _, p := range e.Paragraphs {
			if !inScope(p.Index) {
				continue
			}
			for _, s := range p.Sentences {
				if (pass == 0 && s.Text == want) || (pass == 1 && normalize(s.Text) == norm) {
					return sentenceElement(role, s, p.Index), true
				}
			}
		}
	}
	if i := strings.Index(e.Text, want); i >= 0 {
		s := domain.Sentence{Text: want, StartIndex: i, EndIndex: i + len(want)}
		if idx, ok := paragraphAt(e, i); ok && inScope(idx) {
			return sentenceElement(role, s, idx), true
		}
	}
	return domain.ElementAnalysis{}, false
}

func sentenceElement(role domain.Role, s domain.Sentence, paragraph int) domain.ElementAnalysis {
	p := paragraph
	return domain.ElementAnalysis{
		Role:           role,
		Found:          true,
		Text:           s.Text,
		StartIndex:     s.StartIndex,
		EndIndex:       s.EndIndex,
		ParagraphIndex: &p,
		Confidence:     aiOnlyConfidence,
		Feedback:       "selected by AI review",
	}
}

func paragraphAt(e domain.Essay, offset int) (int, bool) {
	for _, p := range e.Paragraphs {
		if offset >= p.StartIndex && offset < p.EndIndex {
			return p.Index, true
		}
	}
	return 0, false
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
