package usecase

import (
	"strings"

	"github.com/fairyhunter13/ielts-writing-coach/internal/adapter/ai"
	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
)

// annotationTargets returns the found hook and thesis selections.
func annotationTargets(s domain.StructuralAnalysis) []domain.ElementAnalysis {
	var out []domain.ElementAnalysis
	for _, el := range []domain.ElementAnalysis{s.Hook, s.Thesis} {
		if el.Found && strings.TrimSpace(el.Text) != "" {
			out = append(out, el)
		}
	}
	return out
}

func annotationTypeFor(q domain.QualityScore) domain.AnnotationType {
	switch q {
	case domain.ScoreExcellent, domain.ScoreGood:
		return domain.AnnotationGood
	case domain.ScorePoor:
		return domain.AnnotationError
	default:
		return domain.AnnotationNeedsWork
	}
}

// aligned reports whether the span slices exactly to text.
func aligned(essay string, start, end int, text string) bool {
	return text != "" && start >= 0 && start < end && end <= len(essay) && essay[start:end] == text
}

// relocate finds text in essay, preferring the occurrence nearest to hint.
func relocate(essay, text string, hint int) (int, bool) {
	if text == "" {
		return 0, false
	}
	best, found := 0, false
	for from := 0; from <= len(essay)-len(text); {
		i := strings.Index(essay[from:], text)
		if i < 0 {
			break
		}
		i += from
		if !found || abs(i-hint) < abs(best-hint) {
			best, found = i, true
		}
		from = i + 1
	}
	return best, found
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// annotationsFromAI keeps model annotations whose span can be aligned with
// the essay. Misaligned spans are re-located by literal search; the rest are
// dropped and counted.
func annotationsFromAI(essay string, p ai.Payload) (out []domain.Annotation, dropped int) {
	for _, obj := range p.Objects("annotations") {
		text, ok := obj.String("text")
		if !ok {
			dropped++
			continue
		}
		role := domain.Role(obj.StringOr("element", ""))
		if !knownRole(role) {
			dropped++
			continue
		}
		kind := domain.AnnotationType(obj.StringOr("type", string(domain.AnnotationNeedsWork)))
		if kind != domain.AnnotationGood && kind != domain.AnnotationNeedsWork && kind != domain.AnnotationError {
			kind = domain.AnnotationNeedsWork
		}
		start, _ := obj.Int("start_index")
		end, _ := obj.Int("end_index")
		if !aligned(essay, start, end, text) {
			trimmed := strings.TrimSpace(text)
			at, found := relocate(essay, trimmed, start)
			if !found {
				dropped++
				continue
			}
			text, start, end = trimmed, at, at+len(trimmed)
		}
		out = append(out, domain.Annotation{
			Text:       text,
			StartIndex: start,
			EndIndex:   end,
			Type:       kind,
			Element:    role,
			Message:    obj.StringOr("message", ""),
		})
	}
	return out, dropped
}

func knownRole(r domain.Role) bool {
	for _, k := range domain.Roles {
		if r == k {
			return true
		}
	}
	return false
}

// literalAnnotations is the deterministic annotation path: the element's own
// span when it still slices to its text, else the first literal occurrence.
// Elements whose text does not appear verbatim are omitted.
func literalAnnotations(essay string, elements []domain.ElementAnalysis) (out []domain.Annotation, dropped int) {
	for _, el := range elements {
		start, end := el.StartIndex, el.EndIndex
		if !aligned(essay, start, end, el.Text) {
			i := strings.Index(essay, el.Text)
			if i < 0 || el.Text == "" {
				dropped++
				continue
			}
			start, end = i, i+len(el.Text)
		}
		out = append(out, domain.Annotation{
			Text:       el.Text,
			StartIndex: start,
			EndIndex:   end,
			Type:       annotationTypeFor(el.Score),
			Element:    el.Role,
			Message:    el.Feedback,
		})
	}
	return out, dropped
}
