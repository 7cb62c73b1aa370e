package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
)

// maxPromptCandidates bounds how many candidates per role are shown to the model.
const maxPromptCandidates = 3

func taskSection(taskPrompt string) string {
	taskPrompt = strings.TrimSpace(taskPrompt)
	if taskPrompt == "" {
		return ""
	}
	return fmt.Sprintf("Task prompt the candidate was answering:\n\"\"\"\n%s\n\"\"\"\n\n", taskPrompt)
}

func listCandidates(b *strings.Builder, role domain.Role, cands []domain.Candidate, limit int) {
	fmt.Fprintf(b, "%s:\n", role)
	if len(cands) == 0 {
		b.WriteString("  (no candidates)\n")
		return
	}
	for i, c := range cands {
		if limit > 0 && i == limit {
			break
		}
		para := -1
		if c.ParagraphIndex != nil {
			para = *c.ParagraphIndex
		}
		fmt.Fprintf(b, "  - [%.2f] paragraph %d: %q (%s)\n", c.Confidence, para, c.Text, c.Reason)
	}
}

// structurePrompt asks the model to pick and rate the best candidate per role.
func structurePrompt(e domain.Essay, taskPrompt string, set domain.CandidateSet) string {
	var cands strings.Builder
	listCandidates(&cands, domain.RoleHook, set.Hook, maxPromptCandidates)
	listCandidates(&cands, domain.RoleThesis, set.Thesis, maxPromptCandidates)
	listCandidates(&cands, domain.RoleTopicSentence, set.TopicSentences, 0)
	listCandidates(&cands, domain.RoleParagraphConclusion, set.ParagraphConclusions, 0)
	listCandidates(&cands, domain.RoleOverallConclusion, set.OverallConclusion, maxPromptCandidates)

	return fmt.Sprintf(`You are an IELTS Writing Task 2 examiner reviewing the structure of an essay.

%sEssay (paragraphs are numbered from 0 in order of appearance):
"""
%s
"""

A rule-based detector proposed these candidate sentences for each structural element, with confidence from 0 to 1:
%s
For every element choose the sentence that best fills it. You may choose a sentence that is not listed. Copy the chosen text exactly as it appears in the essay. Rate each element as excellent, good, needs_work or poor and explain the rating in one or two sentences. Choose one topic sentence and one paragraph conclusion per body paragraph.

Respond with ONLY a JSON object of this shape:
{
  "hook": {"text": "...", "score": "good", "feedback": "..."},
  "thesis": {"text": "...", "score": "good", "feedback": "..."},
  "topic_sentences": [{"paragraph_index": 1, "text": "...", "score": "good", "feedback": "..."}],
  "paragraph_conclusions": [{"paragraph_index": 1, "text": "...", "score": "good", "feedback": "..."}],
  "overall_conclusion": {"text": "...", "score": "good", "feedback": "..."},
  "feedback": "overall comment on the essay structure"
}
Use null for an element the essay does not contain.`, taskSection(taskPrompt), e.Text, cands.String())
}

// bandPrompt asks for an independent band score per IELTS criterion.
func bandPrompt(e domain.Essay, taskPrompt string) string {
	return fmt.Sprintf(`You are a certified IELTS examiner. Score the essay below against the public IELTS Writing Task 2 band descriptors.

%sEssay (%d words):
"""
%s
"""

Score each criterion from 1 to 9 in steps of 0.5:
- task_response: how fully the prompt is addressed and how well the position is developed and supported
- coherence_cohesion: logical organisation, paragraphing and use of cohesive devices
- lexical_resource: range, precision and accuracy of vocabulary
- grammar_accuracy: range and accuracy of grammatical structures and punctuation
Essays under %d words must be penalised under task_response.

Respond with ONLY a JSON object of this shape:
{
  "task_response": {"score": 6.5, "justification": "..."},
  "coherence_cohesion": {"score": 6.5, "justification": "..."},
  "lexical_resource": {"score": 6.5, "justification": "..."},
  "grammar_accuracy": {"score": 6.5, "justification": "..."},
  "overall_band": 6.5,
  "feedback": "two or three sentences of advice for the candidate"
}`, taskSection(taskPrompt), e.WordCount, e.Text, minWordCount)
}

// annotationPrompt asks for highlight spans of the selected hook and thesis.
func annotationPrompt(e domain.Essay, taskPrompt string, elements []domain.ElementAnalysis) string {
	var sel strings.Builder
	for _, el := range elements {
		fmt.Fprintf(&sel, "- %s (rated %s): %q\n", el.Role, el.Score, el.Text)
	}
	return fmt.Sprintf(`You are preparing on-screen highlights for an IELTS Writing Task 2 essay.

%sEssay:
"""
%s
"""

Selected elements:
%s
Return one annotation per selected element. "text" must be copied exactly from the essay, and start_index/end_index are 0-based character offsets of that text in the essay (end exclusive). Use type "good" for a strong element, "needs_work" for one that should be improved and "error" for one that is wrong or missing its purpose. "message" is a short note for the candidate.

Respond with ONLY a JSON object of this shape:
{
  "annotations": [
    {"text": "...", "start_index": 0, "end_index": 0, "type": "good", "element": "hook", "message": "..."}
  ]
}`, taskSection(taskPrompt), e.Text, sel.String())
}
