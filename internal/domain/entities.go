package domain

import (
	"context"
	"errors"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrJSONExtraction marks AI text from which no JSON object could be recovered.
	ErrJSONExtraction = errors.New("json extraction failed")
	// ErrAICall marks a failure raised by the text generator itself.
	ErrAICall   = errors.New("ai call failed")
	ErrInternal = errors.New("internal error")
)

// ParagraphType is derived solely from a paragraph's position in the essay.
type ParagraphType string

const (
	ParagraphIntroduction ParagraphType = "introduction"
	ParagraphBody         ParagraphType = "body"
	ParagraphConclusion   ParagraphType = "conclusion"
)

// Role names the structural element a candidate sentence may fill.
type Role string

const (
	RoleHook                Role = "hook"
	RoleThesis              Role = "thesis"
	RoleTopicSentence       Role = "topic_sentence"
	RoleParagraphConclusion Role = "paragraph_conclusion"
	RoleOverallConclusion   Role = "overall_conclusion"
)

// Roles lists every role in reporting order.
var Roles = []Role{RoleHook, RoleThesis, RoleTopicSentence, RoleParagraphConclusion, RoleOverallConclusion}

// Sentence is a trimmed sentence with byte offsets into the original essay.
// Invariant: essay[StartIndex:EndIndex] == Text.
type Sentence struct {
	Text       string `json:"text"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
	Index      int    `json:"index"`
	WordCount  int    `json:"word_count"`
}

// Paragraph holds the sentences of one blank-line separated block.
type Paragraph struct {
	Index      int           `json:"index"`
	Text       string        `json:"text"`
	StartIndex int           `json:"start_index"`
	EndIndex   int           `json:"end_index"`
	Type       ParagraphType `json:"type"`
	Sentences  []Sentence    `json:"sentences"`
}

// Essay is the immutable parsed input.
type Essay struct {
	Text       string      `json:"-"`
	WordCount  int         `json:"word_count"`
	Paragraphs []Paragraph `json:"paragraphs"`
}

// Sentences returns all sentences in global order.
func (e Essay) Sentences() []Sentence {
	var out []Sentence
	for _, p := range e.Paragraphs {
		out = append(out, p.Sentences...)
	}
	return out
}

// IsDegenerate reports whether the essay has no sentences to analyse.
func (e Essay) IsDegenerate() bool {
	for _, p := range e.Paragraphs {
		if len(p.Sentences) > 0 {
			return false
		}
	}
	return true
}

// CandidateAnalysis carries role-specific flags computed by the detector.
type CandidateAnalysis struct {
	HasTransition      bool     `json:"has_transition,omitempty"`
	RestatesThesis     bool     `json:"restates_thesis,omitempty"`
	SharesTopicKeyword bool     `json:"shares_topic_keyword,omitempty"`
	HasRecommendation  bool     `json:"has_recommendation,omitempty"`
	MatchedCategories  []string `json:"matched_categories,omitempty"`
	ThesisOverlap      float64  `json:"thesis_overlap,omitempty"`
}

// Candidate is a sentence proposed for a role.
type Candidate struct {
	Sentence
	Role           Role              `json:"role"`
	Confidence     float64           `json:"confidence"`
	Reason         string            `json:"reason"`
	ParagraphIndex *int              `json:"paragraph_index,omitempty"`
	Analysis       CandidateAnalysis `json:"analysis"`
}

// CandidateSet holds the confidence-ranked candidates for every role.
type CandidateSet struct {
	Hook                 []Candidate `json:"hook"`
	Thesis               []Candidate `json:"thesis"`
	TopicSentences       []Candidate `json:"topic_sentences"`
	ParagraphConclusions []Candidate `json:"paragraph_conclusions"`
	OverallConclusion    []Candidate `json:"overall_conclusion"`
}

// ForRole returns the candidate list of a role.
func (s CandidateSet) ForRole(r Role) []Candidate {
	switch r {
	case RoleHook:
		return s.Hook
	case RoleThesis:
		return s.Thesis
	case RoleTopicSentence:
		return s.TopicSentences
	case RoleParagraphConclusion:
		return s.ParagraphConclusions
	case RoleOverallConclusion:
		return s.OverallConclusion
	}
	return nil
}

// QualityScore is the qualitative rating of a structural element.
type QualityScore string

const (
	ScoreExcellent QualityScore = "excellent"
	ScoreGood      QualityScore = "good"
	ScoreNeedsWork QualityScore = "needs_work"
	ScorePoor      QualityScore = "poor"
)

// Valid reports whether s is one of the known ratings.
func (s QualityScore) Valid() bool {
	switch s {
	case ScoreExcellent, ScoreGood, ScoreNeedsWork, ScorePoor:
		return true
	}
	return false
}

// Source records which path produced part of a result.
type Source string

const (
	SourceAI       Source = "ai"
	SourceRules    Source = "rules"
	SourceFallback Source = "fallback"
	SourceNone     Source = "none"
)

// ElementAnalysis is the selected sentence for one role (or paragraph).
// Found is false for an explicit "not found" entry.
type ElementAnalysis struct {
	Role           Role         `json:"role"`
	Found          bool         `json:"found"`
	Text           string       `json:"text"`
	StartIndex     int          `json:"start_index"`
	EndIndex       int          `json:"end_index"`
	ParagraphIndex *int         `json:"paragraph_index,omitempty"`
	Confidence     float64      `json:"confidence"`
	Score          QualityScore `json:"score"`
	Feedback       string       `json:"feedback"`
	Source         Source       `json:"source"`
}

// StructuralAnalysis is the per-role selection. Every role is always populated.
type StructuralAnalysis struct {
	Hook                 ElementAnalysis   `json:"hook"`
	Thesis               ElementAnalysis   `json:"thesis"`
	TopicSentences       []ElementAnalysis `json:"topic_sentences"`
	ParagraphConclusions []ElementAnalysis `json:"paragraph_conclusions"`
	OverallConclusion    ElementAnalysis   `json:"overall_conclusion"`
	Feedback             string            `json:"feedback"`
	Source               Source            `json:"source"`
}

// CriterionScore is one IELTS criterion on the 0-9 scale in 0.5 steps.
type CriterionScore struct {
	Score         float64 `json:"score"`
	Justification string  `json:"justification"`
}

// BandScores holds the four IELTS Writing criteria.
type BandScores struct {
	TaskResponse      CriterionScore `json:"task_response"`
	CoherenceCohesion CriterionScore `json:"coherence_cohesion"`
	LexicalResource   CriterionScore `json:"lexical_resource"`
	GrammarAccuracy   CriterionScore `json:"grammar_accuracy"`
	OverallBand       float64        `json:"overall_band"`
	Feedback          string         `json:"feedback"`
	WordCountAdequate bool           `json:"word_count_adequate"`
	Source            Source         `json:"source"`
}

// AnnotationType classifies a highlighted span.
type AnnotationType string

const (
	AnnotationGood      AnnotationType = "good"
	AnnotationNeedsWork AnnotationType = "needs_work"
	AnnotationError     AnnotationType = "error"
)

// Annotation is a span to highlight. Invariant: essay[StartIndex:EndIndex] == Text.
type Annotation struct {
	Text       string         `json:"text"`
	StartIndex int            `json:"start_index"`
	EndIndex   int            `json:"end_index"`
	Type       AnnotationType `json:"type"`
	Element    Role           `json:"element"`
	Message    string         `json:"message"`
}

// ResultMetadata describes how a result was produced.
type ResultMetadata struct {
	Confidence       float64 `json:"confidence"`
	StructureSource  Source  `json:"structure_source"`
	BandSource       Source  `json:"band_source"`
	AnnotationSource Source  `json:"annotation_source"`
	DurationMS       int64   `json:"duration_ms"`
}

// AnalysisResult is returned to the caller once per analysis request.
type AnalysisResult struct {
	WordCount          int                `json:"word_count"`
	Timestamp          time.Time          `json:"timestamp"`
	StructuralAnalysis StructuralAnalysis `json:"structural_analysis"`
	BandScores         BandScores         `json:"band_scores"`
	OverallBand        float64            `json:"overall_band"`
	OverallFeedback    string             `json:"overall_feedback"`
	Annotations        []Annotation       `json:"annotations"`
	Metadata           ResultMetadata     `json:"metadata"`
}

// Report is one analysis together with its input. Stored is false when
// persistence is disabled or the write failed.
type Report struct {
	ID        string
	Essay     string
	Prompt    string
	Result    AnalysisResult
	CreatedAt time.Time
	Stored    bool
}

// Ports

// TextGenerator is the external AI capability. Output is untrusted text.
type TextGenerator interface {
	Generate(ctx Context, prompt string) (string, error)
}

// UsageRecorder collects advisory usage statistics. It is never read by analysis logic.
type UsageRecorder interface {
	RecordCall(prompt, response string, err error)
}

// ReportRepository persists analysis reports.
type ReportRepository interface {
	Create(ctx Context, r Report) error
	Get(ctx Context, id string) (Report, error)
}

// Context is an alias to context.Context so ports read naturally in the domain.
type Context = context.Context
