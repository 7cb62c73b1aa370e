package usecase

import (
	"strings"
	"time"

	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
)

// Confidence contributions of the aggregate result.
const (
	confidenceBase   = 0.5
	confidenceHook   = 0.2
	confidenceThesis = 0.2
	confidenceBand   = 0.1
)

// Confidence scores the completeness of a result. It never reads usage data.
func Confidence(s domain.StructuralAnalysis, overallBand float64) float64 {
	c := confidenceBase
	if s.Hook.Found && strings.TrimSpace(s.Hook.Text) != "" {
		c += confidenceHook
	}
	if s.Thesis.Found && strings.TrimSpace(s.Thesis.Text) != "" {
		c += confidenceThesis
	}
	if overallBand > 0 {
		c += confidenceBand
	}
	if c > 1 {
		c = 1
	}
	return c
}

type aggregateInput struct {
	essay            domain.Essay
	structure        domain.StructuralAnalysis
	band             domain.BandScores
	annotations      []domain.Annotation
	annotationSource domain.Source
	now              time.Time
	elapsed          time.Duration
}

// aggregate merges the stage results into the caller-facing result.
func aggregate(in aggregateInput) (domain.AnalysisResult, int) {
	band := in.band
	if band.OverallBand == 0 {
		band.OverallBand = CalculateOverallBand(band)
	}

	anns := make([]domain.Annotation, 0, len(in.annotations))
	dropped := 0
	for _, a := range in.annotations {
		if !aligned(in.essay.Text, a.StartIndex, a.EndIndex, a.Text) {
			dropped++
			continue
		}
		anns = append(anns, a)
	}
	annSource := in.annotationSource
	if len(anns) == 0 {
		annSource = domain.SourceNone
	}

	res := domain.AnalysisResult{
		WordCount:          in.essay.WordCount,
		Timestamp:          in.now,
		StructuralAnalysis: in.structure,
		BandScores:         band,
		OverallBand:        band.OverallBand,
		OverallFeedback:    overallFeedback(band, in.structure),
		Annotations:        anns,
		Metadata: domain.ResultMetadata{
			Confidence:       Confidence(in.structure, band.OverallBand),
			StructureSource:  in.structure.Source,
			BandSource:       band.Source,
			AnnotationSource: annSource,
			DurationMS:       in.elapsed.Milliseconds(),
		},
	}
	return res, dropped
}

func overallFeedback(b domain.BandScores, s domain.StructuralAnalysis) string {
	var parts []string
	if f := strings.TrimSpace(b.Feedback); f != "" {
		parts = append(parts, f)
	}
	if f := strings.TrimSpace(s.Feedback); f != "" {
		parts = append(parts, f)
	}
	return strings.Join(parts, "\n\n")
}
