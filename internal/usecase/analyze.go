// Package usecase orchestrates essay analysis: rule-based candidates, the AI
// validation and band stages, annotation and aggregation.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fairyhunter13/ielts-writing-coach/internal/adapter/ai"
	obsadapter "github.com/fairyhunter13/ielts-writing-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
	"github.com/fairyhunter13/ielts-writing-coach/internal/essay"
	"github.com/fairyhunter13/ielts-writing-coach/internal/observability"
)

// Pipeline stage names used in logs, traces and metrics.
const (
	StageStructure  = "structure"
	StageBand       = "band"
	StageAnnotation = "annotation"
)

// Options tunes an Analyzer.
type Options struct {
	// CallTimeout bounds each AI call. Zero leaves the caller's deadline in charge.
	CallTimeout time.Duration
	// Now is the clock used for result timestamps.
	Now func() time.Time
}

// Analyzer runs the hybrid analysis pipeline. It keeps no per-request state
// and is safe for concurrent use.
type Analyzer struct {
	gen      domain.TextGenerator
	usage    domain.UsageRecorder
	detector *essay.Detector
	cleaner  *ai.ResponseCleaner
	opts     Options
}

// NewAnalyzer wires an Analyzer. usage and detector may be nil.
func NewAnalyzer(gen domain.TextGenerator, usage domain.UsageRecorder, detector *essay.Detector, opts Options) *Analyzer {
	if detector == nil {
		detector = essay.NewDetector(nil)
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Analyzer{gen: gen, usage: usage, detector: detector, cleaner: ai.NewResponseCleaner(), opts: opts}
}

// Analyze returns a best-effort result for any essay text. Failed AI stages
// degrade to their deterministic fallbacks; an error is returned only when
// the pipeline itself breaks.
func (a *Analyzer) Analyze(ctx context.Context, text, taskPrompt string) (res domain.AnalysisResult, err error) {
	tracer := otel.Tracer("usecase.analyze")
	ctx, span := tracer.Start(ctx, "Analyzer.Analyze")
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			observability.LoggerFromContext(ctx).Error("analysis panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			span.SetStatus(codes.Error, "panic")
			err = fmt.Errorf("op=analyze.run: %w", domain.ErrInternal)
		}
	}()

	start := time.Now()
	e := essay.Segment(text)
	set := a.detector.Detect(e)
	span.SetAttributes(
		attribute.Int("essay.word_count", e.WordCount),
		attribute.Int("essay.paragraphs", len(e.Paragraphs)),
	)

	var (
		structure domain.StructuralAnalysis
		band      domain.BandScores
	)
	if e.IsDegenerate() {
		structure = fallbackStructure(e, set)
		band = fallbackBand(e.WordCount)
	} else {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			structure = a.structureStage(ctx, e, taskPrompt, set)
		}()
		go func() {
			defer wg.Done()
			band = a.bandStage(ctx, e, taskPrompt)
		}()
		wg.Wait()
	}
	anns, annSource := a.annotationStage(ctx, e, taskPrompt, structure)

	res, dropped := aggregate(aggregateInput{
		essay:            e,
		structure:        structure,
		band:             band,
		annotations:      anns,
		annotationSource: annSource,
		now:              a.opts.Now(),
		elapsed:          time.Since(start),
	})
	if dropped > 0 {
		obsadapter.AnnotationsDroppedTotal.Add(float64(dropped))
	}
	obsadapter.RecordStage(StageStructure, string(res.Metadata.StructureSource))
	obsadapter.RecordStage(StageBand, string(res.Metadata.BandSource))
	obsadapter.RecordStage(StageAnnotation, string(res.Metadata.AnnotationSource))
	obsadapter.ObserveAnalysis(res.OverallBand, res.Metadata.Confidence)
	span.SetAttributes(
		attribute.Float64("result.overall_band", res.OverallBand),
		attribute.Float64("result.confidence", res.Metadata.Confidence),
	)
	return res, nil
}

func (a *Analyzer) structureStage(ctx context.Context, e domain.Essay, taskPrompt string, set domain.CandidateSet) (out domain.StructuralAnalysis) {
	defer a.recoverStage(ctx, StageStructure, func() { out = fallbackStructure(e, set) })
	p, ok := a.generateObject(ctx, StageStructure, structurePrompt(e, taskPrompt, set))
	if !ok {
		return fallbackStructure(e, set)
	}
	s, usable := structureFromAI(e, set, p)
	if !usable {
		observability.StageLogger(ctx, StageStructure).Warn("structure response names no elements; using rule-based selection")
		return fallbackStructure(e, set)
	}
	return s
}

func (a *Analyzer) bandStage(ctx context.Context, e domain.Essay, taskPrompt string) (out domain.BandScores) {
	defer a.recoverStage(ctx, StageBand, func() { out = fallbackBand(e.WordCount) })
	p, ok := a.generateObject(ctx, StageBand, bandPrompt(e, taskPrompt))
	if !ok {
		return fallbackBand(e.WordCount)
	}
	b, usable := bandFromAI(p, e.WordCount)
	if !usable {
		observability.StageLogger(ctx, StageBand).Warn("band response is missing criterion scores; using fallback band")
		return fallbackBand(e.WordCount)
	}
	return b
}

// annotationStage tries the AI pass and falls back to literal search. It is
// skipped entirely when neither the hook nor the thesis was found.
func (a *Analyzer) annotationStage(ctx context.Context, e domain.Essay, taskPrompt string, s domain.StructuralAnalysis) (out []domain.Annotation, source domain.Source) {
	targets := annotationTargets(s)
	if len(targets) == 0 {
		return nil, domain.SourceNone
	}
	defer a.recoverStage(ctx, StageAnnotation, func() {
		out, _ = literalAnnotations(e.Text, targets)
		source = domain.SourceRules
	})
	if p, ok := a.generateObject(ctx, StageAnnotation, annotationPrompt(e, taskPrompt, targets)); ok {
		anns, dropped := annotationsFromAI(e.Text, p)
		if dropped > 0 {
			obsadapter.AnnotationsDroppedTotal.Add(float64(dropped))
			observability.StageLogger(ctx, StageAnnotation).Info("dropped unaligned annotations", slog.Int("dropped", dropped))
		}
		if len(anns) > 0 {
			return anns, domain.SourceAI
		}
	}
	anns, dropped := literalAnnotations(e.Text, targets)
	if dropped > 0 {
		obsadapter.AnnotationsDroppedTotal.Add(float64(dropped))
	}
	return anns, domain.SourceRules
}

// generateObject calls the generator once and extracts a JSON object. Every
// failure is logged and reported as false so the stage can fall back.
func (a *Analyzer) generateObject(ctx context.Context, stage, prompt string) (ai.Payload, bool) {
	lg := observability.StageLogger(ctx, stage)
	if a.gen == nil {
		lg.Warn("no text generator configured")
		return nil, false
	}
	callCtx := ctx
	if a.opts.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.opts.CallTimeout)
		defer cancel()
	}
	tracer := otel.Tracer("usecase.analyze")
	callCtx, span := tracer.Start(callCtx, "Analyzer."+stage)
	defer span.End()

	resp, err := a.gen.Generate(callCtx, prompt)
	if a.usage != nil {
		a.usage.RecordCall(prompt, resp, err)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate")
		lg.Warn("ai call failed; using fallback", slog.Any("error", err))
		return nil, false
	}
	p, err := a.cleaner.ExtractObject(resp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extract")
		attrs := []any{slog.Any("error", err)}
		var xe *ai.ExtractionError
		if errors.As(err, &xe) {
			attrs = append(attrs, slog.String("code", xe.Code), slog.String("snippet", xe.Snippet))
		}
		lg.Warn("ai response was not usable JSON; using fallback", attrs...)
		return nil, false
	}
	return p, true
}

// recoverStage converts a panic inside one stage into that stage's fallback.
func (a *Analyzer) recoverStage(ctx context.Context, stage string, fallback func()) {
	if r := recover(); r != nil {
		observability.StageLogger(ctx, stage).Error("stage panicked; using fallback",
			slog.Any("panic", r),
			slog.String("stack", string(debug.Stack())))
		fallback()
	}
}
