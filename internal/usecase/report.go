package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	obsadapter "github.com/fairyhunter13/ielts-writing-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
	"github.com/fairyhunter13/ielts-writing-coach/internal/observability"
)

// EssayAnalyzer is the analysis capability consumed by ReportService.
type EssayAnalyzer interface {
	Analyze(ctx context.Context, text, taskPrompt string) (domain.AnalysisResult, error)
}

// ReportService analyses essays and keeps the resulting reports when a
// repository is configured.
type ReportService struct {
	Analyzer EssayAnalyzer
	Reports  domain.ReportRepository
	NewID    func() string
	Now      func() time.Time
}

// NewReportService constructs a ReportService. reports may be nil to disable persistence.
func NewReportService(a EssayAnalyzer, reports domain.ReportRepository) ReportService {
	return ReportService{
		Analyzer: a,
		Reports:  reports,
		NewID:    uuid.NewString,
		Now:      func() time.Time { return time.Now().UTC() },
	}
}

// Analyze runs one analysis and stores it. A failed write is logged and
// reflected in Report.Stored; it never fails the request.
func (s ReportService) Analyze(ctx domain.Context, text, taskPrompt string) (domain.Report, error) {
	if s.Analyzer == nil {
		return domain.Report{}, fmt.Errorf("op=report.analyze: %w: analyzer not configured", domain.ErrInternal)
	}
	res, err := s.Analyzer.Analyze(ctx, text, taskPrompt)
	if err != nil {
		return domain.Report{}, fmt.Errorf("op=report.analyze: %w", err)
	}
	r := domain.Report{
		ID:        s.newID(),
		Essay:     text,
		Prompt:    taskPrompt,
		Result:    res,
		CreatedAt: s.now(),
	}
	if s.Reports == nil {
		return r, nil
	}
	if err := s.Reports.Create(ctx, r); err != nil {
		obsadapter.ReportsStoredTotal.WithLabelValues("error").Inc()
		observability.LoggerFromContext(ctx).Error("store report failed",
			slog.String("report_id", r.ID),
			slog.Any("error", err))
		return r, nil
	}
	obsadapter.ReportsStoredTotal.WithLabelValues("ok").Inc()
	r.Stored = true
	return r, nil
}

// Get returns a stored report.
func (s ReportService) Get(ctx domain.Context, id string) (domain.Report, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Report{}, fmt.Errorf("op=report.get: %w: id required", domain.ErrInvalidArgument)
	}
	if s.Reports == nil {
		return domain.Report{}, fmt.Errorf("op=report.get: %w: persistence disabled", domain.ErrNotFound)
	}
	r, err := s.Reports.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Report{}, err
		}
		return domain.Report{}, fmt.Errorf("op=report.get: %w", err)
	}
	r.Stored = true
	return r, nil
}

func (s ReportService) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s ReportService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
