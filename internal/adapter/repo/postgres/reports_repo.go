// Package postgres persists analysis reports in PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
)

// PgxPool is a minimal subset of pgxpool used by the repos for easy testing.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ReportRepo persists and loads analysis reports.
type ReportRepo struct{ Pool PgxPool }

var _ domain.ReportRepository = (*ReportRepo)(nil)

// NewReportRepo constructs a ReportRepo with the given pool.
func NewReportRepo(p PgxPool) *ReportRepo { return &ReportRepo{Pool: p} }

// Create stores a report. The result is kept as JSONB with the overall band
// and confidence denormalised for querying.
func (r *ReportRepo) Create(ctx domain.Context, rep domain.Report) error {
	tracer := otel.Tracer("repo.reports")
	ctx, span := tracer.Start(ctx, "reports.Create")
	defer span.End()
	span.SetAttributes(attribute.String("report.id", rep.ID))

	if rep.ID == "" {
		return fmt.Errorf("op=report.create: %w: id required", domain.ErrInvalidArgument)
	}
	body, err := json.Marshal(rep.Result)
	if err != nil {
		return fmt.Errorf("op=report.create: marshal result: %w", err)
	}
	q := `INSERT INTO reports (id, essay, prompt, result, overall_band, confidence, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err = r.Pool.Exec(ctx, q, rep.ID, rep.Essay, rep.Prompt, body, rep.Result.OverallBand, rep.Result.Metadata.Confidence, rep.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("op=report.create: %w", err)
	}
	return nil
}

// Get loads a report by id.
func (r *ReportRepo) Get(ctx domain.Context, id string) (domain.Report, error) {
	tracer := otel.Tracer("repo.reports")
	ctx, span := tracer.Start(ctx, "reports.Get")
	defer span.End()
	span.SetAttributes(attribute.String("report.id", id))

	q := `SELECT id, essay, prompt, result, created_at FROM reports WHERE id=$1`
	var (
		rep  domain.Report
		body []byte
	)
	if err := r.Pool.QueryRow(ctx, q, id).Scan(&rep.ID, &rep.Essay, &rep.Prompt, &body, &rep.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Report{}, fmt.Errorf("op=report.get: %w", domain.ErrNotFound)
		}
		return domain.Report{}, fmt.Errorf("op=report.get: %w", err)
	}
	if err := json.Unmarshal(body, &rep.Result); err != nil {
		return domain.Report{}, fmt.Errorf("op=report.get: decode result: %w", err)
	}
	rep.Stored = true
	return rep, nil
}
