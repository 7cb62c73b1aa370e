package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CleanupService deletes reports older than the retention period.
type CleanupService struct {
	DB            Execer
	RetentionDays int
	Now           func() time.Time
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(db Execer, retentionDays int) *CleanupService {
	if retentionDays <= 0 {
		retentionDays = 90 // default 90 days
	}
	return &CleanupService{DB: db, RetentionDays: retentionDays, Now: time.Now}
}

// CleanupOldReports removes reports created before the retention cutoff and
// returns how many were deleted.
func (s *CleanupService) CleanupOldReports(ctx context.Context) (int64, error) {
	cutoff := s.Now().UTC().AddDate(0, 0, -s.RetentionDays)
	tag, err := s.DB.Exec(ctx, `DELETE FROM reports WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("op=report.cleanup: %w", err)
	}
	deleted := tag.RowsAffected()
	slog.Info("report cleanup completed",
		slog.Int64("deleted_reports", deleted),
		slog.Time("cutoff", cutoff),
	)
	return deleted, nil
}

// RunPeriodic runs a cleanup immediately and then on every tick until ctx is done.
func (s *CleanupService) RunPeriodic(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 24 * time.Hour // daily by default
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if _, err := s.CleanupOldReports(ctx); err != nil {
		slog.Error("initial cleanup failed", slog.Any("error", err))
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup service stopping")
			return
		case <-ticker.C:
			if _, err := s.CleanupOldReports(ctx); err != nil {
				slog.Error("periodic cleanup failed", slog.Any("error", err))
			}
		}
	}
}
