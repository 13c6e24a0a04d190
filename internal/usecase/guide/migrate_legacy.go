package guide

import (
	"context"
	"errors"
	"log/slog"

	"guias/internal/bootstrap/logging"
	"guias/internal/errs"
)

// Migration results, also used as metric labels.
const (
	MigrationInserted = "inserted"
	MigrationSkipped  = "skipped"
	MigrationFailed   = "failed"
)

type MigrationReport struct {
	Scanned  int
	Inserted int
	Skipped  int
	Failed   int
}

// MigrateLegacyEntries copies legacy entry files into the table. Guide ids already present in the
// table are skipped, so the batch can be re-run safely.
func (s *Service) MigrateLegacyEntries(ctx context.Context) (MigrationReport, error) {
	if err := checkContext(ctx); err != nil {
		return MigrationReport{}, err
	}
	if s.legacy == nil {
		return MigrationReport{}, errors.New("legacy source is not configured")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.guide.migrate_legacy"))

	ids, err := s.legacy.Scan(ctx)
	if err != nil {
		return MigrationReport{}, errs.Wrap(err, "scan legacy entries")
	}

	var report MigrationReport
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, errs.Wrap(err, "migrate legacy entries")
		}
		report.Scanned++

		record, err := s.legacy.Load(ctx, id)
		if err != nil {
			report.Failed++
			s.metrics.LegacyMigrated(MigrationFailed)
			logging.Warn(logCtx, "legacy entry unreadable", slog.String("guide_id", id), slog.Any("err", errs.Loggable(err)))
			continue
		}

		inserted, err := s.stores.Entry.Insert(ctx, record)
		if err != nil {
			return report, errs.Wrapf(err, "insert legacy entry %s", id)
		}
		if !inserted {
			report.Skipped++
			s.metrics.LegacyMigrated(MigrationSkipped)
			continue
		}
		report.Inserted++
		s.metrics.LegacyMigrated(MigrationInserted)
	}

	logging.Info(logCtx, "legacy migration finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("inserted", report.Inserted),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed),
	)
	return report, nil
}
