package guide

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"guias/internal/bootstrap/logging"
	domain "guias/internal/domain/guide"
	"guias/internal/errs"
	"guias/internal/ports"
)

// legacyListRows returns the legacy-only entries matching the filter. Ids that also live in the
// entry table are left to the table query, which already applied the filter to them.
func (s *Service) legacyListRows(ctx context.Context, logCtx context.Context, filter ports.GuideListFilter) ([]ports.GuideListRow, error) {
	if s.legacy == nil {
		return nil, nil
	}

	ids, err := s.legacy.Scan(ctx)
	if err != nil {
		logging.Warn(logCtx, "legacy entries unavailable for listing", slog.Any("err", errs.Loggable(err)))
		return nil, nil
	}

	var rows []ports.GuideListRow
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(err, "list legacy entries")
		}

		entry, err := s.stores.Entry.Get(ctx, id)
		if err != nil {
			if !errors.Is(err, ports.ErrRecordNotFound) {
				logging.Warn(logCtx, "legacy entry skipped in listing", slog.String("guide_id", id), slog.Any("err", errs.Loggable(err)))
			}
			continue
		}
		if entry.Source != ports.EntrySourceLegacy {
			continue
		}

		timestamp, ok := legacyEntryMatches(entry, filter)
		if !ok {
			continue
		}
		rows = append(rows, ports.GuideListRow{GuideID: entry.GuideID, StageTimestampUTC: timestamp})
	}
	return rows, nil
}

// legacyEntryMatches applies the table query's filter in memory and returns the entry timestamp
// in the persisted layout.
func legacyEntryMatches(entry ports.EntryRecord, filter ports.GuideListFilter) (string, bool) {
	if !filter.IncludeInactive && !entry.Active {
		return "", false
	}
	if !containsFold(entry.ProviderCode, filter.ProviderCode) ||
		!containsFold(entry.ProviderName, filter.ProviderName) ||
		!containsFold(entry.Plate, filter.Plate) {
		return "", false
	}

	timestamp := ""
	if parsed, _, err := domain.ParseUTC(entry.CreatedAtUTC); err == nil {
		timestamp = domain.FormatUTC(parsed)
	}
	from := strings.TrimSpace(filter.FromUTC)
	to := strings.TrimSpace(filter.ToUTC)
	if timestamp == "" && (from != "" || to != "") {
		return "", false
	}
	if from != "" && timestamp < from {
		return "", false
	}
	if to != "" && timestamp > to {
		return "", false
	}
	return timestamp, true
}

func containsFold(value string, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(needle))
}

// mergeListRows interleaves table and legacy rows newest first and re-applies the limit.
func mergeListRows(table []ports.GuideListRow, legacy []ports.GuideListRow, limit int) []ports.GuideListRow {
	if len(legacy) == 0 {
		return table
	}
	rows := make([]ports.GuideListRow, 0, len(table)+len(legacy))
	rows = append(rows, table...)
	rows = append(rows, legacy...)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].StageTimestampUTC != rows[j].StageTimestampUTC {
			return rows[i].StageTimestampUTC > rows[j].StageTimestampUTC
		}
		return rows[i].GuideID > rows[j].GuideID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
