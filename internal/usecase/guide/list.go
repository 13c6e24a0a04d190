package guide

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"guias/internal/bootstrap/logging"
	domain "guias/internal/domain/guide"
	"guias/internal/errs"
	"guias/internal/ports"
)

// ListFilter dates are display-local calendar days (YYYY-MM-DD), both inclusive.
type ListFilter struct {
	Stage           domain.Stage
	DateFrom        string
	DateTo          string
	ProviderCode    string
	ProviderName    string
	Plate           string
	IncludeInactive bool
	Limit           int
}

// ListGuides resolves every guide matching the filter, newest first by the stage timestamp.
// Entry listings also cover guides that only exist in legacy files.
func (s *Service) ListGuides(ctx context.Context, filter ListFilter) ([]ConsolidatedGuide, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if s.query == nil {
		return nil, errors.New("guide query repository is not configured")
	}

	query := ports.GuideListFilter{
		Stage:           filter.Stage,
		ProviderCode:    filter.ProviderCode,
		ProviderName:    filter.ProviderName,
		Plate:           filter.Plate,
		IncludeInactive: filter.IncludeInactive,
		Limit:           filter.Limit,
	}
	if query.Stage == "" {
		query.Stage = domain.StageEntry
	}
	if from := strings.TrimSpace(filter.DateFrom); from != "" {
		start, _, err := s.conv.LocalDayBoundsUTC(from)
		if err != nil {
			return nil, errs.Wrap(err, "parse date from")
		}
		query.FromUTC = start
	}
	if to := strings.TrimSpace(filter.DateTo); to != "" {
		_, end, err := s.conv.LocalDayBoundsUTC(to)
		if err != nil {
			return nil, errs.Wrap(err, "parse date to")
		}
		query.ToUTC = end
	}

	rows, err := s.query.ListGuideIDs(ctx, query)
	if err != nil {
		return nil, errs.Wrap(err, "list guide ids")
	}

	logCtx := logging.WithAttrs(ctx, slog.String("component", "usecase.guide.list"))
	if query.Stage == domain.StageEntry {
		legacyRows, err := s.legacyListRows(ctx, logCtx, query)
		if err != nil {
			return nil, err
		}
		rows = mergeListRows(rows, legacyRows, query.Limit)
	}

	items := make([]ConsolidatedGuide, 0, len(rows))
	for _, row := range rows {
		resolved, err := s.Resolve(ctx, row.GuideID)
		if err != nil {
			if errors.Is(err, domain.ErrGuideNotFound) {
				logging.Warn(logCtx, "listed guide vanished", slog.String("guide_id", row.GuideID))
				continue
			}
			return nil, errs.Wrapf(err, "resolve %s", row.GuideID)
		}
		items = append(items, resolved)
	}
	return items, nil
}

// ProviderEntries returns the active entries of a provider, newest first.
func (s *Service) ProviderEntries(ctx context.Context, providerCode string) ([]ports.EntryRecord, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	items, err := s.stores.Entry.GetByProviderCode(ctx, providerCode)
	if err != nil {
		return nil, errs.Wrapf(err, "list entries of %s", providerCode)
	}
	return items, nil
}

func (s *Service) LatestProviderEntry(ctx context.Context, providerCode string) (ports.EntryRecord, error) {
	if err := checkContext(ctx); err != nil {
		return ports.EntryRecord{}, err
	}
	entry, err := s.stores.Entry.GetLatestByProviderCode(ctx, providerCode)
	if err != nil {
		if errors.Is(err, ports.ErrRecordNotFound) {
			return ports.EntryRecord{}, errs.Wrapf(domain.ErrGuideNotFound, "no entries for provider %s", providerCode)
		}
		return ports.EntryRecord{}, errs.Wrapf(err, "latest entry of %s", providerCode)
	}
	return entry, nil
}
