package guide

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"guias/internal/bootstrap/logging"
	domain "guias/internal/domain/guide"
	"guias/internal/errs"
	"guias/internal/ports"
)

const maxGuideIDAttempts = 5

type RegisterEntryInput struct {
	// GuideID is optional; when empty it is derived from the provider code and the local time.
	GuideID      string `validate:"omitempty,max=80"`
	ProviderCode string `validate:"required,max=32"`
	ProviderName string `validate:"required,max=200"`
	Plate        string `validate:"omitempty,max=16"`
	Carrier      string `validate:"omitempty,max=200"`
	BunchCount   string `validate:"required,numeric"`
	FruitType    string `validate:"required,max=40"`
	Haul         bool
	Load         bool
	Note         string `validate:"omitempty,max=1000"`
	Image        string `validate:"omitempty,max=255"`
	Extra        map[string]string
}

type RegisterEntryResult struct {
	GuideID   string
	Versioned bool
}

// RegisterEntry inserts a new entry. A guide id that is already taken is never overwritten: the
// duplicate guard renames the submission with a "_vN" suffix and inserts it alongside.
func (s *Service) RegisterEntry(ctx context.Context, input RegisterEntryInput) (RegisterEntryResult, error) {
	if err := checkContext(ctx); err != nil {
		return RegisterEntryResult{}, err
	}
	if err := s.validate.Struct(input); err != nil {
		return RegisterEntryResult{}, errs.Wrap(err, "validate entry")
	}

	now := s.now()
	guideID := strings.TrimSpace(input.GuideID)
	if guideID == "" {
		derived, err := domain.NewGuideID(input.ProviderCode, now.In(s.conv.Location()))
		if err != nil {
			return RegisterEntryResult{}, err
		}
		guideID = derived
	}
	if err := domain.ValidateGuideID(guideID); err != nil {
		return RegisterEntryResult{}, err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.guide.register_entry"),
		slog.String("provider_code", input.ProviderCode),
	)

	record := ports.EntryRecord{
		ProviderCode: strings.TrimSpace(input.ProviderCode),
		ProviderName: strings.TrimSpace(input.ProviderName),
		Plate:        strings.ToUpper(strings.TrimSpace(input.Plate)),
		Carrier:      strings.TrimSpace(input.Carrier),
		BunchCount:   strings.TrimSpace(input.BunchCount),
		FruitType:    strings.TrimSpace(input.FruitType),
		Haul:         input.Haul,
		Load:         input.Load,
		Note:         input.Note,
		Image:        input.Image,
		CreatedAtUTC: domain.FormatUTC(now),
		Active:       true,
		Extra:        input.Extra,
	}

	for attempt := 0; attempt < maxGuideIDAttempts; attempt++ {
		candidate, versioned, err := s.uniqueGuideID(ctx, guideID, record.ProviderCode, now)
		if err != nil {
			return RegisterEntryResult{}, err
		}

		record.GuideID = candidate
		inserted, err := s.stores.Entry.Insert(ctx, record)
		if err != nil {
			return RegisterEntryResult{}, errs.Wrapf(err, "insert entry %s", candidate)
		}
		if !inserted {
			// Lost a race with a concurrent submission; pick the next free id.
			continue
		}

		if versioned {
			s.metrics.DuplicateVersioned()
			logging.Warn(logCtx, "duplicate entry submission versioned",
				slog.String("requested_guide_id", guideID),
				slog.String("guide_id", candidate),
			)
		}
		logging.Info(logCtx, "entry registered", slog.String("guide_id", candidate))
		return RegisterEntryResult{GuideID: candidate, Versioned: versioned}, nil
	}

	return RegisterEntryResult{}, fmt.Errorf("allocate guide id for %s after %d attempts", guideID, maxGuideIDAttempts)
}

// uniqueGuideID returns guideID when it is free. Otherwise N starts at the number of entries of
// the same provider and base id created within the duplicate window, and grows until free.
func (s *Service) uniqueGuideID(ctx context.Context, guideID string, providerCode string, now time.Time) (string, bool, error) {
	exists, err := s.stores.Entry.Exists(ctx, guideID)
	if err != nil {
		return "", false, errs.Wrapf(err, "check guide id %s", guideID)
	}
	if !exists {
		return guideID, false, nil
	}

	since := domain.FormatUTC(now.Add(-s.duplicateWindow))
	recent, err := s.stores.Entry.ListRecentByProviderCode(ctx, providerCode, since)
	if err != nil {
		return "", false, errs.Wrap(err, "list recent entries")
	}

	base := domain.BaseGuideID(guideID)
	n := 0
	for _, item := range recent {
		if domain.BaseGuideID(item.GuideID) == base {
			n++
		}
	}
	if n < 1 {
		n = 1
	}

	for {
		candidate := domain.VersionedGuideID(base, n)
		taken, err := s.stores.Entry.Exists(ctx, candidate)
		if err != nil {
			return "", false, errs.Wrapf(err, "check guide id %s", candidate)
		}
		if !taken {
			return candidate, true, nil
		}
		n++
	}
}
