package guide

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"guias/internal/bootstrap/logging"
	domain "guias/internal/domain/guide"
	"guias/internal/errs"
	"guias/internal/ports"
)

const authCodeKeyPrefix = "auth_code:"

// EntryChanges lists the corrective edits allowed on an entry. Nil fields are left untouched.
type EntryChanges struct {
	ProviderName *string `validate:"omitempty,max=200"`
	Plate        *string `validate:"omitempty,max=16"`
	Carrier      *string `validate:"omitempty,max=200"`
	BunchCount   *string `validate:"omitempty,numeric"`
	FruitType    *string `validate:"omitempty,max=40"`
	Haul         *bool
	Load         *bool
	Note         *string `validate:"omitempty,max=1000"`
}

type CorrectEntryInput struct {
	GuideID string `validate:"required"`
	Code    string `validate:"required,len=6,numeric"`
	Changes EntryChanges
}

// SetEntryActive toggles the soft-delete flag. Later stages are not touched.
func (s *Service) SetEntryActive(ctx context.Context, guideID string, active bool) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if err := domain.ValidateGuideID(guideID); err != nil {
		return err
	}

	if err := s.stores.Entry.SetActive(ctx, guideID, active); err != nil {
		if errors.Is(err, ports.ErrRecordNotFound) {
			return &domain.NotFoundError{GuideID: guideID}
		}
		return errs.Wrapf(err, "set entry %s active", guideID)
	}

	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "usecase.guide.entry")),
		"entry active flag changed",
		slog.String("guide_id", guideID),
		slog.Bool("active", active),
	)
	return nil
}

// IssueAuthorizationCode stores a one-time six digit code for a corrective edit of guideID.
func (s *Service) IssueAuthorizationCode(ctx context.Context, guideID string) (string, time.Time, error) {
	if err := checkContext(ctx); err != nil {
		return "", time.Time{}, err
	}
	if s.cache == nil {
		return "", time.Time{}, errors.New("authorization code store is not configured")
	}
	if err := domain.ValidateGuideID(guideID); err != nil {
		return "", time.Time{}, err
	}

	exists, err := s.stores.Entry.Exists(ctx, guideID)
	if err != nil {
		return "", time.Time{}, errs.Wrapf(err, "check entry %s", guideID)
	}
	if !exists {
		return "", time.Time{}, &domain.NotFoundError{GuideID: guideID}
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", time.Time{}, errs.Wrap(err, "generate authorization code")
	}
	code := fmt.Sprintf("%06d", n.Int64())

	if err := s.cache.Set(ctx, authCodeKeyPrefix+guideID, code, s.authCodeTTL); err != nil {
		return "", time.Time{}, errs.Wrap(err, "store authorization code")
	}

	expiresAt := s.now().Add(s.authCodeTTL)
	logging.Info(
		logging.WithAttrs(ctx, slog.String("component", "usecase.guide.entry")),
		"authorization code issued",
		slog.String("guide_id", guideID),
		slog.Time("expires_at", expiresAt),
	)
	return code, expiresAt, nil
}

// CorrectEntry applies a corrective edit after consuming the guide's authorization code.
func (s *Service) CorrectEntry(ctx context.Context, input CorrectEntryInput) (ports.EntryRecord, error) {
	if err := checkContext(ctx); err != nil {
		return ports.EntryRecord{}, err
	}
	if err := s.validate.Struct(input); err != nil {
		return ports.EntryRecord{}, errs.Wrap(err, "validate correction")
	}
	if s.cache == nil {
		return ports.EntryRecord{}, errors.New("authorization code store is not configured")
	}

	guideID := strings.TrimSpace(input.GuideID)
	if err := domain.ValidateGuideID(guideID); err != nil {
		return ports.EntryRecord{}, err
	}
	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.guide.entry"),
		slog.String("guide_id", guideID),
	)

	// The code is only consumed once the edit has an entry to apply to.
	entry, err := s.stores.Entry.Get(ctx, guideID)
	if err != nil {
		if errors.Is(err, ports.ErrRecordNotFound) {
			return ports.EntryRecord{}, &domain.NotFoundError{GuideID: guideID}
		}
		return ports.EntryRecord{}, errs.Wrapf(err, "get entry %s", guideID)
	}

	key := authCodeKeyPrefix + guideID
	stored, found, err := s.cache.Get(ctx, key)
	if err != nil {
		return ports.EntryRecord{}, errs.Wrap(err, "load authorization code")
	}
	if !found || subtle.ConstantTimeCompare([]byte(stored), []byte(input.Code)) != 1 {
		logging.Warn(logCtx, "corrective edit rejected")
		return ports.EntryRecord{}, domain.ErrAuthorizationDenied
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		return ports.EntryRecord{}, errs.Wrap(err, "consume authorization code")
	}

	applyChanges(&entry, input.Changes)
	if _, err := s.stores.Entry.Upsert(ctx, entry); err != nil {
		return ports.EntryRecord{}, errs.Wrap(err, "save corrected entry")
	}

	logging.Info(logCtx, "entry corrected", slog.String("origen", string(entry.Source)))
	entry.Source = ports.EntrySourceTable
	return entry, nil
}

func applyChanges(entry *ports.EntryRecord, changes EntryChanges) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&entry.ProviderName, changes.ProviderName)
	set(&entry.Plate, changes.Plate)
	set(&entry.Carrier, changes.Carrier)
	set(&entry.BunchCount, changes.BunchCount)
	set(&entry.FruitType, changes.FruitType)
	set(&entry.Note, changes.Note)
	if changes.Plate != nil {
		entry.Plate = strings.ToUpper(entry.Plate)
	}
	if changes.Haul != nil {
		entry.Haul = *changes.Haul
	}
	if changes.Load != nil {
		entry.Load = *changes.Load
	}
}
