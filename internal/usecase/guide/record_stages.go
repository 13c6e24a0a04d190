package guide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"guias/internal/bootstrap/logging"
	domain "guias/internal/domain/guide"
	"guias/internal/errs"
	"guias/internal/ports"
)

var (
	errWeightRequired    = errors.New("weight must be greater than zero")
	errNegativeNetWeight = errors.New("tare weight exceeds gross weight")
)

type GrossWeighingInput struct {
	GuideID      string          `validate:"required"`
	GrossWeight  decimal.Decimal `validate:"-"`
	Method       string          `validate:"omitempty,oneof=directo virtual pepa"`
	Image        string          `validate:"omitempty,max=255"`
	TransportDoc string          `validate:"omitempty,max=64"`
}

type ClassificationInput struct {
	GuideID       string `validate:"required"`
	Manual        domain.DefectCounts
	Automatic     domain.DefectCounts
	DetectedTotal int    `validate:"gte=0"`
	Status        string `validate:"omitempty,max=40"`
}

type NetWeighingInput struct {
	GuideID    string              `validate:"required"`
	TareWeight decimal.NullDecimal `validate:"-"`
	// NetWeight is derived from the gross weight when omitted.
	NetWeight decimal.NullDecimal `validate:"-"`
}

type ExitInput struct {
	GuideID  string `validate:"required"`
	Comments string `validate:"omitempty,max=2000"`
}

// entryForStage loads the entry a stage write belongs to. Writes ahead of the entry are accepted.
func (s *Service) entryForStage(ctx context.Context, logCtx context.Context, guideID string) (*ports.EntryRecord, error) {
	entry, err := s.stores.Entry.Get(ctx, guideID)
	if err != nil {
		if errors.Is(err, ports.ErrRecordNotFound) {
			logging.Warn(logCtx, "stage recorded before entry")
			return nil, nil
		}
		return nil, errs.Wrapf(err, "get entry %s", guideID)
	}
	return &entry, nil
}

func (s *Service) prepareStage(ctx context.Context, input any, guideID string, stage domain.Stage) (context.Context, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, errs.Wrapf(err, "validate %s", stage)
	}
	if err := domain.ValidateGuideID(guideID); err != nil {
		return nil, err
	}
	return logging.WithAttrs(ctx,
		slog.String("component", "usecase.guide.record_"+string(stage)),
		slog.String("guide_id", guideID),
	), nil
}

// RecordGrossWeighing stores the gross weight. For pepa guides it also inserts the empty
// classification that marks the stage as skipped, in the same transaction.
func (s *Service) RecordGrossWeighing(ctx context.Context, input GrossWeighingInput) error {
	guideID := strings.TrimSpace(input.GuideID)
	logCtx, err := s.prepareStage(ctx, input, guideID, domain.StageGrossWeighing)
	if err != nil {
		return err
	}
	if !input.GrossWeight.IsPositive() {
		return errWeightRequired
	}

	entry, err := s.entryForStage(ctx, logCtx, guideID)
	if err != nil {
		return err
	}
	isPepa := entry != nil && domain.IsPepa(entry.FruitType)

	method := strings.TrimSpace(input.Method)
	if method == "" {
		method = domain.WeighingDirect
		if isPepa {
			method = domain.WeighingPepa
		}
	}

	now := s.nowUTC()
	record := ports.GrossWeighingRecord{
		GuideID:      guideID,
		GrossWeight:  decimal.NewNullDecimal(input.GrossWeight),
		Method:       method,
		Image:        input.Image,
		TransportDoc: strings.TrimSpace(input.TransportDoc),
		TimestampUTC: now,
	}

	return s.withTx(ctx, func(txCtx context.Context) error {
		if _, err := s.stores.GrossWeighing.Upsert(txCtx, record); err != nil {
			return errs.Wrap(err, "upsert gross weighing")
		}
		if isPepa {
			inserted, err := s.stores.Classification.Insert(txCtx, ports.ClassificationRecord{
				GuideID:      guideID,
				TimestampUTC: now,
			})
			if err != nil {
				return errs.Wrap(err, "insert pepa classification")
			}
			if inserted {
				logging.Info(logCtx, "classification skipped for pepa")
			}
		}
		logging.Info(logCtx, "gross weighing recorded", slog.String("peso_bruto", input.GrossWeight.String()))
		return nil
	})
}

func (s *Service) RecordClassification(ctx context.Context, input ClassificationInput) error {
	guideID := strings.TrimSpace(input.GuideID)
	logCtx, err := s.prepareStage(ctx, input, guideID, domain.StageClassification)
	if err != nil {
		return err
	}
	if err := input.Manual.Validate(); err != nil {
		return errs.Wrap(err, "validate manual classification")
	}
	if err := input.Automatic.Validate(); err != nil {
		return errs.Wrap(err, "validate automatic classification")
	}
	if input.Manual.Empty() && input.Automatic.Empty() {
		return errors.New("classification requires manual or automatic counts")
	}

	if _, err := s.stores.Classification.Upsert(ctx, ports.ClassificationRecord{
		GuideID:       guideID,
		Manual:        input.Manual,
		Automatic:     input.Automatic,
		DetectedTotal: input.DetectedTotal,
		Status:        strings.TrimSpace(input.Status),
		TimestampUTC:  s.nowUTC(),
	}); err != nil {
		return errs.Wrap(err, "upsert classification")
	}

	logging.Info(logCtx, "classification recorded")
	return nil
}

// RecordNetWeighing stores tare and net weights. Net = gross - tare when net is omitted; pepa
// guides carry the net weight as product weight.
func (s *Service) RecordNetWeighing(ctx context.Context, input NetWeighingInput) error {
	guideID := strings.TrimSpace(input.GuideID)
	logCtx, err := s.prepareStage(ctx, input, guideID, domain.StageNetWeighing)
	if err != nil {
		return err
	}
	if !input.TareWeight.Valid && !input.NetWeight.Valid {
		return errors.New("tare or net weight is required")
	}
	if input.TareWeight.Valid && input.TareWeight.Decimal.IsNegative() {
		return fmt.Errorf("tare weight %s is negative", input.TareWeight.Decimal)
	}

	net := input.NetWeight
	if !net.Valid {
		gross, err := s.stores.GrossWeighing.Get(ctx, guideID)
		switch {
		case err == nil && gross.GrossWeight.Valid:
			derived := gross.GrossWeight.Decimal.Sub(input.TareWeight.Decimal)
			if derived.IsNegative() {
				return errNegativeNetWeight
			}
			net = decimal.NewNullDecimal(derived)
		case err != nil && !errors.Is(err, ports.ErrRecordNotFound):
			return errs.Wrap(err, "get gross weighing")
		default:
			logging.Warn(logCtx, "net weight not derived, gross weight missing")
		}
	}

	entry, err := s.entryForStage(ctx, logCtx, guideID)
	if err != nil {
		return err
	}

	record := ports.NetWeighingRecord{
		GuideID:      guideID,
		TareWeight:   input.TareWeight,
		NetWeight:    net,
		TimestampUTC: s.nowUTC(),
	}
	if entry != nil && domain.IsPepa(entry.FruitType) {
		record.ProductWeight = net
	}

	if _, err := s.stores.NetWeighing.Upsert(ctx, record); err != nil {
		return errs.Wrap(err, "upsert net weighing")
	}

	logging.Info(logCtx, "net weighing recorded", slog.String("peso_neto", decimalString(net)))
	return nil
}

// RecordExit closes the guide; the exit row's existence is the closed state.
func (s *Service) RecordExit(ctx context.Context, input ExitInput) error {
	guideID := strings.TrimSpace(input.GuideID)
	logCtx, err := s.prepareStage(ctx, input, guideID, domain.StageExit)
	if err != nil {
		return err
	}

	if _, err := s.stores.Exit.Upsert(ctx, ports.ExitRecord{
		GuideID:      guideID,
		Comments:     strings.TrimSpace(input.Comments),
		TimestampUTC: s.nowUTC(),
	}); err != nil {
		return errs.Wrap(err, "upsert exit")
	}

	logging.Info(logCtx, "exit recorded")
	return nil
}
