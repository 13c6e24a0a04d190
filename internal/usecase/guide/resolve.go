package guide

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"guias/internal/bootstrap/logging"
	domain "guias/internal/domain/guide"
	"guias/internal/errs"
	"guias/internal/ports"
)

// stageReads holds what the four non-entry stage stores returned for one guide.
type stageReads struct {
	gross          *ports.GrossWeighingRecord
	classification *ports.ClassificationRecord
	net            *ports.NetWeighingRecord
	exit           *ports.ExitRecord
}

func (r stageReads) any() bool {
	return r.gross != nil || r.classification != nil || r.net != nil || r.exit != nil
}

// Resolve assembles the consolidated guide. A missing entry is a hard miss (*domain.NotFoundError);
// any other stage that cannot be read is logged and treated as absent.
func (s *Service) Resolve(ctx context.Context, guideID string) (ConsolidatedGuide, error) {
	if err := checkContext(ctx); err != nil {
		return ConsolidatedGuide{}, err
	}
	if err := domain.ValidateGuideID(guideID); err != nil {
		return ConsolidatedGuide{}, err
	}

	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "usecase.guide.resolve"),
		slog.String("guide_id", guideID),
	)

	entry, err := s.stores.Entry.Get(ctx, guideID)
	if err != nil {
		if !errors.Is(err, ports.ErrRecordNotFound) {
			return ConsolidatedGuide{}, errs.Wrapf(err, "get entry %s", guideID)
		}
		return ConsolidatedGuide{}, s.notFound(ctx, logCtx, guideID)
	}

	reads, err := s.readStages(ctx, logCtx, guideID)
	if err != nil {
		return ConsolidatedGuide{}, err
	}

	resolved := s.consolidate(logCtx, entry, reads)
	s.metrics.GuideResolved(string(resolved.State))
	if entry.Source == ports.EntrySourceLegacy {
		s.metrics.LegacyFallback()
	}
	for _, anomaly := range resolved.Anomalies {
		logging.Warn(logCtx, "guide anomaly", slog.String("anomaly", anomaly))
	}
	logging.Debug(logCtx, "guide resolved", slog.String("estado", string(resolved.State)))
	return resolved, nil
}

// notFound distinguishes a genuinely unknown id from an orphan with later-stage records.
func (s *Service) notFound(ctx context.Context, logCtx context.Context, guideID string) error {
	s.metrics.GuideNotFound()

	reads, err := s.readStages(ctx, logCtx, guideID)
	if err != nil {
		return err
	}
	if reads.any() {
		logging.Warn(logCtx, "stage records exist without an entry")
		return &domain.NotFoundError{GuideID: guideID, Orphan: true}
	}
	return &domain.NotFoundError{GuideID: guideID}
}

// readStages fetches the four non-entry stages concurrently. Only cancellation of ctx is returned
// as an error; store failures degrade to an absent stage.
func (s *Service) readStages(ctx context.Context, logCtx context.Context, guideID string) (stageReads, error) {
	var reads stageReads
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if s.stores.GrossWeighing == nil {
			return nil
		}
		rec, err := s.stores.GrossWeighing.Get(gCtx, guideID)
		if s.stageAvailable(logCtx, domain.StageGrossWeighing, err) {
			reads.gross = &rec
		}
		return nil
	})
	g.Go(func() error {
		if s.stores.Classification == nil {
			return nil
		}
		rec, err := s.stores.Classification.Get(gCtx, guideID)
		if s.stageAvailable(logCtx, domain.StageClassification, err) {
			reads.classification = &rec
		}
		return nil
	})
	g.Go(func() error {
		if s.stores.NetWeighing == nil {
			return nil
		}
		rec, err := s.stores.NetWeighing.Get(gCtx, guideID)
		if s.stageAvailable(logCtx, domain.StageNetWeighing, err) {
			reads.net = &rec
		}
		return nil
	})
	g.Go(func() error {
		if s.stores.Exit == nil {
			return nil
		}
		rec, err := s.stores.Exit.Get(gCtx, guideID)
		if s.stageAvailable(logCtx, domain.StageExit, err) {
			reads.exit = &rec
		}
		return nil
	})

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return stageReads{}, errs.Wrap(err, "read stages")
	}
	return reads, nil
}

func (s *Service) stageAvailable(logCtx context.Context, stage domain.Stage, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, ports.ErrRecordNotFound) {
		return false
	}

	unavailable := &domain.StageUnavailableError{Stage: stage, Err: err}
	s.metrics.StageUnavailable(string(stage))
	logging.Warn(logCtx, "stage treated as absent", slog.String("etapa", string(stage)), slog.Any("err", errs.Loggable(unavailable)))
	return false
}

func (s *Service) consolidate(logCtx context.Context, entry ports.EntryRecord, reads stageReads) ConsolidatedGuide {
	records := map[domain.Stage]domain.Record{
		domain.StageEntry: domain.Normalize(domain.StageEntry, rawEntry(entry)),
	}
	present := map[domain.Stage]bool{domain.StageEntry: true}
	snapshot := domain.Snapshot{IsPepa: domain.IsPepa(entry.FruitType)}

	if reads.gross != nil {
		records[domain.StageGrossWeighing] = domain.Normalize(domain.StageGrossWeighing, rawGross(*reads.gross))
		present[domain.StageGrossWeighing] = true
		snapshot.HasGrossRecord = true
		snapshot.HasGrossWeight = reads.gross.GrossWeight.Valid
	}
	if reads.classification != nil {
		records[domain.StageClassification] = domain.Normalize(domain.StageClassification, rawClassification(*reads.classification))
		present[domain.StageClassification] = true
		snapshot.HasClassificationRecord = true
		snapshot.HasClassificationPayload = reads.classification.HasPayload()
	}
	if reads.net != nil {
		records[domain.StageNetWeighing] = domain.Normalize(domain.StageNetWeighing, rawNet(*reads.net))
		present[domain.StageNetWeighing] = true
		snapshot.HasNetRecord = true
		snapshot.HasNetWeight = reads.net.NetWeight.Valid
	}
	if reads.exit != nil {
		records[domain.StageExit] = domain.Normalize(domain.StageExit, rawExit(*reads.exit))
		present[domain.StageExit] = true
		snapshot.HasExit = true
	}

	fields := domain.Merge(records)
	fillAbsentStages(fields, present)
	s.attachLocalTimes(logCtx, fields)

	if snapshot.IsPepa && !present[domain.StageClassification] {
		// The gross weighing time stands in for the skipped classification.
		fields[domain.StageClassification.DateField()] = fields[domain.StageGrossWeighing.DateField()]
		fields[domain.StageClassification.TimeField()] = fields[domain.StageGrossWeighing.TimeField()]
	}

	state, completed := domain.Classify(snapshot)
	return ConsolidatedGuide{
		GuideID:   entry.GuideID,
		Fields:    fields,
		State:     state,
		IsPepa:    snapshot.IsPepa,
		Completed: completed,
		Anomalies: domain.Anomalies(snapshot),
		Source:    entry.Source,
	}
}

// fillAbsentStages guarantees every canonical key of every stage carries at least the sentinel.
func fillAbsentStages(fields domain.Record, present map[domain.Stage]bool) {
	for _, stage := range domain.Stages {
		if present[stage] {
			continue
		}
		for _, alias := range domain.Aliases(stage) {
			if _, ok := fields[alias.Canonical]; !ok {
				fields[alias.Canonical] = domain.NotAvailable
			}
		}
	}
}

func (s *Service) attachLocalTimes(logCtx context.Context, fields domain.Record) {
	for _, stage := range domain.Stages {
		utc := fields[stage.TimestampField()]
		if !domain.IsPlaceholder(utc) {
			if _, _, err := domain.ParseUTC(utc); err != nil {
				logging.Warn(logCtx, "malformed stage timestamp",
					slog.String("etapa", string(stage)),
					slog.Any("err", errs.Loggable(err)),
				)
			}
		}
		date, clock := s.conv.ToLocal(utc)
		fields[stage.DateField()] = date
		fields[stage.TimeField()] = clock
	}
}
