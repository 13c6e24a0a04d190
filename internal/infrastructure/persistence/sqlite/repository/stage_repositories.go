package repository

import (
	"context"
	"encoding/json"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"guias/internal/domain/guide"
	"guias/internal/errs"
	"guias/internal/infrastructure/persistence/sqlite/model"
	"guias/internal/ports"
)

type stageTable struct {
	db    *gorm.DB
	table tableGuard
	name  string
}

func newStageTable(db *gorm.DB, m interface{ TableName() string }) *stageTable {
	return &stageTable{db: db, table: tableGuard{model: m}, name: m.TableName()}
}

func (s *stageTable) conn(ctx context.Context) (*gorm.DB, error) {
	db, err := dbFromContext(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if err := s.table.ensure(db); err != nil {
		return nil, errs.Wrapf(err, "ensure %s table", s.name)
	}
	return db, nil
}

type GrossWeighingRepository struct {
	*stageTable
}

var _ ports.GrossWeighingStore = (*GrossWeighingRepository)(nil)

func NewGrossWeighingRepository(db *gorm.DB) *GrossWeighingRepository {
	return &GrossWeighingRepository{stageTable: newStageTable(db, &model.GrossWeighing{})}
}

func (r *GrossWeighingRepository) Get(ctx context.Context, guideID string) (ports.GrossWeighingRecord, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return ports.GrossWeighingRecord{}, err
	}
	row, err := takeByGuideID[model.GrossWeighing](db, guideID)
	if err != nil {
		return ports.GrossWeighingRecord{}, err
	}
	return ports.GrossWeighingRecord{
		GuideID:      row.GuideID,
		GrossWeight:  row.GrossWeight,
		Method:       row.Method,
		Image:        row.Image,
		TransportDoc: row.TransportDoc,
		TimestampUTC: row.TimestampUTC,
	}, nil
}

func (r *GrossWeighingRepository) Upsert(ctx context.Context, record ports.GrossWeighingRecord) (bool, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return false, err
	}
	row := model.GrossWeighing{
		GuideID:      strings.TrimSpace(record.GuideID),
		GrossWeight:  record.GrossWeight,
		Method:       record.Method,
		Image:        record.Image,
		TransportDoc: record.TransportDoc,
		TimestampUTC: record.TimestampUTC,
	}
	return upsertByGuideID(db, row.GuideID, &row, []string{
		"peso_bruto", "tipo_pesaje", "imagen", "codigo_guia_transporte_sap", "timestamp_pesaje_utc",
	})
}

type ClassificationRepository struct {
	*stageTable
}

var _ ports.ClassificationStore = (*ClassificationRepository)(nil)

func NewClassificationRepository(db *gorm.DB) *ClassificationRepository {
	return &ClassificationRepository{stageTable: newStageTable(db, &model.Classification{})}
}

func (r *ClassificationRepository) Get(ctx context.Context, guideID string) (ports.ClassificationRecord, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return ports.ClassificationRecord{}, err
	}
	row, err := takeByGuideID[model.Classification](db, guideID)
	if err != nil {
		return ports.ClassificationRecord{}, err
	}

	manual, err := decodeDefectCounts(row.Manual)
	if err != nil {
		return ports.ClassificationRecord{}, errs.Wrapf(err, "decode manual classification of %s", guideID)
	}
	automatic, err := decodeDefectCounts(row.Automatic)
	if err != nil {
		return ports.ClassificationRecord{}, errs.Wrapf(err, "decode automatic classification of %s", guideID)
	}

	return ports.ClassificationRecord{
		GuideID:       row.GuideID,
		Manual:        manual,
		Automatic:     automatic,
		DetectedTotal: row.DetectedTotal,
		Status:        row.Status,
		TimestampUTC:  row.TimestampUTC,
	}, nil
}

func (r *ClassificationRepository) Upsert(ctx context.Context, record ports.ClassificationRecord) (bool, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return false, err
	}
	row, err := classificationToModel(record)
	if err != nil {
		return false, err
	}
	return upsertByGuideID(db, row.GuideID, &row, []string{
		"clasificacion_manual", "clasificacion_automatica", "total_racimos_detectados",
		"estado_clasificacion", "timestamp_clasificacion_utc",
	})
}

// Insert keeps an existing classification untouched; used for the synthetic pepa record.
func (r *ClassificationRepository) Insert(ctx context.Context, record ports.ClassificationRecord) (bool, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return false, err
	}
	row, err := classificationToModel(record)
	if err != nil {
		return false, err
	}
	return insertByGuideID(db, row.GuideID, &row)
}

func classificationToModel(record ports.ClassificationRecord) (model.Classification, error) {
	manual, err := encodeDefectCounts(record.Manual)
	if err != nil {
		return model.Classification{}, errs.Wrap(err, "encode manual classification")
	}
	automatic, err := encodeDefectCounts(record.Automatic)
	if err != nil {
		return model.Classification{}, errs.Wrap(err, "encode automatic classification")
	}
	return model.Classification{
		GuideID:       strings.TrimSpace(record.GuideID),
		Manual:        manual,
		Automatic:     automatic,
		DetectedTotal: record.DetectedTotal,
		Status:        record.Status,
		TimestampUTC:  record.TimestampUTC,
	}, nil
}

func encodeDefectCounts(counts guide.DefectCounts) (datatypes.JSON, error) {
	if counts.Empty() {
		return nil, nil
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func decodeDefectCounts(raw datatypes.JSON) (guide.DefectCounts, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" || trimmed == "{}" {
		return nil, nil
	}
	var counts guide.DefectCounts
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, err
	}
	return counts, nil
}

type NetWeighingRepository struct {
	*stageTable
}

var _ ports.NetWeighingStore = (*NetWeighingRepository)(nil)

func NewNetWeighingRepository(db *gorm.DB) *NetWeighingRepository {
	return &NetWeighingRepository{stageTable: newStageTable(db, &model.NetWeighing{})}
}

func (r *NetWeighingRepository) Get(ctx context.Context, guideID string) (ports.NetWeighingRecord, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return ports.NetWeighingRecord{}, err
	}
	row, err := takeByGuideID[model.NetWeighing](db, guideID)
	if err != nil {
		return ports.NetWeighingRecord{}, err
	}
	return ports.NetWeighingRecord{
		GuideID:       row.GuideID,
		TareWeight:    row.TareWeight,
		NetWeight:     row.NetWeight,
		ProductWeight: row.ProductWeight,
		TimestampUTC:  row.TimestampUTC,
	}, nil
}

func (r *NetWeighingRepository) Upsert(ctx context.Context, record ports.NetWeighingRecord) (bool, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return false, err
	}
	row := model.NetWeighing{
		GuideID:       strings.TrimSpace(record.GuideID),
		TareWeight:    record.TareWeight,
		NetWeight:     record.NetWeight,
		ProductWeight: record.ProductWeight,
		TimestampUTC:  record.TimestampUTC,
	}
	return upsertByGuideID(db, row.GuideID, &row, []string{
		"peso_tara", "peso_neto", "peso_producto", "timestamp_pesaje_neto_utc",
	})
}

type ExitRepository struct {
	*stageTable
}

var _ ports.ExitStore = (*ExitRepository)(nil)

func NewExitRepository(db *gorm.DB) *ExitRepository {
	return &ExitRepository{stageTable: newStageTable(db, &model.Exit{})}
}

func (r *ExitRepository) Get(ctx context.Context, guideID string) (ports.ExitRecord, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return ports.ExitRecord{}, err
	}
	row, err := takeByGuideID[model.Exit](db, guideID)
	if err != nil {
		return ports.ExitRecord{}, err
	}
	return ports.ExitRecord{
		GuideID:      row.GuideID,
		Comments:     row.Comments,
		TimestampUTC: row.TimestampUTC,
	}, nil
}

func (r *ExitRepository) Upsert(ctx context.Context, record ports.ExitRecord) (bool, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return false, err
	}
	row := model.Exit{
		GuideID:      strings.TrimSpace(record.GuideID),
		Comments:     record.Comments,
		TimestampUTC: record.TimestampUTC,
	}
	return upsertByGuideID(db, row.GuideID, &row, []string{"comentarios", "timestamp_salida_utc"})
}
