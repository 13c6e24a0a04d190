package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"guias/internal/bootstrap/logging"
	"guias/internal/errs"
	"guias/internal/infrastructure/persistence/sqlite/model"
	"guias/internal/ports"
)

var entryUpdateColumns = []string{
	"codigo_proveedor",
	"nombre_proveedor",
	"placa",
	"transportador",
	"cantidad_racimos",
	"tipo_fruta",
	"acarreo",
	"cargo",
	"observaciones",
	"imagen",
	"timestamp_registro_utc",
	"is_active",
	"campos_extra",
}

// EntryRepository is the entry stage adapter. Reads go to the table first and fall back to the
// legacy file store; a legacy hit is returned as-is and never copied into the table.
type EntryRepository struct {
	db            *gorm.DB
	legacy        ports.LegacyEntrySource
	lookupTimeout time.Duration
	table         tableGuard
}

var _ ports.EntryStore = (*EntryRepository)(nil)

func NewEntryRepository(db *gorm.DB, legacy ports.LegacyEntrySource, lookupTimeout time.Duration) *EntryRepository {
	return &EntryRepository{
		db:            db,
		legacy:        legacy,
		lookupTimeout: lookupTimeout,
		table:         tableGuard{model: &model.Entry{}},
	}
}

func (r *EntryRepository) conn(ctx context.Context) (*gorm.DB, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}
	if err := r.table.ensure(db); err != nil {
		return nil, errs.Wrap(err, "ensure entradas table")
	}
	return db, nil
}

func (r *EntryRepository) Get(ctx context.Context, guideID string) (ports.EntryRecord, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return ports.EntryRecord{}, err
	}

	row, err := takeByGuideID[model.Entry](db, guideID)
	if err == nil {
		return entryFromModel(row)
	}
	if !errors.Is(err, ports.ErrRecordNotFound) {
		return ports.EntryRecord{}, errs.Wrap(err, "get entry")
	}

	return r.loadLegacy(ctx, guideID)
}

func (r *EntryRepository) loadLegacy(ctx context.Context, guideID string) (ports.EntryRecord, error) {
	if r.legacy == nil {
		return ports.EntryRecord{}, ports.ErrRecordNotFound
	}

	lookupCtx := ctx
	if r.lookupTimeout > 0 {
		var cancel context.CancelFunc
		lookupCtx, cancel = context.WithTimeout(ctx, r.lookupTimeout)
		defer cancel()
	}

	record, err := r.legacy.Load(lookupCtx, guideID)
	if err != nil {
		if !errors.Is(err, ports.ErrRecordNotFound) {
			logging.Warn(
				logging.WithAttrs(ctx, slog.String("component", "persistence.entry")),
				"legacy entry lookup unavailable",
				slog.String("guide_id", guideID),
				slog.Any("err", errs.Loggable(err)),
			)
		}
		return ports.EntryRecord{}, ports.ErrRecordNotFound
	}

	record.Source = ports.EntrySourceLegacy
	return record, nil
}

func (r *EntryRepository) Exists(ctx context.Context, guideID string) (bool, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return false, err
	}

	found, err := existsByGuideID[model.Entry](db, guideID)
	if err != nil || found {
		return found, err
	}

	if _, err := r.loadLegacy(ctx, guideID); err != nil {
		return false, nil
	}
	return true, nil
}

func (r *EntryRepository) Upsert(ctx context.Context, record ports.EntryRecord) (bool, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return false, err
	}

	row, err := entryToModel(record)
	if err != nil {
		return false, err
	}
	return upsertByGuideID(db, row.GuideID, &row, entryUpdateColumns)
}

func (r *EntryRepository) Insert(ctx context.Context, record ports.EntryRecord) (bool, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return false, err
	}

	row, err := entryToModel(record)
	if err != nil {
		return false, err
	}
	return insertByGuideID(db, row.GuideID, &row)
}

// GetByProviderCode lists active table entries of a provider, newest first.
func (r *EntryRepository) GetByProviderCode(ctx context.Context, providerCode string) ([]ports.EntryRecord, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Entry
	if err := db.
		Where("codigo_proveedor = ?", strings.TrimSpace(providerCode)).
		Where("is_active = ?", true).
		Order("timestamp_registro_utc desc").
		Order("codigo_guia desc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query entries by provider")
	}
	return entriesFromModels(rows)
}

func (r *EntryRepository) GetLatestByProviderCode(ctx context.Context, providerCode string) (ports.EntryRecord, error) {
	items, err := r.GetByProviderCode(ctx, providerCode)
	if err != nil {
		return ports.EntryRecord{}, err
	}
	if len(items) == 0 {
		return ports.EntryRecord{}, ports.ErrRecordNotFound
	}
	return items[0], nil
}

// ListRecentByProviderCode includes inactive rows so the duplicate guard sees every submission.
func (r *EntryRepository) ListRecentByProviderCode(ctx context.Context, providerCode string, sinceUTC string) ([]ports.EntryRecord, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Entry
	if err := db.
		Where("codigo_proveedor = ?", strings.TrimSpace(providerCode)).
		Where("timestamp_registro_utc >= ?", sinceUTC).
		Order("timestamp_registro_utc desc").
		Order("codigo_guia desc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query recent entries by provider")
	}
	return entriesFromModels(rows)
}

func (r *EntryRepository) SetActive(ctx context.Context, guideID string, active bool) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&model.Entry{}).Where("codigo_guia = ?", guideID).Update("is_active", active)
	if result.Error != nil {
		return errs.Wrap(result.Error, "update entry active flag")
	}
	if result.RowsAffected == 0 {
		return ports.ErrRecordNotFound
	}
	return nil
}

func entryToModel(record ports.EntryRecord) (model.Entry, error) {
	var extra datatypes.JSON
	if len(record.Extra) > 0 {
		raw, err := json.Marshal(record.Extra)
		if err != nil {
			return model.Entry{}, errs.Wrap(err, "marshal entry extra fields")
		}
		extra = raw
	}

	active := record.Active
	return model.Entry{
		GuideID:      strings.TrimSpace(record.GuideID),
		ProviderCode: strings.TrimSpace(record.ProviderCode),
		ProviderName: record.ProviderName,
		Plate:        record.Plate,
		Carrier:      record.Carrier,
		BunchCount:   record.BunchCount,
		FruitType:    record.FruitType,
		Haul:         record.Haul,
		Load:         record.Load,
		Note:         record.Note,
		Image:        record.Image,
		TimestampUTC: record.CreatedAtUTC,
		IsActive:     &active,
		Extra:        extra,
	}, nil
}

func entryFromModel(row model.Entry) (ports.EntryRecord, error) {
	var extra map[string]string
	if len(row.Extra) > 0 && string(row.Extra) != "null" {
		if err := json.Unmarshal(row.Extra, &extra); err != nil {
			return ports.EntryRecord{}, errs.Wrapf(err, "decode extra fields of %s", row.GuideID)
		}
	}

	active := true
	if row.IsActive != nil {
		active = *row.IsActive
	}

	return ports.EntryRecord{
		GuideID:      row.GuideID,
		ProviderCode: row.ProviderCode,
		ProviderName: row.ProviderName,
		Plate:        row.Plate,
		Carrier:      row.Carrier,
		BunchCount:   row.BunchCount,
		FruitType:    row.FruitType,
		Haul:         row.Haul,
		Load:         row.Load,
		Note:         row.Note,
		Image:        row.Image,
		CreatedAtUTC: row.TimestampUTC,
		Active:       active,
		Extra:        extra,
		Source:       ports.EntrySourceTable,
	}, nil
}

func entriesFromModels(rows []model.Entry) ([]ports.EntryRecord, error) {
	items := make([]ports.EntryRecord, 0, len(rows))
	for _, row := range rows {
		item, err := entryFromModel(row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
