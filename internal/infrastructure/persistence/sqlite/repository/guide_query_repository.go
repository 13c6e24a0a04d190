package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"guias/internal/domain/guide"
	"guias/internal/errs"
	"guias/internal/infrastructure/persistence/sqlite/model"
	"guias/internal/ports"
)

var stageTableNames = map[guide.Stage]string{
	guide.StageEntry:          model.Entry{}.TableName(),
	guide.StageGrossWeighing:  model.GrossWeighing{}.TableName(),
	guide.StageClassification: model.Classification{}.TableName(),
	guide.StageNetWeighing:    model.NetWeighing{}.TableName(),
	guide.StageExit:           model.Exit{}.TableName(),
}

type GuideQueryRepository struct {
	db *gorm.DB
}

var _ ports.GuideQueryRepository = (*GuideQueryRepository)(nil)

func NewGuideQueryRepository(db *gorm.DB) *GuideQueryRepository {
	return &GuideQueryRepository{db: db}
}

type guideListRow struct {
	GuideID           string `gorm:"column:codigo_guia"`
	StageTimestampUTC string `gorm:"column:stage_timestamp_utc"`
}

// ListGuideIDs filters on the stage's own timestamp column and the entry's provider fields.
// Bounds are inclusive naive-UTC strings, which sort lexically.
func (r *GuideQueryRepository) ListGuideIDs(ctx context.Context, filter ports.GuideListFilter) ([]ports.GuideListRow, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	stage := filter.Stage
	if stage == "" {
		stage = guide.StageEntry
	}
	table, ok := stageTableNames[stage]
	if !ok {
		return nil, fmt.Errorf("unknown stage %q", stage)
	}

	var query *gorm.DB
	var tsColumn string
	if stage == guide.StageEntry {
		tsColumn = "e." + stage.TimestampField()
		query = db.Table(table + " AS e")
	} else {
		tsColumn = "s." + stage.TimestampField()
		query = db.Table(table + " AS s").
			Joins("JOIN " + stageTableNames[guide.StageEntry] + " AS e ON e.codigo_guia = s.codigo_guia")
	}
	query = query.Select("e.codigo_guia AS codigo_guia, " + tsColumn + " AS stage_timestamp_utc")

	if from := strings.TrimSpace(filter.FromUTC); from != "" {
		query = query.Where(tsColumn+" >= ?", from)
	}
	if to := strings.TrimSpace(filter.ToUTC); to != "" {
		query = query.Where(tsColumn+" <= ?", to)
	}
	query = whereContains(query, "e.codigo_proveedor", filter.ProviderCode)
	query = whereContains(query, "e.nombre_proveedor", filter.ProviderName)
	query = whereContains(query, "e.placa", filter.Plate)
	if !filter.IncludeInactive {
		query = query.Where("e.is_active = ?", true)
	}

	query = query.Order(tsColumn + " desc").Order("e.codigo_guia desc")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []guideListRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, errs.Wrapf(err, "list guides by %s", stage)
	}

	items := make([]ports.GuideListRow, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.GuideListRow{
			GuideID:           row.GuideID,
			StageTimestampUTC: row.StageTimestampUTC,
		})
	}
	return items, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereContains matches a case-insensitive substring; LIKE wildcards in the needle match literally.
func whereContains(query *gorm.DB, column string, needle string) *gorm.DB {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return query
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(needle)) + "%"
	return query.Where("LOWER("+column+") LIKE ? ESCAPE '\\'", pattern)
}
