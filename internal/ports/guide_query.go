package ports

import (
	"context"

	"guias/internal/domain/guide"
)

type GuideListFilter struct {
	Stage           guide.Stage
	FromUTC         string
	ToUTC           string
	ProviderCode    string
	ProviderName    string
	Plate           string
	IncludeInactive bool
	Limit           int
}

type GuideListRow struct {
	GuideID           string
	StageTimestampUTC string
}

// GuideQueryRepository lists guide ids matching a filter, newest first by the stage timestamp.
type GuideQueryRepository interface {
	ListGuideIDs(ctx context.Context, filter GuideListFilter) ([]GuideListRow, error)
}
