package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"guias/internal/domain/guide"
)

// ErrRecordNotFound is returned by stage stores when no row exists for a guide id.
var ErrRecordNotFound = errors.New("stage record not found")

type EntrySource string

const (
	EntrySourceTable  EntrySource = "table"
	EntrySourceLegacy EntrySource = "legacy"
)

type EntryRecord struct {
	GuideID      string
	ProviderCode string
	ProviderName string
	Plate        string
	Carrier      string
	BunchCount   string
	FruitType    string
	Haul         bool
	Load         bool
	Note         string
	Image        string
	CreatedAtUTC string
	Active       bool
	// Extra keeps fields without a canonical column so they still reach the consolidated guide.
	Extra  map[string]string
	Source EntrySource
}

type GrossWeighingRecord struct {
	GuideID      string
	GrossWeight  decimal.NullDecimal
	Method       string
	Image        string
	TransportDoc string
	TimestampUTC string
}

type ClassificationRecord struct {
	GuideID       string
	Manual        guide.DefectCounts
	Automatic     guide.DefectCounts
	DetectedTotal int
	Status        string
	TimestampUTC  string
}

// HasPayload reports whether any manual or automatic count was recorded.
func (r ClassificationRecord) HasPayload() bool {
	return !r.Manual.Empty() || !r.Automatic.Empty()
}

type NetWeighingRecord struct {
	GuideID       string
	TareWeight    decimal.NullDecimal
	NetWeight     decimal.NullDecimal
	ProductWeight decimal.NullDecimal
	TimestampUTC  string
}

type ExitRecord struct {
	GuideID      string
	Comments     string
	TimestampUTC string
}

// EntryStore reads the table first and falls back to the legacy file store on Get only.
type EntryStore interface {
	Get(ctx context.Context, guideID string) (EntryRecord, error)
	// Exists checks both sources without loading the legacy payload into the table.
	Exists(ctx context.Context, guideID string) (bool, error)
	Upsert(ctx context.Context, record EntryRecord) (bool, error)
	// Insert never overwrites; it reports false when the guide id is already taken.
	Insert(ctx context.Context, record EntryRecord) (bool, error)
	GetByProviderCode(ctx context.Context, providerCode string) ([]EntryRecord, error)
	GetLatestByProviderCode(ctx context.Context, providerCode string) (EntryRecord, error)
	ListRecentByProviderCode(ctx context.Context, providerCode string, sinceUTC string) ([]EntryRecord, error)
	SetActive(ctx context.Context, guideID string, active bool) error
}

type GrossWeighingStore interface {
	Get(ctx context.Context, guideID string) (GrossWeighingRecord, error)
	Upsert(ctx context.Context, record GrossWeighingRecord) (bool, error)
}

type ClassificationStore interface {
	Get(ctx context.Context, guideID string) (ClassificationRecord, error)
	Upsert(ctx context.Context, record ClassificationRecord) (bool, error)
	Insert(ctx context.Context, record ClassificationRecord) (bool, error)
}

type NetWeighingStore interface {
	Get(ctx context.Context, guideID string) (NetWeighingRecord, error)
	Upsert(ctx context.Context, record NetWeighingRecord) (bool, error)
}

type ExitStore interface {
	Get(ctx context.Context, guideID string) (ExitRecord, error)
	Upsert(ctx context.Context, record ExitRecord) (bool, error)
}

// StageStores groups the five adapters consumed by the resolver.
type StageStores struct {
	Entry          EntryStore
	GrossWeighing  GrossWeighingStore
	Classification ClassificationStore
	NetWeighing    NetWeighingStore
	Exit           ExitStore
}
