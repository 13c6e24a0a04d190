package ports

import "context"

// LegacyEntrySource reads per-guide files written before the entry table existed.
type LegacyEntrySource interface {
	Load(ctx context.Context, guideID string) (EntryRecord, error)
	Scan(ctx context.Context) ([]string, error)
}
