package legacy

import (
	"strings"

	"guias/internal/domain/guide"
	"guias/internal/ports"
)

const (
	localDateField = "fecha_registro"
	localTimeField = "hora_registro"
	activeField    = "is_active"
)

// toEntryRecord normalizes a legacy payload. The file name is the authoritative guide id.
func toEntryRecord(guideID string, raw guide.Record, conv guide.Converter) ports.EntryRecord {
	tsField := guide.StageEntry.TimestampField()
	working := make(guide.Record, len(raw)+2)
	for key, value := range raw {
		working[key] = value
	}
	working[guide.FieldGuideID] = guideID

	norm := guide.Normalize(guide.StageEntry, working)
	if !norm.Present(tsField) && !guide.IsPlaceholder(raw[localDateField]) {
		if utc, err := conv.LocalToUTC(raw[localDateField], raw[localTimeField]); err == nil {
			norm[tsField] = utc
		}
	}

	providerCode := field(norm, guide.FieldProviderCode)
	if providerCode == "" {
		providerCode = guide.ProviderCodeFromGuideID(guideID)
	}

	active := true
	if value, ok := norm[activeField]; ok && !guide.IsPlaceholder(value) {
		active = parseFlag(value)
	}

	canonical := make(map[string]struct{})
	for _, f := range guide.Aliases(guide.StageEntry) {
		canonical[f.Canonical] = struct{}{}
	}
	extra := make(map[string]string)
	for key, value := range norm {
		if _, ok := canonical[key]; ok {
			continue
		}
		switch key {
		case localDateField, localTimeField, activeField:
			continue
		}
		extra[key] = value
	}
	if len(extra) == 0 {
		extra = nil
	}

	return ports.EntryRecord{
		GuideID:      guideID,
		ProviderCode: providerCode,
		ProviderName: field(norm, guide.FieldProviderName),
		Plate:        field(norm, guide.FieldPlate),
		Carrier:      field(norm, guide.FieldCarrier),
		BunchCount:   field(norm, guide.FieldBunchCount),
		FruitType:    field(norm, guide.FieldFruitType),
		Haul:         parseFlag(norm[guide.FieldHaul]),
		Load:         parseFlag(norm[guide.FieldLoad]),
		Note:         field(norm, guide.FieldNote),
		Image:        field(norm, guide.FieldImage),
		CreatedAtUTC: field(norm, tsField),
		Active:       active,
		Extra:        extra,
		Source:       ports.EntrySourceLegacy,
	}
}

func field(r guide.Record, key string) string {
	if !r.Present(key) {
		return ""
	}
	return r[key]
}

func parseFlag(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "si", "sí", "yes", "on", "x":
		return true
	default:
		return false
	}
}
