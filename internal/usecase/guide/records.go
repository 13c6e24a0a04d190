package guide

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"

	domain "guias/internal/domain/guide"
	"guias/internal/ports"
)

// The raw* helpers turn typed stage rows into flat records for the normalizer.

func rawEntry(e ports.EntryRecord) domain.Record {
	out := make(domain.Record, len(e.Extra)+14)
	for key, value := range e.Extra {
		out[key] = value
	}
	out[domain.FieldGuideID] = e.GuideID
	out[domain.FieldProviderCode] = e.ProviderCode
	out[domain.FieldProviderName] = e.ProviderName
	out[domain.FieldPlate] = e.Plate
	out[domain.FieldCarrier] = e.Carrier
	out[domain.FieldBunchCount] = e.BunchCount
	out[domain.FieldFruitType] = e.FruitType
	out[domain.FieldHaul] = yesNo(e.Haul)
	out[domain.FieldLoad] = yesNo(e.Load)
	out[domain.FieldNote] = e.Note
	out[domain.FieldImage] = e.Image
	out[domain.StageEntry.TimestampField()] = e.CreatedAtUTC
	out["is_active"] = strconv.FormatBool(e.Active)
	return out
}

func rawGross(g ports.GrossWeighingRecord) domain.Record {
	return domain.Record{
		domain.FieldGuideID:                        g.GuideID,
		domain.FieldGrossWeight:                    decimalString(g.GrossWeight),
		domain.FieldWeighingMethod:                 g.Method,
		domain.FieldTransportDoc:                   g.TransportDoc,
		domain.FieldImage:                          g.Image,
		domain.StageGrossWeighing.TimestampField(): g.TimestampUTC,
	}
}

func rawClassification(c ports.ClassificationRecord) domain.Record {
	detected := ""
	if c.DetectedTotal > 0 {
		detected = strconv.Itoa(c.DetectedTotal)
	}
	return domain.Record{
		domain.FieldGuideID:                         c.GuideID,
		domain.FieldManualClassification:            countsString(c.Manual),
		domain.FieldAutomaticClassification:         countsString(c.Automatic),
		domain.FieldDetectedTotal:                   detected,
		domain.FieldClassificationStatus:            c.Status,
		domain.StageClassification.TimestampField(): c.TimestampUTC,
	}
}

func rawNet(n ports.NetWeighingRecord) domain.Record {
	return domain.Record{
		domain.FieldGuideID:                      n.GuideID,
		domain.FieldTareWeight:                   decimalString(n.TareWeight),
		domain.FieldNetWeight:                    decimalString(n.NetWeight),
		domain.FieldProductWeight:                decimalString(n.ProductWeight),
		domain.StageNetWeighing.TimestampField(): n.TimestampUTC,
	}
}

func rawExit(x ports.ExitRecord) domain.Record {
	return domain.Record{
		domain.FieldGuideID:               x.GuideID,
		domain.FieldComments:              x.Comments,
		domain.StageExit.TimestampField(): x.TimestampUTC,
	}
}

func decimalString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func countsString(counts domain.DefectCounts) string {
	if counts.Empty() {
		return ""
	}
	encoded, err := json.Marshal(counts)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func yesNo(v bool) string {
	if v {
		return "Sí"
	}
	return "No"
}
