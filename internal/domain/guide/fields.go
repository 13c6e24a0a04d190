package guide

import (
	"strings"
)

// Record is a flat string mapping of one stage's data (raw or canonical).
type Record map[string]string

// NotAvailable fills canonical fields for which no source carried a usable value.
const NotAvailable = "No disponible"

// Canonical field names shared by every consumer of a consolidated guide.
const (
	FieldGuideID                 = "codigo_guia"
	FieldProviderCode            = "codigo_proveedor"
	FieldProviderName            = "nombre_proveedor"
	FieldPlate                   = "placa"
	FieldCarrier                 = "transportador"
	FieldBunchCount              = "cantidad_racimos"
	FieldFruitType               = "tipo_fruta"
	FieldHaul                    = "acarreo"
	FieldLoad                    = "cargo"
	FieldNote                    = "observaciones"
	FieldImage                   = "imagen"
	FieldGrossWeight             = "peso_bruto"
	FieldWeighingMethod          = "tipo_pesaje"
	FieldTransportDoc            = "codigo_guia_transporte_sap"
	FieldManualClassification    = "clasificacion_manual"
	FieldAutomaticClassification = "clasificacion_automatica"
	FieldDetectedTotal           = "total_racimos_detectados"
	FieldClassificationStatus    = "estado_clasificacion"
	FieldTareWeight              = "peso_tara"
	FieldNetWeight               = "peso_neto"
	FieldProductWeight           = "peso_producto"
	FieldComments                = "comentarios"
)

// FieldAliases lists, in preference order, the source keys collapsed into Canonical.
// The canonical key always comes first so that normalizing twice is a no-op.
type FieldAliases struct {
	Canonical string
	Sources   []string
}

var stageFields = map[Stage][]FieldAliases{
	StageEntry: {
		{FieldGuideID, []string{FieldGuideID, "codigo_guia_completo", "guia"}},
		{FieldProviderCode, []string{FieldProviderCode, "codigo", "codigo_agricultor"}},
		{FieldProviderName, []string{FieldProviderName, "nombre_agricultor", "nombre"}},
		{FieldPlate, []string{FieldPlate, "placa_vehiculo"}},
		{FieldCarrier, []string{FieldCarrier, "transportista"}},
		{FieldBunchCount, []string{FieldBunchCount, "racimos"}},
		{FieldFruitType, []string{FieldFruitType, "tipo_racimo", "fruta"}},
		{FieldHaul, []string{FieldHaul, "requiere_acarreo"}},
		{FieldLoad, []string{FieldLoad, "requiere_cargo"}},
		{FieldNote, []string{FieldNote, "nota", "observacion"}},
		{FieldImage, []string{FieldImage, "image_filename", "imagen_registro"}},
		{StageEntry.TimestampField(), []string{StageEntry.TimestampField(), "timestamp_utc", "fecha_hora_utc"}},
	},
	StageGrossWeighing: {
		{FieldGuideID, []string{FieldGuideID}},
		{FieldGrossWeight, []string{FieldGrossWeight, "peso"}},
		{FieldWeighingMethod, []string{FieldWeighingMethod, "metodo_pesaje"}},
		{FieldTransportDoc, []string{FieldTransportDoc, "codigo_sap", "guia_transporte"}},
		{FieldImage, []string{FieldImage, "imagen_peso", "image_filename"}},
		{StageGrossWeighing.TimestampField(), []string{StageGrossWeighing.TimestampField(), "timestamp_pesaje_bruto_utc"}},
	},
	StageClassification: {
		{FieldGuideID, []string{FieldGuideID}},
		{FieldManualClassification, []string{FieldManualClassification, "clasificacion_manual_json"}},
		{FieldAutomaticClassification, []string{FieldAutomaticClassification, "clasificacion_automatica_json", "clasificacion_consolidada"}},
		{FieldDetectedTotal, []string{FieldDetectedTotal, "total_racimos_detectados_automatico"}},
		{FieldClassificationStatus, []string{FieldClassificationStatus, "estado"}},
		{StageClassification.TimestampField(), []string{StageClassification.TimestampField()}},
	},
	StageNetWeighing: {
		{FieldGuideID, []string{FieldGuideID}},
		{FieldTareWeight, []string{FieldTareWeight, "tara"}},
		{FieldNetWeight, []string{FieldNetWeight, "neto"}},
		{FieldProductWeight, []string{FieldProductWeight, "peso_producto_pepa"}},
		{StageNetWeighing.TimestampField(), []string{StageNetWeighing.TimestampField(), "timestamp_neto_utc"}},
	},
	StageExit: {
		{FieldGuideID, []string{FieldGuideID}},
		{FieldComments, []string{FieldComments, "comentarios_salida", "nota_salida"}},
		{StageExit.TimestampField(), []string{StageExit.TimestampField()}},
	},
}

// Aliases returns the documented alias table of a stage.
func Aliases(stage Stage) []FieldAliases {
	out := make([]FieldAliases, len(stageFields[stage]))
	copy(out, stageFields[stage])
	return out
}

// IsPlaceholder reports values that must never win over a real one.
func IsPlaceholder(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed == "" ||
		strings.EqualFold(trimmed, "None") ||
		strings.EqualFold(trimmed, "N/A") ||
		strings.EqualFold(trimmed, NotAvailable)
}

// Normalize collapses synonym keys of a stage record onto canonical keys.
// Unknown keys pass through untouched.
func Normalize(stage Stage, raw Record) Record {
	fields := stageFields[stage]
	out := make(Record, len(raw)+len(fields))

	consumed := make(map[string]struct{}, len(fields)*2)
	for _, field := range fields {
		value := NotAvailable
		found := false
		for _, source := range field.Sources {
			consumed[source] = struct{}{}
			if found {
				continue
			}
			if v, ok := raw[source]; ok && !IsPlaceholder(v) {
				value = strings.TrimSpace(v)
				found = true
			}
		}
		out[field.Canonical] = value
	}

	for key, value := range raw {
		if _, ok := consumed[key]; ok {
			continue
		}
		out[key] = value
	}
	return out
}

// canonicalOwners maps each canonical field to the stages whose alias table declares it.
var canonicalOwners = func() map[string]map[Stage]struct{} {
	owners := make(map[string]map[Stage]struct{})
	for stage, fields := range stageFields {
		for _, field := range fields {
			if owners[field.Canonical] == nil {
				owners[field.Canonical] = make(map[Stage]struct{})
			}
			owners[field.Canonical][stage] = struct{}{}
		}
	}
	return owners
}()

// ownedElsewhere reports a canonical field of some stage other than the given one.
func ownedElsewhere(stage Stage, key string) bool {
	owners, ok := canonicalOwners[key]
	if !ok {
		return false
	}
	_, own := owners[stage]
	return !own
}

// Merge folds canonical stage records into one flat mapping in workflow order.
// When a later stage carries a key already taken with a different value, it is kept as "<stage>_<key>".
// Passthrough keys named like another stage's canonical field are always kept as "<stage>_<key>",
// so a stage's canonical fields only ever come from that stage.
func Merge(records map[Stage]Record) Record {
	out := make(Record)
	for _, stage := range Stages {
		record, ok := records[stage]
		if !ok {
			continue
		}
		for key, value := range record {
			if ownedElsewhere(stage, key) {
				out[string(stage)+"_"+key] = value
				continue
			}
			existing, taken := out[key]
			if !taken {
				out[key] = value
				continue
			}
			if existing == value {
				continue
			}
			out[string(stage)+"_"+key] = value
		}
	}
	return out
}

// Value returns the field or the NotAvailable sentinel.
func (r Record) Value(key string) string {
	if v, ok := r[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return NotAvailable
}

// Present reports whether the field carries a real value.
func (r Record) Present(key string) bool {
	v, ok := r[key]
	return ok && !IsPlaceholder(v)
}
