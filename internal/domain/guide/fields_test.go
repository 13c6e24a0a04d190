package guide

import (
	"reflect"
	"testing"
)

func TestNormalizePrefersCanonicalAliasOrder(t *testing.T) {
	got := Normalize(StageEntry, Record{
		"racimos":           "300",
		"cantidad_racimos":  "250",
		"transportista":     "Transportes ABC",
		"nombre":            "None",
		"nombre_agricultor": "Finca La Esperanza",
	})

	if got[FieldBunchCount] != "250" {
		t.Fatalf("cantidad_racimos = %q, want 250", got[FieldBunchCount])
	}
	if got[FieldCarrier] != "Transportes ABC" {
		t.Fatalf("transportador = %q", got[FieldCarrier])
	}
	if got[FieldProviderName] != "Finca La Esperanza" {
		t.Fatalf("nombre_proveedor = %q", got[FieldProviderName])
	}
	if _, ok := got["racimos"]; ok {
		t.Fatalf("alias racimos should be collapsed, got %#v", got)
	}
	if _, ok := got["transportista"]; ok {
		t.Fatalf("alias transportista should be collapsed, got %#v", got)
	}
}

func TestNormalizeSkipsPlaceholdersAndFillsSentinel(t *testing.T) {
	got := Normalize(StageEntry, Record{
		"cantidad_racimos": "N/A",
		"racimos":          "180",
		"placa":            "No disponible",
		"placa_vehiculo":   " ",
	})

	if got[FieldBunchCount] != "180" {
		t.Fatalf("cantidad_racimos = %q, want 180", got[FieldBunchCount])
	}
	if got[FieldPlate] != NotAvailable {
		t.Fatalf("placa = %q, want %q", got[FieldPlate], NotAvailable)
	}
	if got[FieldFruitType] != NotAvailable {
		t.Fatalf("tipo_fruta = %q, want %q", got[FieldFruitType], NotAvailable)
	}
}

func TestNormalizeKeepsUnmappedKeys(t *testing.T) {
	got := Normalize(StageGrossWeighing, Record{
		"peso":            "18500",
		"ocr_confianza":   "0.93",
		"respuesta_placa": "ABC123",
	})

	if got[FieldGrossWeight] != "18500" {
		t.Fatalf("peso_bruto = %q", got[FieldGrossWeight])
	}
	if got["ocr_confianza"] != "0.93" || got["respuesta_placa"] != "ABC123" {
		t.Fatalf("unmapped keys lost: %#v", got)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := Record{
		"codigo":        "123A",
		"racimos":       "250",
		"transportista": "None",
		"extra":         "x",
		"tipo_fruta":    "Fruta",
	}

	for _, stage := range Stages {
		once := Normalize(stage, raw)
		twice := Normalize(stage, once)
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("Normalize(%s) not idempotent:\nonce=%#v\ntwice=%#v", stage, once, twice)
		}
	}
}

func TestMergePrefixesOnlyCollidingKeys(t *testing.T) {
	merged := Merge(map[Stage]Record{
		StageEntry: {
			FieldGuideID: "123A_20240101_090000",
			FieldImage:   "registro.jpg",
			"fecha":      "01/01/2024",
		},
		StageGrossWeighing: {
			FieldGuideID:     "123A_20240101_090000",
			FieldImage:       "peso.jpg",
			FieldGrossWeight: "18500",
			"fecha":          "02/01/2024",
		},
	})

	if merged[FieldImage] != "registro.jpg" {
		t.Fatalf("imagen = %q", merged[FieldImage])
	}
	if merged["pesaje_imagen"] != "peso.jpg" {
		t.Fatalf("pesaje_imagen = %q", merged["pesaje_imagen"])
	}
	if merged["pesaje_fecha"] != "02/01/2024" || merged["fecha"] != "01/01/2024" {
		t.Fatalf("fecha collision not resolved: %#v", merged)
	}
	if _, ok := merged["pesaje_codigo_guia"]; ok {
		t.Fatalf("identical values must not be prefixed: %#v", merged)
	}
	if merged[FieldGrossWeight] != "18500" {
		t.Fatalf("peso_bruto = %q", merged[FieldGrossWeight])
	}
}

func TestMergeKeepsCanonicalFieldsWithTheirStage(t *testing.T) {
	merged := Merge(map[Stage]Record{
		StageEntry: {
			FieldGuideID:     "123A_20240101_090000",
			FieldImage:       "registro.jpg",
			FieldGrossWeight: "100",
			FieldNetWeight:   "50",
			"ocr_placa":      "QWE456",
		},
		StageGrossWeighing: {
			FieldGuideID:     "123A_20240101_090000",
			FieldGrossWeight: "18500",
		},
	})

	if merged[FieldGrossWeight] != "18500" {
		t.Fatalf("peso_bruto = %q, want the gross weighing value", merged[FieldGrossWeight])
	}
	if merged["registro_peso_bruto"] != "100" || merged["registro_peso_neto"] != "50" {
		t.Fatalf("entry passthrough not prefixed: %#v", merged)
	}
	if _, ok := merged[FieldNetWeight]; ok {
		t.Fatalf("peso_neto taken by entry passthrough: %#v", merged)
	}
	if _, ok := merged["pesaje_peso_bruto"]; ok {
		t.Fatalf("gross weighing value displaced: %#v", merged)
	}
	if merged[FieldImage] != "registro.jpg" || merged["ocr_placa"] != "QWE456" {
		t.Fatalf("shared and unmapped keys changed: %#v", merged)
	}
}
