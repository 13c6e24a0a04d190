package model

import "github.com/shopspring/decimal"

type GrossWeighing struct {
	GuideID      string              `gorm:"column:codigo_guia;type:text;primaryKey"`
	GrossWeight  decimal.NullDecimal `gorm:"column:peso_bruto;type:decimal(12,2)"`
	Method       string              `gorm:"column:tipo_pesaje;type:text"`
	Image        string              `gorm:"column:imagen;type:text"`
	TransportDoc string              `gorm:"column:codigo_guia_transporte_sap;type:text"`
	TimestampUTC string              `gorm:"column:timestamp_pesaje_utc;type:text;index"`
}

func (GrossWeighing) TableName() string {
	return "pesajes_bruto"
}
