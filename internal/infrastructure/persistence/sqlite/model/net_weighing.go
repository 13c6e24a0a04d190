package model

import "github.com/shopspring/decimal"

type NetWeighing struct {
	GuideID       string              `gorm:"column:codigo_guia;type:text;primaryKey"`
	TareWeight    decimal.NullDecimal `gorm:"column:peso_tara;type:decimal(12,2)"`
	NetWeight     decimal.NullDecimal `gorm:"column:peso_neto;type:decimal(12,2)"`
	ProductWeight decimal.NullDecimal `gorm:"column:peso_producto;type:decimal(12,2)"`
	TimestampUTC  string              `gorm:"column:timestamp_pesaje_neto_utc;type:text;index"`
}

func (NetWeighing) TableName() string {
	return "pesajes_neto"
}
