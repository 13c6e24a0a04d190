package model

import "gorm.io/datatypes"

type Classification struct {
	GuideID       string         `gorm:"column:codigo_guia;type:text;primaryKey"`
	Manual        datatypes.JSON `gorm:"column:clasificacion_manual"`
	Automatic     datatypes.JSON `gorm:"column:clasificacion_automatica"`
	DetectedTotal int            `gorm:"column:total_racimos_detectados;not null;default:0"`
	Status        string         `gorm:"column:estado_clasificacion;type:text"`
	TimestampUTC  string         `gorm:"column:timestamp_clasificacion_utc;type:text;index"`
}

func (Classification) TableName() string {
	return "clasificaciones"
}
