package model

import "gorm.io/datatypes"

type Entry struct {
	GuideID      string         `gorm:"column:codigo_guia;type:text;primaryKey"`
	ProviderCode string         `gorm:"column:codigo_proveedor;type:text;not null;default:'';index"`
	ProviderName string         `gorm:"column:nombre_proveedor;type:text"`
	Plate        string         `gorm:"column:placa;type:text"`
	Carrier      string         `gorm:"column:transportador;type:text"`
	BunchCount   string         `gorm:"column:cantidad_racimos;type:text"`
	FruitType    string         `gorm:"column:tipo_fruta;type:text"`
	Haul         bool           `gorm:"column:acarreo;not null;default:false"`
	Load         bool           `gorm:"column:cargo;not null;default:false"`
	Note         string         `gorm:"column:observaciones;type:text"`
	Image        string         `gorm:"column:imagen;type:text"`
	TimestampUTC string         `gorm:"column:timestamp_registro_utc;type:text;index"`
	IsActive     *bool          `gorm:"column:is_active;not null;default:true"`
	Extra        datatypes.JSON `gorm:"column:campos_extra"`
}

func (Entry) TableName() string {
	return "entradas"
}
