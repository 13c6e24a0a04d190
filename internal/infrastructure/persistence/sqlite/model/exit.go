package model

type Exit struct {
	GuideID      string `gorm:"column:codigo_guia;type:text;primaryKey"`
	Comments     string `gorm:"column:comentarios;type:text"`
	TimestampUTC string `gorm:"column:timestamp_salida_utc;type:text;index"`
}

func (Exit) TableName() string {
	return "salidas"
}
