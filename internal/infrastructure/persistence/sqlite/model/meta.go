package model

type Meta struct {
	Key       string `gorm:"column:key;type:text;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null;default:''"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null;default:''"`
}

func (Meta) TableName() string {
	return "guias_meta"
}

// Tables lists every model owned by the schema, in creation order.
func Tables() []any {
	return []any{
		&Entry{},
		&GrossWeighing{},
		&Classification{},
		&NetWeighing{},
		&Exit{},
		&CacheKV{},
		&Meta{},
	}
}
