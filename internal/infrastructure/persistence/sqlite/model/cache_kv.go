package model

type CacheKV struct {
	Key       string `gorm:"column:key;type:text;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null;default:''"`
	ExpiresAt string `gorm:"column:expires_at;type:text;index"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null;default:''"`
}

func (CacheKV) TableName() string {
	return "cache_kv"
}
