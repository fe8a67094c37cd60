package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CachedProduct memoizes catalog lookups keyed by barcode. The cache is
// shared across owners; a verified rename writes back here so later scans of
// the same barcode inherit the trusted name.
type CachedProduct struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Barcode     string          `gorm:"column:barcode;type:text;not null;uniqueIndex:product_cache_barcode_key"`
	ProductName string          `gorm:"column:product_name;type:text;not null"`
	Brand       string          `gorm:"column:brand;type:text;not null;default:''"`
	ImageURL    string          `gorm:"column:image_url;type:text;not null;default:''"`
	Raw         json.RawMessage `gorm:"column:raw;type:jsonb"`
	FetchedAt   time.Time       `gorm:"column:fetched_at;type:timestamptz;not null"`
}

func (CachedProduct) TableName() string {
	return "product_cache"
}
