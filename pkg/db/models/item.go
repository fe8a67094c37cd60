package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item is one stored lot of a product. The service creates quantity=1 rows
// per scan event and aggregates (owner, category, barcode) groups at read
// time; quantity stays a column so manually sized lots survive.
type Item struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID     int64           `gorm:"column:owner_id;not null;index:items_owner_category_idx,priority:1;index:items_owner_barcode_idx,priority:1"`
	Barcode     string          `gorm:"column:barcode;type:text;not null;index:items_owner_barcode_idx,priority:2"`
	ProductName string          `gorm:"column:product_name;type:text;not null"`
	Category    string          `gorm:"column:category;type:text;not null;index:items_owner_category_idx,priority:2"`
	Quantity    int             `gorm:"column:quantity;not null;default:1"`
	AddedAt     time.Time       `gorm:"column:added_at;type:timestamptz;not null;index:items_added_at_idx"`
	ExpiryDate  *time.Time      `gorm:"column:expiry_date;type:date"`
	ProductInfo json.RawMessage `gorm:"column:product_info;type:jsonb"`
	Verified    bool            `gorm:"column:verified;not null;default:false;index:items_verified_idx"`
}

func (Item) TableName() string {
	return "items"
}
