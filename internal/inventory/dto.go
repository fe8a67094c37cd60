package inventory

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AddItemParams describes one lot to insert. Quantity defaults to 1.
type AddItemParams struct {
	OwnerID     int64
	Barcode     string
	ProductName string
	Category    string
	Quantity    int
	ExpiryDate  *time.Time
	ProductInfo json.RawMessage
	Verified    bool
}

// ItemPatch is a typed partial update; nil fields are left untouched.
type ItemPatch struct {
	Barcode     *string
	ProductName *string
	Category    *string
	Quantity    *int
	ExpiryDate  *time.Time
	Verified    *bool
}

func (p ItemPatch) assignments() map[string]any {
	updates := map[string]any{}
	if p.Barcode != nil {
		updates["barcode"] = *p.Barcode
	}
	if p.ProductName != nil {
		updates["product_name"] = *p.ProductName
	}
	if p.Category != nil {
		updates["category"] = *p.Category
	}
	if p.Quantity != nil {
		updates["quantity"] = *p.Quantity
	}
	if p.ExpiryDate != nil {
		updates["expiry_date"] = *p.ExpiryDate
	}
	if p.Verified != nil {
		updates["verified"] = *p.Verified
	}
	return updates
}

// CacheProductParams describes one product cache upsert.
type CacheProductParams struct {
	Barcode     string
	ProductName string
	Brand       string
	ImageURL    string
	Raw         json.RawMessage
}

// GroupedProduct is the read-side aggregation of all lots sharing
// (owner, category, barcode).
type GroupedProduct struct {
	Barcode     string
	ProductName string
	Category    string
	Quantity    int
	Verified    bool
	OldestID    uuid.UUID
	AddedAt     time.Time
}

// CategorySummary pairs a category with its aggregated unit count.
type CategorySummary struct {
	Name      string
	CreatedAt time.Time
	Quantity  int
}
