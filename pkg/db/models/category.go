package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is an owner-scoped bucket for items. Name matching is exact and
// case-sensitive; uniqueness is enforced per owner.
type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID   int64     `gorm:"column:owner_id;not null;uniqueIndex:categories_owner_name_key,priority:1"`
	Name      string    `gorm:"column:name;type:text;not null;uniqueIndex:categories_owner_name_key,priority:2"`
	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;not null"`
}

func (Category) TableName() string {
	return "categories"
}
