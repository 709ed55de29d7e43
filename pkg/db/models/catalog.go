package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:categories_name_key"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (c *Category) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

// Size optionally belongs to a category (shoe sizes vs garment sizes).
type Size struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string     `gorm:"column:name;not null"`
	CategoryID *uuid.UUID `gorm:"column:category_id;type:uuid"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (s *Size) BeforeCreate(*gorm.DB) error {
	assignID(&s.ID)
	return nil
}
