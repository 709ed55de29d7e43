package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is the single postal address a user keeps on their profile.
type Address struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:addresses_user_id_key"`
	City      *string   `gorm:"column:city"`
	Region    *string   `gorm:"column:region"`
	Country   *string   `gorm:"column:country"`
	Province  *string   `gorm:"column:province"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (a *Address) BeforeCreate(*gorm.DB) error {
	assignID(&a.ID)
	return nil
}
