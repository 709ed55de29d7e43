package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a marketplace account; the same user may buy and sell.
type User struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string     `gorm:"column:name;not null"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex:users_email_key"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	Phone        *string    `gorm:"column:phone"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
