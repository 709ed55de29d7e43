package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roperito/roperito-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       *string     `json:"phone,omitempty"`
	Address     *AddressDTO `json:"address"`
	IsActive    bool        `json:"is_active"`
	LastLoginAt *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name         string
	Email        string
	PasswordHash string
	Phone        *string
}

// AddressDTO is the profile address; blank parts are omitted.
type AddressDTO struct {
	City     *string `json:"city,omitempty"`
	Region   *string `json:"region,omitempty"`
	Country  *string `json:"country,omitempty"`
	Province *string `json:"province,omitempty"`
}

// AddressInput replaces the stored address as a whole.
type AddressInput struct {
	City     string
	Region   string
	Country  string
	Province string
}

// UpdateProfileInput carries the editable profile fields; nil means unchanged.
type UpdateProfileInput struct {
	Name    *string
	Phone   *string
	Address *AddressInput
}

func (a AddressInput) toModel(userID uuid.UUID) *models.Address {
	return &models.Address{
		UserID:   userID,
		City:     optional(a.City),
		Region:   optional(a.Region),
		Country:  optional(a.Country),
		Province: optional(a.Province),
	}
}

func (a AddressInput) empty() bool {
	return optional(a.City) == nil && optional(a.Region) == nil &&
		optional(a.Country) == nil && optional(a.Province) == nil
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func addressFromModel(a *models.Address) *AddressDTO {
	if a == nil {
		return nil
	}
	return &AddressDTO{City: a.City, Region: a.Region, Country: a.Country, Province: a.Province}
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Name:         strings.TrimSpace(c.Name),
		Email:        NormalizeEmail(c.Email),
		PasswordHash: c.PasswordHash,
		Phone:        c.Phone,
		IsActive:     true,
	}
}

// NormalizeEmail lowercases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
