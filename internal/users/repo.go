package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/roperito/roperito-backend/internal/repo"
	"github.com/roperito/roperito-backend/pkg/db/models"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

// Create inserts a new user and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.DB(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.DB(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

// FindAddress returns the user's address, or gorm.ErrRecordNotFound.
func (r *Repository) FindAddress(ctx context.Context, userID uuid.UUID) (*models.Address, error) {
	var address models.Address
	if err := r.DB(ctx).Where("user_id = ?", userID).First(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

// UpsertAddress inserts the address or overwrites the user's existing one.
func (r *Repository) UpsertAddress(ctx context.Context, address *models.Address) error {
	return r.DB(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"city", "region", "country", "province", "updated_at"}),
	}).Create(address).Error
}
