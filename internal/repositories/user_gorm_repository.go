package repositories

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"labella/internal/models"
	"labella/pkg/apperrors"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.Create(user).Error; err != nil {
		return apperrors.NewInternal("failed to create user", err)
	}
	return nil
}

// GetByUsername retrieves a user by their username.
func (r *GORMUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("user", username)
		}
		return nil, apperrors.NewInternal("failed to get user by username", err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("user", email)
		}
		return nil, apperrors.NewInternal("failed to get user by email", err)
	}
	return &user, nil
}

// GetByID retrieves a user by their ID.
func (r *GORMUserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("user", id)
		}
		return nil, apperrors.NewInternal("failed to get user by id", err)
	}
	return &user, nil
}
