package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/stocktrail/backend/internal/domain/identity"
	"github.com/stocktrail/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormOperatorRepository implements OperatorRepository using GORM
type GormOperatorRepository struct {
	db *gorm.DB
}

// NewGormOperatorRepository creates a new GormOperatorRepository
func NewGormOperatorRepository(db *gorm.DB) *GormOperatorRepository {
	return &GormOperatorRepository{db: db}
}

// FindByEmail finds an operator by email
func (r *GormOperatorRepository) FindByEmail(ctx context.Context, email string) (*identity.Operator, error) {
	var operator identity.Operator
	if err := r.db.WithContext(ctx).First(&operator, "email = ?", strings.ToLower(email)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.NewStoreError(err)
	}
	return &operator, nil
}

// FindByID finds an operator by ID
func (r *GormOperatorRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Operator, error) {
	var operator identity.Operator
	if err := r.db.WithContext(ctx).First(&operator, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.NewStoreError(err)
	}
	return &operator, nil
}

// Create inserts a new operator account
func (r *GormOperatorRepository) Create(ctx context.Context, operator *identity.Operator) error {
	if err := r.db.WithContext(ctx).Create(operator).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return shared.NewStoreError(err)
	}
	return nil
}

// Save persists mutable operator state
func (r *GormOperatorRepository) Save(ctx context.Context, operator *identity.Operator) error {
	if err := r.db.WithContext(ctx).Save(operator).Error; err != nil {
		return shared.NewStoreError(err)
	}
	return nil
}

// Ensure GormOperatorRepository implements OperatorRepository
var _ identity.OperatorRepository = (*GormOperatorRepository)(nil)
