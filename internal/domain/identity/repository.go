package identity

import (
	"context"

	"github.com/google/uuid"
)

// OperatorRepository persists operator accounts
type OperatorRepository interface {
	// FindByEmail returns the operator or shared.ErrNotFound
	FindByEmail(ctx context.Context, email string) (*Operator, error)

	// FindByID returns the operator or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*Operator, error)

	// Create inserts a new operator; shared.ErrAlreadyExists when the
	// email is taken
	Create(ctx context.Context, operator *Operator) error

	// Save persists mutable operator state (last login)
	Save(ctx context.Context, operator *Operator) error
}
