package dto

import (
	"time"

	"github.com/stocktrail/backend/internal/domain/identity"
)

// RegisterRequest creates an operator account
type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8,max=128"`
	FullName   string `json:"full_name" binding:"required,min=1,max=255"`
	EmployeeID string `json:"employee_id" binding:"required,min=1,max=64"`
}

// LoginRequest carries operator credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// OperatorResponse represents an operator account
type OperatorResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	EmployeeID  string     `json:"employee_id"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// LoginResponse carries the access token and its owner
type LoginResponse struct {
	Token     string           `json:"token"`
	TokenType string           `json:"token_type"`
	ExpiresAt time.Time        `json:"expires_at"`
	Operator  OperatorResponse `json:"operator"`
}

// ToOperatorResponse converts a domain operator
func ToOperatorResponse(operator *identity.Operator) OperatorResponse {
	return OperatorResponse{
		ID:          operator.ID.String(),
		Email:       operator.Email,
		FullName:    operator.FullName,
		EmployeeID:  operator.EmployeeID,
		LastLoginAt: operator.LastLoginAt,
	}
}
