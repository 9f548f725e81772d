package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/stocktrail/backend/internal/domain/inventory"
	"github.com/stocktrail/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Operator is a warehouse worker account. Its only job in this system is
// to authenticate scans and supply the {full name, employee id} snapshot
// stamped onto receipts and departures.
type Operator struct {
	shared.BaseEntity
	Email        string `gorm:"not null;uniqueIndex:idx_operators_email"`
	PasswordHash string `gorm:"not null"`
	FullName     string `gorm:"not null"`
	EmployeeID   string `gorm:"not null"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (Operator) TableName() string {
	return "operators"
}

// NewOperator creates an operator account with a hashed password
func NewOperator(email, password, fullName, employeeID string) (*Operator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Invalid email address")
	}
	if len(password) < 8 {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Password must be at least 8 characters")
	}
	if strings.TrimSpace(fullName) == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Full name is required")
	}
	if strings.TrimSpace(employeeID) == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Employee ID is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &Operator{
		BaseEntity:   shared.NewBaseEntity(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(fullName),
		EmployeeID:   strings.TrimSpace(employeeID),
	}, nil
}

// VerifyPassword checks a candidate password against the stored hash
func (o *Operator) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password)) == nil
}

// RecordLogin stamps the last successful login time
func (o *Operator) RecordLogin(at time.Time) {
	o.LastLoginAt = &at
}

// Identity returns the attribution snapshot used on stock mutations
func (o *Operator) Identity() inventory.Identity {
	return inventory.Identity{Name: o.FullName, EmployeeID: o.EmployeeID}
}
