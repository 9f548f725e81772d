package identity

import (
	"context"
	"errors"
	"time"

	"github.com/stocktrail/backend/internal/domain/identity"
	"github.com/stocktrail/backend/internal/domain/shared"
	"github.com/stocktrail/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthService signs operators up and in. Scanning endpoints take the
// operator identity from the token this service issues, so receipts and
// departures are always attributable to a person.
type AuthService struct {
	operators identity.OperatorRepository
	tokens    *auth.JWTService
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(operators identity.OperatorRepository, tokens *auth.JWTService, logger *zap.Logger) *AuthService {
	return &AuthService{
		operators: operators,
		tokens:    tokens,
		logger:    logger,
	}
}

// RegisterInput contains input for operator registration
type RegisterInput struct {
	Email      string
	Password   string
	FullName   string
	EmployeeID string
}

// LoginInput contains operator credentials
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the authenticated operator and their access token
type LoginResult struct {
	Operator *identity.Operator
	Token    *auth.AccessToken
}

// Register creates a new operator account
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*identity.Operator, error) {
	operator, err := identity.NewOperator(input.Email, input.Password, input.FullName, input.EmployeeID)
	if err != nil {
		return nil, err
	}

	if err := s.operators.Create(ctx, operator); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.ErrAlreadyExists
		}
		return nil, err
	}

	s.logger.Info("operator registered",
		zap.String("email", operator.Email),
		zap.String("employee_id", operator.EmployeeID),
	)
	return operator, nil
}

// Login verifies credentials and issues an access token. Wrong email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	operator, err := s.operators.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}

	if !operator.VerifyPassword(input.Password) {
		s.logger.Warn("failed login attempt", zap.String("email", input.Email))
		return nil, shared.ErrUnauthorized
	}

	token, err := s.tokens.GenerateToken(auth.GenerateTokenInput{
		OperatorID: operator.ID,
		Email:      operator.Email,
		FullName:   operator.FullName,
		EmployeeID: operator.EmployeeID,
	})
	if err != nil {
		return nil, err
	}

	operator.RecordLogin(time.Now())
	if err := s.operators.Save(ctx, operator); err != nil {
		// Login still succeeds; the timestamp is best effort.
		s.logger.Warn("failed to record login time", zap.Error(err))
	}

	s.logger.Info("operator logged in", zap.String("email", operator.Email))
	return &LoginResult{Operator: operator, Token: token}, nil
}
