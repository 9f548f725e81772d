package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appidentity "github.com/stocktrail/backend/internal/application/identity"
	"github.com/stocktrail/backend/internal/domain/identity"
	"github.com/stocktrail/backend/internal/interfaces/http/dto"
	"github.com/stocktrail/backend/internal/interfaces/http/middleware"
)

// AuthProvider signs operators up and in
type AuthProvider interface {
	Register(ctx context.Context, input appidentity.RegisterInput) (*identity.Operator, error)
	Login(ctx context.Context, input appidentity.LoginInput) (*appidentity.LoginResult, error)
}

// AuthHandler handles operator account endpoints
type AuthHandler struct {
	BaseHandler
	auth AuthProvider
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth AuthProvider) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

// Register creates an operator account
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	operator, err := h.auth.Register(c.Request.Context(), appidentity.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		FullName:   req.FullName,
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.ToOperatorResponse(operator))
}

// Login verifies credentials and returns an access token
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), appidentity.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.LoginResponse{
		Token:     result.Token.Token,
		TokenType: result.Token.TokenType,
		ExpiresAt: result.Token.ExpiresAt,
		Operator:  dto.ToOperatorResponse(result.Operator),
	})
}
