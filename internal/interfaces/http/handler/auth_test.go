package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	appidentity "github.com/stocktrail/backend/internal/application/identity"
	"github.com/stocktrail/backend/internal/domain/identity"
	"github.com/stocktrail/backend/internal/domain/shared"
	"github.com/stocktrail/backend/internal/infrastructure/auth"
	"github.com/stocktrail/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAuthProvider is a mock implementation of AuthProvider
type MockAuthProvider struct {
	mock.Mock
}

func (m *MockAuthProvider) Register(ctx context.Context, input appidentity.RegisterInput) (*identity.Operator, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Operator), args.Error(1)
}

func (m *MockAuthProvider) Login(ctx context.Context, input appidentity.LoginInput) (*appidentity.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appidentity.LoginResult), args.Error(1)
}

func newAuthRouter(provider *MockAuthProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewAuthHandler(provider).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func sampleOperator(t *testing.T) *identity.Operator {
	t.Helper()
	operator, err := identity.NewOperator("ana@example.com", "s3cret-pass", "Ana Torres", "E01")
	require.NoError(t, err)
	return operator
}

func postJSON(router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("creates an operator", func(t *testing.T) {
		provider := new(MockAuthProvider)
		router := newAuthRouter(provider)

		provider.On("Register", mock.Anything, appidentity.RegisterInput{
			Email:      "ana@example.com",
			Password:   "s3cret-pass",
			FullName:   "Ana Torres",
			EmployeeID: "E01",
		}).Return(sampleOperator(t), nil)

		w := postJSON(router, "/api/v1/auth/register", dto.RegisterRequest{
			Email:      "ana@example.com",
			Password:   "s3cret-pass",
			FullName:   "Ana Torres",
			EmployeeID: "E01",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "ana@example.com")
		assert.NotContains(t, w.Body.String(), "s3cret-pass")
		provider.AssertExpectations(t)
	})

	t.Run("taken email maps to 409", func(t *testing.T) {
		provider := new(MockAuthProvider)
		router := newAuthRouter(provider)

		provider.On("Register", mock.Anything, mock.Anything).Return(nil, shared.ErrAlreadyExists)

		w := postJSON(router, "/api/v1/auth/register", dto.RegisterRequest{
			Email:      "ana@example.com",
			Password:   "s3cret-pass",
			FullName:   "Ana Torres",
			EmployeeID: "E01",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("malformed payload is rejected before the service", func(t *testing.T) {
		provider := new(MockAuthProvider)
		router := newAuthRouter(provider)

		w := postJSON(router, "/api/v1/auth/register", gin.H{"email": "not-an-email"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		provider.AssertNotCalled(t, "Register")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("returns a token", func(t *testing.T) {
		provider := new(MockAuthProvider)
		router := newAuthRouter(provider)

		provider.On("Login", mock.Anything, appidentity.LoginInput{
			Email:    "ana@example.com",
			Password: "s3cret-pass",
		}).Return(&appidentity.LoginResult{
			Operator: sampleOperator(t),
			Token: &auth.AccessToken{
				Token:     "signed.jwt.token",
				TokenType: "Bearer",
				ExpiresAt: time.Now().Add(8 * time.Hour),
			},
		}, nil)

		w := postJSON(router, "/api/v1/auth/login", dto.LoginRequest{
			Email:    "ana@example.com",
			Password: "s3cret-pass",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "signed.jwt.token")
		provider.AssertExpectations(t)
	})

	t.Run("bad credentials map to 401", func(t *testing.T) {
		provider := new(MockAuthProvider)
		router := newAuthRouter(provider)

		provider.On("Login", mock.Anything, mock.Anything).Return(nil, shared.ErrUnauthorized)

		w := postJSON(router, "/api/v1/auth/login", dto.LoginRequest{
			Email:    "ana@example.com",
			Password: "wrong",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
	})
}
