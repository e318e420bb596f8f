package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/legal-case-api/databases"
	"github.com/linesmerrill/legal-case-api/databases/mocks"
	"github.com/linesmerrill/legal-case-api/models"
)

func userWithPassword(t *testing.T, email, password string, active bool) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID: primitive.NewObjectID(),
		Details: models.UserDetails{
			Email:    email,
			Password: string(hash),
			Role:     models.RoleLawyer,
			IsActive: active,
		},
	}
}

func TestValidateUser(t *testing.T) {
	user := userWithPassword(t, "counsel@example.com", "hunter22", true)

	db := &mocks.UserDatabase{}
	db.On("FindOne", mock.Anything, bson.M{"user.email": "counsel@example.com"}).Return(user, nil)

	m := MiddlewareDB{DB: db}
	info, err := m.ValidateUser(context.Background(), nil, "counsel@example.com", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "counsel@example.com", info.UserName())

	_, err = m.ValidateUser(context.Background(), nil, "counsel@example.com", "wrong")
	assert.EqualError(t, err, "failed to compare password")
}

func TestValidateUserRejects(t *testing.T) {
	inactive := userWithPassword(t, "former@example.com", "hunter22", false)

	db := &mocks.UserDatabase{}
	db.On("FindOne", mock.Anything, bson.M{"user.email": "former@example.com"}).Return(inactive, nil)
	db.On("FindOne", mock.Anything, bson.M{"user.email": "nobody@example.com"}).Return(nil, databases.ErrNotFound)
	db.On("FindOne", mock.Anything, bson.M{"user.email": "flaky@example.com"}).Return(nil, errors.New("socket closed"))

	m := MiddlewareDB{DB: db}

	_, err := m.ValidateUser(context.Background(), nil, "former@example.com", "hunter22")
	assert.EqualError(t, err, "account is deactivated")

	_, err = m.ValidateUser(context.Background(), nil, "nobody@example.com", "hunter22")
	assert.EqualError(t, err, "no matching email found")

	_, err = m.ValidateUser(context.Background(), nil, "flaky@example.com", "hunter22")
	assert.EqualError(t, err, "failed to get user by email")
}

func TestMiddlewareRejectsAnonymous(t *testing.T) {
	MiddlewareDB{DB: &mocks.UserDatabase{}}.SetupGoGuardian()

	called := false
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/cases/urgent", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error": "unauthorized"}`, rr.Body.String())
}

func TestRevokeTokenRequiresBearer(t *testing.T) {
	rr := httptest.NewRecorder()
	RevokeToken(rr, httptest.NewRequest(http.MethodDelete, "/api/v1/auth/logout", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoggingMiddleware(t *testing.T) {
	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/scheduler/status", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Equal(t, "req-42", rr.Header().Get(RequestIDHeader))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/scheduler/status", nil))
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))
}

func TestTimeoutMiddleware(t *testing.T) {
	release := make(chan struct{})
	finished := make(chan struct{})

	slow := TimeoutMiddleware(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer close(finished)
		<-release
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("X-Late", "true")
		w.WriteHeader(http.StatusCreated)
		_, err := w.Write([]byte(`{"late": true}`))
		assert.ErrorIs(t, err, http.ErrHandlerTimeout)
	}))

	rr := httptest.NewRecorder()
	slow.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/cases/urgent", nil))
	close(release)
	<-finished

	assert.Equal(t, http.StatusGatewayTimeout, rr.Code)
	assert.Contains(t, rr.Body.String(), "Request timeout")
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Empty(t, rr.Header().Get("X-Late"))

	fast := TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Handler", "fast")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok": true}`))
	}))
	rr = httptest.NewRecorder()
	fast.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/cases/urgent", nil))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "fast", rr.Header().Get("X-Handler"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok": true}`, rr.Body.String())

	implicit := TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Handler", "implicit")
		w.Write([]byte(`{"ok": true}`))
	}))
	rr = httptest.NewRecorder()
	implicit.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/cases/urgent", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "implicit", rr.Header().Get("X-Handler"))

	headerOnly := TimeoutMiddleware(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Handler", "header-only")
	}))
	rr = httptest.NewRecorder()
	headerOnly.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/cases/urgent", nil))
	assert.Equal(t, "header-only", rr.Header().Get("X-Handler"))
}
