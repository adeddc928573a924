package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/uni-adm-api/internal/models"
	"github.com/noah-isme/uni-adm-api/internal/service"
)

type operatorStub struct {
	operator *models.Operator
}

func (s *operatorStub) FindByEmail(ctx context.Context, email string) (*models.Operator, error) {
	if s.operator != nil && s.operator.Email == email {
		return s.operator, nil
	}
	return nil, sql.ErrNoRows
}

func (s *operatorStub) FindByID(ctx context.Context, id string) (*models.Operator, error) {
	if s.operator != nil && s.operator.ID == id {
		return s.operator, nil
	}
	return nil, sql.ErrNoRows
}

func (s *operatorStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

type auditSink struct{}

func (auditSink) Create(ctx context.Context, log *models.AuditLog) error { return nil }

func loginRequest(t *testing.T, payload string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, recorder
}

func newTestAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &operatorStub{operator: &models.Operator{
		ID:           "op-1",
		Email:        "registrar@university.edu",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Active:       true,
	}}
	svc := service.NewAuthService(repo, auditSink{}, nil, nil, service.AuthConfig{TokenSecret: "test-secret"})
	return NewAuthHandler(svc)
}

func TestLoginHandlerSuccess(t *testing.T) {
	h := newTestAuthHandler(t)
	c, recorder := loginRequest(t, `{"email":"registrar@university.edu","password":"s3cret-pass"}`)

	h.Login(c)
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)
	require.Equal(t, "op-1", envelope.Data.Operator.ID)
}

func TestLoginHandlerWrongPassword(t *testing.T) {
	h := newTestAuthHandler(t)
	c, recorder := loginRequest(t, `{"email":"registrar@university.edu","password":"nope"}`)

	h.Login(c)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.Equal(t, "INVALID_CREDENTIALS", envelope.Error.Code)
}

func TestLoginHandlerInvalidPayload(t *testing.T) {
	h := newTestAuthHandler(t)
	c, recorder := loginRequest(t, `{"email":`)

	h.Login(c)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}
