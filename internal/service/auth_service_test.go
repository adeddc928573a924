package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/uni-adm-api/internal/models"
	appErrors "github.com/noah-isme/uni-adm-api/pkg/errors"
)

type operatorRepoStub struct {
	operators  map[string]*models.Operator
	lastLogins int
}

func newOperatorRepoStub() *operatorRepoStub {
	return &operatorRepoStub{operators: make(map[string]*models.Operator)}
}

func (s *operatorRepoStub) FindByEmail(ctx context.Context, email string) (*models.Operator, error) {
	for _, operator := range s.operators {
		if operator.Email == email {
			copy := *operator
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *operatorRepoStub) FindByID(ctx context.Context, id string) (*models.Operator, error) {
	if operator, ok := s.operators[id]; ok {
		copy := *operator
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *operatorRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLogins++
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *operatorRepoStub) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := newOperatorRepoStub()
	repo.operators["op-1"] = &models.Operator{
		ID:           "op-1",
		Email:        "registrar@university.edu",
		FullName:     "Jane Registrar",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Active:       true,
	}

	svc := NewAuthService(repo, &auditLoggerStub{}, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "uni-adm-api",
	})
	return svc, repo
}

func TestLoginIssuesToken(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "registrar@university.edu",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.True(t, resp.ExpiresAt.After(time.Now()))
	require.Equal(t, "op-1", resp.Operator.ID)
	require.Equal(t, 1, repo.lastLogins)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "op-1", claims.UserID)
	require.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "registrar@university.edu",
		Password: "wrong",
	})
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials))
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@university.edu",
		Password: "s3cret-pass",
	})
	require.Error(t, err)
	// Unknown account and bad password are indistinguishable to the caller.
	require.True(t, appErrors.HasCode(err, appErrors.ErrInvalidCredentials))
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.operators["op-1"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "registrar@university.edu",
		Password: "s3cret-pass",
	})
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrInactiveAccount))
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "registrar@university.edu",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	require.Error(t, err)
	require.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))
}
