package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgauth "github.com/TRPST/airvoucher-backend/pkg/auth"
	"github.com/TRPST/airvoucher-backend/pkg/auth/session"
	"github.com/TRPST/airvoucher-backend/pkg/config"
	"github.com/TRPST/airvoucher-backend/pkg/db/models"
	"github.com/TRPST/airvoucher-backend/pkg/enums"
	pkgerrors "github.com/TRPST/airvoucher-backend/pkg/errors"
	"github.com/TRPST/airvoucher-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret",
		Issuer:                 "airvoucher-test",
		ExpirationMinutes:      15,
		RefreshTokenTTLMinutes: 60,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

type stubRepo struct {
	users map[string]*models.User
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: map[string]*models.User{}}
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubRepo) Create(ctx context.Context, user *models.User) error {
	s.users[strings.ToLower(user.Email)] = user
	return nil
}

type stubSessions struct {
	tokens  map[string]string
	revoked []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{tokens: map[string]string{}}
}

func (s *stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.tokens[accessID] = token
	return token, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := s.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(s.tokens, oldAccessID)
	newID := uuid.NewString()
	newToken := "refresh-" + newID
	s.tokens[newID] = newToken
	return newID, newToken, nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	delete(s.tokens, accessID)
	return nil
}

func newAuthFixture(t *testing.T) (Service, *stubRepo, *stubSessions) {
	t.Helper()
	repo := newStubRepo()
	sessions := newStubSessions()
	svc, err := NewService(ServiceParams{
		Repo:           repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
		PasswordConfig: testPasswordConfig(),
	})
	require.NoError(t, err)
	return svc, repo, sessions
}

func seedUser(t *testing.T, repo *stubRepo, email, password string, role enums.UserRole, retailerID *uuid.UUID) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	require.NoError(t, err)
	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		RetailerID:   retailerID,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestLoginIssuesTokenPair(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	retailerID := uuid.New()
	seedUser(t, repo, "owner@shop.test", "correct horse battery", enums.UserRoleRetailer, &retailerID)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "owner@shop.test",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleRetailer, resp.User.Role)
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
	assert.Equal(t, 15*60, resp.Tokens.ExpiresInSeconds)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, enums.UserRoleRetailer, claims.Role)
	require.NotNil(t, claims.RetailerID)
	assert.Equal(t, retailerID, *claims.RetailerID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, repo, _ := newAuthFixture(t)
	seedUser(t, repo, "owner@shop.test", "correct horse battery", enums.UserRoleAdmin, nil)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "owner@shop.test",
		Password: "wrong",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "got %v", err)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@shop.test",
		Password: "whatever",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), invalidCredentialsMessage)
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, repo, sessions := newAuthFixture(t)
	seedUser(t, repo, "cashier@shop.test", "a long password!", enums.UserRoleAdmin, nil)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "cashier@shop.test",
		Password: "a long password!",
	})
	require.NoError(t, err)

	pair, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  resp.Tokens.AccessToken,
		RefreshToken: resp.Tokens.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, resp.Tokens.RefreshToken, pair.RefreshToken)

	// the old refresh token is dead after rotation
	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  resp.Tokens.AccessToken,
		RefreshToken: resp.Tokens.RefreshToken,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "got %v", err)
	assert.Len(t, sessions.tokens, 1)
}

func TestRefreshRejectsForgedAccessToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	_, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  "not-a-jwt",
		RefreshToken: "whatever",
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized), "got %v", err)
}

func TestCreateUserRoleScoping(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	// cashier without a retailer is refused
	_, err := svc.CreateUser(ctx, CreateUserRequest{
		Email:    "till@shop.test",
		Password: "a long password!",
		Role:     enums.UserRoleCashier,
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	retailerID := uuid.New()
	created, err := svc.CreateUser(ctx, CreateUserRequest{
		Email:      "Till@Shop.Test",
		Password:   "a long password!",
		Role:       enums.UserRoleCashier,
		RetailerID: &retailerID,
	})
	require.NoError(t, err)
	// emails normalize to lowercase
	assert.Equal(t, "till@shop.test", created.Email)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, sessions := newAuthFixture(t)

	require.NoError(t, svc.Logout(context.Background(), "some-access-id"))
	assert.Equal(t, []string{"some-access-id"}, sessions.revoked)
}
