package usecase

import (
	"testing"
	"time"

	authdto "mailflow-backend/internal/auth/dto"
	"mailflow-backend/internal/auth/repository"
	"mailflow-backend/internal/testutil"
	"mailflow-backend/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthUsecase(t *testing.T) AuthUsecase {
	t.Helper()
	db := testutil.NewTestDB(t)
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: 24 * time.Hour,
	}
	return NewAuthUsecase(repository.NewUserRepository(db), cfg)
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	uc := newAuthUsecase(t)

	reg, err := uc.Register(&authdto.RegisterRequest{
		Email:    "alice@example.com",
		Password: "s3cretpass",
		Name:     "Alice",
	})
	require.NoError(t, err)
	require.NotEmpty(t, reg.AccessToken)

	login, err := uc.Login(&authdto.LoginRequest{
		Email:    "alice@example.com",
		Password: "s3cretpass",
	})
	require.NoError(t, err)

	user, err := uc.ValidateToken(login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	uc := newAuthUsecase(t)

	_, err := uc.Register(&authdto.RegisterRequest{
		Email:    "alice@example.com",
		Password: "s3cretpass",
		Name:     "Alice",
	})
	require.NoError(t, err)

	_, err = uc.Login(&authdto.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	assert.Error(t, err)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	uc := newAuthUsecase(t)

	req := &authdto.RegisterRequest{Email: "alice@example.com", Password: "s3cretpass", Name: "Alice"}
	_, err := uc.Register(req)
	require.NoError(t, err)

	_, err = uc.Register(req)
	assert.Error(t, err)
}

func TestRefreshTokenIssuesNewAccessToken(t *testing.T) {
	uc := newAuthUsecase(t)

	reg, err := uc.Register(&authdto.RegisterRequest{Email: "alice@example.com", Password: "s3cretpass", Name: "Alice"})
	require.NoError(t, err)

	refreshed, err := uc.RefreshToken(reg.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	// Logout revokes the stored refresh token.
	require.NoError(t, uc.Logout(reg.RefreshToken))
	_, err = uc.RefreshToken(reg.RefreshToken)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	uc := newAuthUsecase(t)
	_, err := uc.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}
