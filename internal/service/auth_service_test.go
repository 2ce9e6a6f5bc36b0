package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func newAuthService(store *memoryAccounts) *AuthService {
	return NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4}, AuthDependencies{
		AccountRepo: store,
		ProfileRepo: memoryProfiles{store: store},
	})
}

func TestSignupAndLogin(t *testing.T) {
	store := newMemoryAccounts()
	svc := newAuthService(store)
	ctx := context.Background()

	session, err := svc.Signup(ctx, SignupInput{Email: "ana@campus.edu", Password: "segredo1", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, session.Profile.Role)
	assert.NotEmpty(t, session.Token)

	claims, err := svc.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Profile.ID, claims.Subject)

	login, err := svc.Login(ctx, "ana@campus.edu", "segredo1")
	require.NoError(t, err)
	assert.Equal(t, session.Profile.ID, login.Profile.ID)

	_, err = svc.Login(ctx, "ana@campus.edu", "errada")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
	_, err = svc.Login(ctx, "ninguem@campus.edu", "segredo1")
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestSignup_Validation(t *testing.T) {
	svc := newAuthService(newMemoryAccounts())
	ctx := context.Background()

	cases := []SignupInput{
		{Email: "", Password: "segredo1", Name: "Ana"},
		{Email: "not-an-email", Password: "segredo1", Name: "Ana"},
		{Email: "ana@campus.edu", Password: "123", Name: "Ana"},
		{Email: "ana@campus.edu", Password: "segredo1", Name: " "},
	}
	for _, input := range cases {
		_, err := svc.Signup(ctx, input)
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"), "input %+v", input)
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc := newAuthService(newMemoryAccounts())
	ctx := context.Background()

	_, err := svc.Signup(ctx, SignupInput{Email: "ana@campus.edu", Password: "segredo1", Name: "Ana"})
	require.NoError(t, err)
	_, err = svc.Signup(ctx, SignupInput{Email: "ANA@campus.edu", Password: "segredo1", Name: "Ana 2"})
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, "CONFLICT", de.Code)
	assert.Equal(t, DuplicateEmailMessage, de.Message)
}

func TestSignup_StoresLowerCasedEmail(t *testing.T) {
	store := newMemoryAccounts()
	svc := newAuthService(store)
	ctx := context.Background()

	session, err := svc.Signup(ctx, SignupInput{Email: "  Joao@Campus.EDU ", Password: "segredo1", Name: "João"})
	require.NoError(t, err)
	assert.Equal(t, "joao@campus.edu", store.accounts[session.Profile.ID].Email)

	login, err := svc.Login(ctx, "JOAO@campus.edu", "segredo1")
	require.NoError(t, err)
	assert.Equal(t, session.Profile.ID, login.Profile.ID)
}
