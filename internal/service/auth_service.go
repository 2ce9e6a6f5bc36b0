package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// DuplicateEmailMessage mirrors the identity provider's wording for an
// already registered address.
const DuplicateEmailMessage = "A user with this email address has already been registered"

// Session is an issued access token and the profile it belongs to.
type Session struct {
	Profile   *domain.Profile
	Token     string
	ExpiresAt time.Time
}

// SignupInput describes a self-service student registration.
type SignupInput struct {
	Email    string
	Password string
	Name     string
	Program  *string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	accounts   repository.AccountRepository
	profiles   repository.ProfileRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	AccountRepo repository.AccountRepository
	ProfileRepo repository.ProfileRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		accounts:   deps.AccountRepo,
		profiles:   deps.ProfileRepo,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// Signup registers a student account and signs it in.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*Session, error) {
	account, profile, err := createAccount(ctx, s.accounts, s.bcryptCost, accountInput{
		Email:    input.Email,
		Password: input.Password,
		Name:     input.Name,
		Program:  input.Program,
		Role:     domain.RoleStudent,
	})
	if err != nil {
		return nil, err
	}
	return s.issue(account.ID, profile)
}

// Login authenticates an account by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	account, err := s.accounts.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	profile, err := s.profiles.GetByID(ctx, account.ID)
	if err != nil {
		return nil, storeError("profile", err)
	}
	return s.issue(account.ID, profile)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(accountID string, profile *domain.Profile) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(accountID, profile.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{Profile: profile, Token: token, ExpiresAt: exp}, nil
}

type accountInput struct {
	Email      string
	Password   string
	Name       string
	Program    *string
	Department *string
	Role       domain.Role
	Confirmed  bool
	Metadata   map[string]any
}

// normalizeEmail is the stored form of an address; lookups and the unique
// index both compare lower-cased addresses.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// createAccount validates input and stores the account with its profile.
func createAccount(ctx context.Context, accounts repository.AccountRepository, cost int, in accountInput) (*domain.Account, *domain.Profile, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.Name)
	if email == "" || in.Password == "" || name == "" {
		return nil, nil, apperrors.NewValidationError("email, senha e nome são obrigatórios", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, nil, apperrors.NewValidationError("email inválido", map[string]any{"email": email})
	}
	if err := auth.CheckPasswordPolicy(in.Password); err != nil {
		return nil, nil, apperrors.NewValidationError(err.Error(), nil)
	}

	if _, err := accounts.GetByEmail(ctx, email); err == nil {
		return nil, nil, apperrors.NewConflict(DuplicateEmailMessage, map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(in.Password, cost)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	account := &domain.Account{
		Email:        email,
		PasswordHash: hash,
		Metadata:     in.Metadata,
	}
	if in.Confirmed {
		now := time.Now()
		account.EmailConfirmedAt = &now
	}
	profile := &domain.Profile{
		Name:       name,
		Program:    in.Program,
		Role:       in.Role,
		Department: in.Department,
	}
	if err := accounts.CreateWithProfile(ctx, account, profile); err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return account, profile, nil
}
