package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// StaffAccountInput describes a staff account to provision.
type StaffAccountInput struct {
	Email      string
	Password   string
	Name       string
	Department string
}

// ProvisioningService creates staff accounts on behalf of an administrator.
type ProvisioningService struct {
	accounts   repository.AccountRepository
	profiles   repository.ProfileRepository
	bcryptCost int
	logger     *zap.Logger
}

// NewProvisioningService builds the service.
func NewProvisioningService(accounts repository.AccountRepository, profiles repository.ProfileRepository, bcryptCost int, logger *zap.Logger) *ProvisioningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProvisioningService{accounts: accounts, profiles: profiles, bcryptCost: bcryptCost, logger: logger}
}

// CLIActorID is recorded as the provisioning actor for accounts created from
// the command line.
const CLIActorID = "cli"

// CreateStaff creates a pre-confirmed account and promotes its profile to
// funcionario. Only staff may call it.
func (s *ProvisioningService) CreateStaff(ctx context.Context, actor *domain.Profile, input StaffAccountInput) (*domain.Profile, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	return s.provision(ctx, actor.ID, input)
}

// BootstrapStaff creates a staff account without a calling profile. It backs
// the create-staff command, which seeds the first funcionario of a fresh
// install; the HTTP surface never reaches it.
func (s *ProvisioningService) BootstrapStaff(ctx context.Context, input StaffAccountInput) (*domain.Profile, error) {
	return s.provision(ctx, CLIActorID, input)
}

func (s *ProvisioningService) provision(ctx context.Context, actorID string, input StaffAccountInput) (*domain.Profile, error) {
	department := strings.TrimSpace(input.Department)
	if department == "" {
		return nil, apperrors.NewValidationError("setor é obrigatório", nil)
	}
	s.logger.Info("provisioning staff account",
		zap.String("email", input.Email),
		zap.String("setor", department),
		zap.String("actor_id", actorID))

	account, profile, err := createAccount(ctx, s.accounts, s.bcryptCost, accountInput{
		Email:      input.Email,
		Password:   input.Password,
		Name:       input.Name,
		Department: &department,
		Role:       domain.RoleStudent,
		Confirmed:  true,
		Metadata: map[string]any{
			"nome":  strings.TrimSpace(input.Name),
			"setor": department,
		},
	})
	if err != nil {
		s.logger.Error("staff account creation failed", zap.String("email", input.Email), zap.Error(err))
		return nil, err
	}

	if err := s.profiles.UpdateRole(ctx, account.ID, domain.RoleStaff, &department); err != nil {
		s.logger.Error("staff profile promotion failed", zap.String("account_id", account.ID), zap.Error(err))
		return nil, storeError("profile", err)
	}
	profile.Role = domain.RoleStaff
	return profile, nil
}

// ListStaff returns the staff directory, optionally narrowed to a department.
func (s *ProvisioningService) ListStaff(ctx context.Context, actor *domain.Profile, department *string, limit, offset int) ([]domain.Profile, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	role := domain.RoleStaff
	profiles, err := s.profiles.List(ctx, repository.ProfileFilter{
		Role:       &role,
		Department: department,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, storeError("profile", err)
	}
	return profiles, nil
}
