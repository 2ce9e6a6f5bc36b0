package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// staffPasswordEnv lets scripts pass the password without it showing up in
// the process list.
const staffPasswordEnv = "HELPDESK_STAFF_PASSWORD"

func newCreateStaffCommand() *cobra.Command {
	var input service.StaffAccountInput

	cmd := &cobra.Command{
		Use:   "create-staff",
		Short: "Create a funcionario account",
		Long: `Create a pre-confirmed staff account directly in the database.
This is how the first funcionario of a fresh install is created; further
staff can then be added through POST /functions/v1/criar-funcionario.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input.Password == "" {
				input.Password = os.Getenv(staffPasswordEnv)
			}
			if input.Password == "" {
				return errors.New("a password is required: pass --senha or set " + staffPasswordEnv)
			}
			return runCreateStaff(cmd, input)
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&input.Name, "nome", "", "Display name (required)")
	cmd.Flags().StringVar(&input.Department, "setor", "", "Department (required)")
	cmd.Flags().StringVar(&input.Password, "senha", "", "Password; defaults to $"+staffPasswordEnv)
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("nome")
	_ = cmd.MarkFlagRequired("setor")

	return cmd
}

func runCreateStaff(cmd *cobra.Command, input service.StaffAccountInput) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx := cmd.Context()
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
		return err
	}

	provisioning := service.NewProvisioningService(
		repository.NewAccountRepository(pool),
		repository.NewProfileRepository(pool),
		cfg.Auth.BcryptCost,
		logger,
	)
	profile, err := provisioning.BootstrapStaff(ctx, input)
	if err != nil {
		return fmt.Errorf("create staff: %w", err)
	}

	logger.Info("staff account created", zap.String("profile_id", profile.ID), zap.String("setor", input.Department))
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", profile.ID, input.Email)
	return nil
}
