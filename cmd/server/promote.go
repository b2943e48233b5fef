package main

import (
	"fmt"

	"storefront/backend/internal/infrastructure/password"
	"storefront/backend/internal/infrastructure/postgres"
	userusecase "storefront/backend/internal/usecase/user"

	"github.com/spf13/cobra"
)

var promoteEmail string

var promoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Grant the ADMIN role to an existing account",
	Long: `Grant the ADMIN role to the account registered under --email.

Registration always creates USER accounts, so the first administrator is
bootstrapped with this command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openPostgres(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		users := userusecase.NewService(
			postgres.NewUserRepository(db.Pool),
			password.NewBcryptHasher(cfg.BcryptCost),
		)
		user, err := users.PromoteByEmail(cmd.Context(), promoteEmail)
		if err != nil {
			return fmt.Errorf("promote %s: %w", promoteEmail, err)
		}

		logger.WithField("user_id", user.ID).Info("user promoted to admin")
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.Role)
		return nil
	},
}

func init() {
	promoteCmd.Flags().StringVar(&promoteEmail, "email", "", "email of the account to promote")
	_ = promoteCmd.MarkFlagRequired("email")
}
