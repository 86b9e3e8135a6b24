package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/vetclinic-api/internal/config"
	"github.com/jwalitptl/vetclinic-api/internal/email"
	"github.com/jwalitptl/vetclinic-api/internal/model"
	"github.com/jwalitptl/vetclinic-api/internal/repository/postgres"
	authService "github.com/jwalitptl/vetclinic-api/internal/service/auth"
	"github.com/jwalitptl/vetclinic-api/pkg/auth"
	"github.com/jwalitptl/vetclinic-api/pkg/security"
)

// createAdminCmd seeds the first administrator, who can then add staff
// through the API.
func createAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, _ := cmd.Flags().GetStringSlice("config-path")
			emailAddr, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			name, _ := cmd.Flags().GetString("name")

			cfg, err := config.LoadConfig(paths...)
			if err != nil {
				return err
			}
			if cfg.Database.Driver != "postgres" {
				return fmt.Errorf("create-admin needs the postgres driver, got %q", cfg.Database.Driver)
			}

			ctx := cmd.Context()
			db, err := postgres.NewDB(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			log := newLogger(cfg.Log)
			svc := authService.NewService(
				postgres.NewSet(db).Users,
				auth.NewJWTService(auth.Config{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}),
				security.NewBcryptHasher(cfg.JWT.BcryptCost),
				email.NewService(cfg.SMTP, log),
				cfg.Server.PublicURL,
				log,
			)

			user, err := svc.CreateStaff(ctx, &model.CreateStaffRequest{
				Email:    emailAddr,
				Password: password,
				Name:     name,
				Role:     model.RoleAdmin,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Created admin %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().String("email", "", "Admin email address")
	cmd.Flags().String("password", "", "Admin password, at least 8 characters")
	cmd.Flags().String("name", "Administrator", "Display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
