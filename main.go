package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shreyakodukula/parking/internal/config"
	"github.com/shreyakodukula/parking/internal/domain"
	"github.com/shreyakodukula/parking/internal/repository/postgresql"
	"github.com/shreyakodukula/parking/internal/service"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "parking",
		Short: "Parking slot reservation backend",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(createAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with its background workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			cfg.SetupLogger()
			return serve(cfg)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			cfg.SetupLogger()

			db, err := postgresql.NewDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgresql.Migrate(db); err != nil {
				return err
			}
			slog.Info("schema up to date")
			return nil
		},
	}
}

func createAdminCmd() *cobra.Command {
	var dto domain.RegisterUserDTO
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Example: `  parking create-admin --username admin --email ops@example.com --name "Ops"
  ADMIN_PASSWORD=s3cret parking create-admin --username admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dto.Password == "" {
				dto.Password = os.Getenv("ADMIN_PASSWORD")
			}
			if dto.Username == "" || len(dto.Password) < 6 {
				return fmt.Errorf("--username and a password of at least 6 characters are required")
			}
			if dto.Name == "" {
				dto.Name = dto.Username
			}

			cfg := config.Load()
			cfg.SetupLogger()
			db, err := postgresql.NewDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			authService := service.NewAuthService(postgresql.NewPgUserRepository(db), cfg.JWTSecret, cfg.JWTExpirationHours)
			admin, err := authService.CreateAdmin(context.Background(), dto)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			slog.Info("admin created", "user_id", admin.ID, "username", admin.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dto.Username, "username", "u", "", "admin username")
	cmd.Flags().StringVarP(&dto.Password, "password", "p", "", "admin password (defaults to $ADMIN_PASSWORD)")
	cmd.Flags().StringVar(&dto.Name, "name", "", "display name")
	cmd.Flags().StringVar(&dto.Email, "email", "", "contact email")
	return cmd
}
