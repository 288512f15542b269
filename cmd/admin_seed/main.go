package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/services"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "admin_seed",
		Short: "Storefront account bootstrap",
	}
	rootCmd.AddCommand(createCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func createCmd() *cobra.Command {
	var (
		dsn   string
		input services.RegisterInput
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the admin account, or promote an existing account to admin",
		Long: `Create a verified, active admin account.

When an account with the email already exists it is promoted to admin,
verified and reactivated; its password is left unchanged.

Flags fall back to ADMIN_EMAIL, ADMIN_NAME, ADMIN_PHONE, ADMIN_PASSWORD
and DATABASE_URL.

Examples:
  admin_seed create --email admin@example.com --name Admin --password s3cret!`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db := database.Connect(dsn)
			sqlDB, err := db.DB()
			if err == nil {
				defer sqlDB.Close()
			}

			auth := services.NewAuthService(db, nil, nil, nil, services.AuthConfig{})
			account, created, err := auth.EnsureAdmin(context.Background(), input)
			if err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}

			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Admin created successfully: %s (%s)\n", account.Email, account.ID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Account promoted to admin: %s (%s)\n", account.Email, account.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", os.Getenv("ADMIN_EMAIL"), "admin email")
	cmd.Flags().StringVar(&input.Name, "name", os.Getenv("ADMIN_NAME"), "admin display name")
	cmd.Flags().StringVar(&input.Phone, "phone", os.Getenv("ADMIN_PHONE"), "admin phone number")
	cmd.Flags().StringVar(&input.Password, "password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	cmd.Flags().StringVar(&dsn, "database-url", os.Getenv("DATABASE_URL"), "postgres connection string")

	return cmd
}
