package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/josh-kwaku/billing-ledger/internal/domain"
	"github.com/josh-kwaku/billing-ledger/internal/repository"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage operator accounts",
	}
	cmd.AddCommand(newUserCreateCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var tenant, email, name, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an active user for a tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := newUser(tenant, email, name, password)
			if err != nil {
				return err
			}

			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repository.NewUserRepository(db).Create(cmd.Context(), u); err != nil {
				return fmt.Errorf("user create: %w", err)
			}
			slog.Info("user created", "user_id", u.ID, "tenant_id", u.TenantID, "email", u.Email)
			fmt.Fprintln(cmd.OutOrStdout(), u.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&tenant, "tenant", "", "tenant id (uuid)")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	for _, f := range []string{"tenant", "email", "password"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func newUser(tenant, email, name, password string) (*domain.User, error) {
	tenantID, err := uuid.Parse(tenant)
	if err != nil {
		return nil, fmt.Errorf("newUser: tenant: %w", domain.ErrInvalidRequest)
	}
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("newUser: email %q: %w", email, domain.ErrInvalidRequest)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("newUser: password must be at least 8 characters: %w", domain.ErrInvalidRequest)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("newUser: hash password: %w", err)
	}
	if name == "" {
		name = email
	}
	return &domain.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Status:       domain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
