package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/weiwangfds/notebox/internal/database"
	"github.com/weiwangfds/notebox/internal/logger"
	"github.com/weiwangfds/notebox/internal/service/auth"
)

func migrateCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			// bootstrap 会执行迁移
			_, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer closeDB(db)
			logger.Info("migrations applied")

			if !seed {
				return nil
			}
			n, err := database.SeedTags(db, database.DefaultSeedTags)
			if err != nil {
				return fmt.Errorf("seed tags: %w", err)
			}
			fmt.Printf("Seeded %d tag(s)\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "insert a starter set of tags")
	return cmd
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(userCreateCmd())
	cmd.AddCommand(userDeleteCmd())
	return cmd
}

// newAuthService 根据配置创建认证服务
func newAuthService() (auth.AuthService, func(), error) {
	cfg, db, err := bootstrap()
	if err != nil {
		return nil, nil, err
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	return auth.NewAuthService(db, tokens, cfg.Auth.BcryptCost), func() { closeDB(db) }, nil
}

func userCreateCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := newAuthService()
			if err != nil {
				return err
			}
			defer done()

			user, err := svc.Register(cmd.Context(), &auth.RegisterRequest{Username: args[0], Password: password})
			if err != nil {
				return err
			}
			fmt.Printf("Created user %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "password for the new user")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user with all their notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := newAuthService()
			if err != nil {
				return err
			}
			defer done()

			if err := svc.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted user %s\n", args[0])
			return nil
		},
	}
}
