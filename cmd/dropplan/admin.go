package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/dropplan/internal/application"
)

// bootstrapPrincipal creates the first administrator before any account exists.
var bootstrapPrincipal = application.Principal{UserID: "bootstrap", Role: application.RoleAdministrator}

func (a *app) createAdminCommand() *cobra.Command {
	var email, name, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(os.Stderr, cfg.LogLevel)

			store, err := openStore(cmd.Context(), cfg.SQLitePath, logger)
			if err != nil {
				return err
			}
			defer closeStore(store, logger)

			users := application.NewUserService(store, uuid.NewString, time.Now, logger,
				application.WithDefaultCapacity(cfg.DefaultCapacity))
			user, err := users.CreateUser(cmd.Context(), application.CreateUserParams{
				Principal: bootstrapPrincipal,
				Input: application.UserInput{
					Email:       email,
					DisplayName: name,
					Password:    password,
					Role:        application.RoleAdministrator,
				},
			})
			if err != nil {
				return fmt.Errorf("create administrator: %w", err)
			}
			fmt.Fprintf(a.out, "created administrator %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "administrator email")
	cmd.Flags().StringVar(&name, "name", "", "administrator display name")
	cmd.Flags().StringVar(&password, "password", "", "administrator password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) hashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the argon2id hash of a password",
		Long:  "Print the argon2id hash of a password. Without an argument the password is read from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return fmt.Errorf("password must not be empty")
			}
			hash, err := application.HashPassword(password)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			fmt.Fprintln(a.out, hash)
			return nil
		},
	}
}
