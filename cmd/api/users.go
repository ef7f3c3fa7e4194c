package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Soft-disable an account; its sessions stop resolving",
	RunE:  setActiveRunner(false),
}

var activateCmd = &cobra.Command{
	Use:   "activate",
	Short: "Re-enable a deactivated account",
	RunE:  setActiveRunner(true),
}

func init() {
	for _, cmd := range []*cobra.Command{deactivateCmd, activateCmd} {
		cmd.Flags().String("email", "", "account email")
		_ = cmd.MarkFlagRequired("email")
		usersCmd.AddCommand(cmd)
	}
}

func setActiveRunner(active bool) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		if email == "" {
			return errors.New("--email is required")
		}

		s, err := openStack(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		user, err := s.auth.SetUserActive(cmd.Context(), email, active)
		if err != nil {
			return err
		}
		logger.Info("user updated", zap.String("user_id", user.ID), zap.String("email", user.Email), zap.Bool("active", active))
		return nil
	}
}
