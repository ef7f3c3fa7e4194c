package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/team-task-service/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo users, teams and tasks",
	Long:  "Creates john@, jane@ and bob@example.com (password " + seed.DemoPassword + ") with two teams and sample tasks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStack(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		_, err = seed.Run(cmd.Context(), seed.Services{
			Auth:    s.auth,
			Teams:   s.teams,
			Members: s.members,
			Tasks:   s.tasks,
		}, time.Now(), logger)
		if errors.Is(err, seed.ErrAlreadySeeded) {
			logger.Info("seed skipped: demo data already present")
			return nil
		}
		return err
	},
}
