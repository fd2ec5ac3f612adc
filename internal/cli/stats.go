package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-sleep-tracker/internal/observability"
	"github.com/tbourn/go-sleep-tracker/internal/services"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	var userID int64

	cmd := &cobra.Command{
		Use:   "stats --user <id>",
		Short: "Print a user's sleep statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == 0 {
				return errors.New("--user must be a non-zero chat user id")
			}
			eng, db, err := openStore(cmd.Context(), rootOpts.cfg, &observability.Telemetry{})
			if err != nil {
				return err
			}
			defer closeDB(db)

			sum, err := services.NewStatsService(eng).Summary(cmd.Context(), userID)
			if errors.Is(err, services.ErrNoSleepData) {
				return printNoData(cmd.OutOrStdout(), rootOpts.Format, userID)
			}
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), rootOpts.Format, userID, sum)
		},
	}
	cmd.Flags().Int64Var(&userID, "user", 0, "chat user id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printNoData(w io.Writer, format string, userID int64) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(map[string]any{"user_id": userID, "sessions": 0})
	}
	_, err := fmt.Fprintf(w, "user %d has no finished sleep sessions\n", userID)
	return err
}

func printSummary(w io.Writer, format string, userID int64, s *services.Summary) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(struct {
			UserID int64 `json:"user_id"`
			*services.Summary
		}{userID, s})
	}
	_, err := fmt.Fprintf(w,
		"user %d\nsessions: %d\ntotal:    %d h %d min\naverage:  %d h %d min\n",
		userID, s.Sessions, s.Total.Hours, s.Total.Minutes, s.Average.Hours, s.Average.Minutes)
	return err
}
