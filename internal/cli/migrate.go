package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-sleep-tracker/internal/observability"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing tables and indexes, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := openStore(cmd.Context(), rootOpts.cfg, &observability.Telemetry{})
			if err != nil {
				return err
			}
			closeDB(db)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema up to date: %s\n", rootOpts.cfg.DBPath)
			return err
		},
	}
}
