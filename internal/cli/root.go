// Package cli holds the sleepbot command tree: serve (the default), migrate
// and stats. Every command loads the same configuration (environment, an
// optional .env file and CONFIG_FILE) and logs through zerolog.
package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-sleep-tracker/internal/config"
	"github.com/tbourn/go-sleep-tracker/internal/sysutil"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// RootOptions holds global flags and the state PersistentPreRunE prepares.
type RootOptions struct {
	EnvFile string
	Format  string // "json" | "text"

	cfg       config.Config
	logCloser io.Closer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the sleepbot root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "sleepbot",
		Short:         "Sleep tracker bot backend",
		Long:          "Records bedtimes and wake times for chat users, collects ratings and notes, and reports sleep statistics.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logCloser != nil {
				return opts.logCloser.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file loaded before reading configuration (missing is fine)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))

	return cmd
}

// prepare validates flags, loads configuration and installs the logger.
// Variables already in the environment win over the dotenv file.
func (o *RootOptions) prepare() error {
	if !isValidFormat(o.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats)
	}
	if o.EnvFile != "" {
		if err := godotenv.Load(o.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", o.EnvFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	closer, err := sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	o.cfg = cfg
	o.logCloser = closer

	log.Debug().Str("version", Version).Str("db_path", cfg.DBPath).Str("timezone", cfg.Timezone).Msg("configuration loaded")
	return nil
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
