// Package cli implements the journey command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	DB         string
	Server     string
	Account    string
	Token      string
	Format     string // "json" | "text"
	Verbose    bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// configKeys are the settings that may come from flags, JOURNEY_* env or the
// config file.
var configKeys = []string{"db", "server", "account", "token", "format", "verbose"}

// NewRootCommand creates the root command for the journey CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "journey",
		Short: "Log the distance of your journey to Mordor",
		Long: `Log walked and run distances on this device and keep them in sync
with a journeyd server across devices.

Entries are stored locally first. When a server and account are configured,
every command starts by reconciling with the server, and changes are pushed
back before the command exits. Offline changes are kept and synced later.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v, opts); err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			// Validate format flag
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.ConfigFile, "config", "", "config file (default $XDG_CONFIG_HOME/journey/config.yaml)")
	pf.String("db", "", "path to the local database")
	pf.String("server", "", "journeyd base URL; empty keeps data on this device only")
	pf.String("account", "", "account to sync")
	pf.String("token", "", "bearer token for the server")
	pf.String("format", "text", "output format (json|text)")
	pf.BoolP("verbose", "v", false, "verbose output")

	for _, key := range configKeys {
		_ = v.BindPFlag(key, pf.Lookup(key))
	}
	v.SetEnvPrefix("JOURNEY")
	v.AutomaticEnv()
	v.SetDefault("db", defaultDBPath())

	// Add subcommands
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewUnitCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewDeleteAccountCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))

	return cmd
}

// loadConfig reads the optional config file and resolves every setting into
// opts.
func loadConfig(v *viper.Viper, opts *RootOptions) error {
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	} else if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "journey"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return err
			}
		}
	}

	opts.DB = v.GetString("db")
	opts.Server = v.GetString("server")
	opts.Account = v.GetString("account")
	opts.Token = v.GetString("token")
	opts.Format = v.GetString("format")
	opts.Verbose = v.GetBool("verbose")
	return nil
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "journey.db"
	}
	return filepath.Join(dir, "journey", "journey.db")
}
