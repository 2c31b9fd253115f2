package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"journey/internal/app"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile with the server",
		Long: `Reconcile local entries with the server copy of the account.

Entries from both sides are kept; an entry present on both keeps the local
version. Exits with status 1 while the server cannot be reached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *Runtime) error {
				if !rt.Syncing() {
					return WrapExitError(ExitCommandError, "nothing to sync", errNeedsSession)
				}
				// The session start already reconciled; retry only if that failed.
				rt.Sync.RetryPending(ctx)
				rt.Sync.Wait()

				view := syncView{
					Account: rt.Sync.Account(),
					Status:  rt.Sync.Status(),
					Entries: len(rt.Store.State().Logs),
				}
				if err := rt.out.Success(view); err != nil {
					return err
				}
				if view.Status == app.StatusPending {
					return NewExitError(ExitFailure, "sync pending")
				}
				return nil
			})
		},
	}
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show totals and sync state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *Runtime) error {
				rt.Sync.Wait()
				state := rt.Store.State()
				totalKm := rt.Store.TotalDistance()
				now := today()
				start := rt.Store.StartDate(now)
				view := statusView{
					Entries:   len(state.Logs),
					Total:     roundDistance(convertTotal(totalKm, state.Unit)),
					Unit:      state.Unit,
					StartDate: start,
					Journey:   newJourneyView(totalKm, start, now, state.Unit),
					Sync:      rt.Sync.Status(),
					Pending:   rt.Sync.Pending(),
				}
				if rt.Syncing() {
					view.Account = rt.Sync.Account()
					view.Server = rt.opts.Server
				}
				return rt.out.Success(view)
			})
		},
	}
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfirmOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all data on this device and, when syncing, on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts.RootOptions, func(ctx context.Context, rt *Runtime) error {
				if !opts.Yes && !prompt(cmd, "Erase all entries and settings?") {
					return NewExitError(ExitFailure, "cancelled")
				}
				if err := rt.Sync.ResetData(ctx); err != nil {
					return WrapExitError(ExitFailure, "reset failed", err)
				}
				return rt.out.Success("All data erased.")
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

// NewDeleteAccountCommand creates the delete-account command.
func NewDeleteAccountCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfirmOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete the account's server copy and all local data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts.RootOptions, func(ctx context.Context, rt *Runtime) error {
				account := rt.Sync.Account()
				if !opts.Yes && account != "" && !prompt(cmd, fmt.Sprintf("Delete account %s and all its data?", account)) {
					return NewExitError(ExitFailure, "cancelled")
				}
				err := rt.Sync.DeleteAccount(ctx)
				if errors.Is(err, app.ErrNoAccount) {
					return WrapExitError(ExitCommandError, "cannot delete account", errNeedsSession)
				}
				if err != nil {
					return WrapExitError(ExitFailure, "cannot delete account", err)
				}
				return rt.out.Success(fmt.Sprintf("Deleted account %s.", account))
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Show where to obtain a token for the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.Server == "" {
				return WrapExitError(ExitCommandError, "cannot log in", errors.New("--server is required"))
			}
			c, err := newLoginClient(rootOpts.Server)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid --server", err)
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if rootOpts.Format == "json" {
				return out.Success(map[string]string{"loginURL": c.LoginURL()})
			}
			return out.Success(fmt.Sprintf(`Open %s in a browser and sign in.
Save the returned id_token as "token" in your config file or JOURNEY_TOKEN,
and the returned account as "account".`, c.LoginURL()))
		},
	}
}
