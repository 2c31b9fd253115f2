package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"journey/internal/domain"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Date string
	Unit string
	Note string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <distance>",
		Short: "Log a distance",
		Long: `Log a distance. It is read in --unit, or in the preferred unit when
--unit is not given.

Example:
  journey add 5.2 --date 2024-03-01 --note "Morning run"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts.RootOptions, func(ctx context.Context, rt *Runtime) error {
				return addEntry(ctx, rt, opts, args[0])
			})
		},
	}

	cmd.Flags().StringVar(&opts.Date, "date", "", "entry date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.Unit, "unit", "", "unit of the distance (km|miles)")
	cmd.Flags().StringVar(&opts.Note, "note", "", "optional note")

	return cmd
}

func addEntry(ctx context.Context, rt *Runtime, opts *AddOptions, rawDistance string) error {
	d, err := decimal.NewFromString(rawDistance)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid distance %q", rawDistance))
	}
	date := opts.Date
	if date == "" {
		date = today()
	}

	state, err := rt.Store.AddEntry(ctx, domain.NewEntry{
		Date:     date,
		Distance: d.InexactFloat64(),
		Unit:     domain.Unit(opts.Unit),
		Note:     opts.Note,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "cannot add entry", err)
	}
	return rt.out.Success(newEntryView(state.Logs[0], state.Unit))
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Limit int
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts.RootOptions, func(ctx context.Context, rt *Runtime) error {
				state := rt.Store.State()
				domain.SortNewestFirst(state.Logs)
				if opts.Limit > 0 && len(state.Logs) > opts.Limit {
					state.Logs = state.Logs[:opts.Limit]
				}
				view := listView{Unit: state.Unit, Entries: make([]entryView, 0, len(state.Logs))}
				for _, e := range state.Logs {
					view.Entries = append(view.Entries, newEntryView(e, state.Unit))
				}
				return rt.out.Success(view)
			})
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "show at most N entries (0 = all)")

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid id %q", args[0]))
			}
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *Runtime) error {
				found := slices.ContainsFunc(rt.Store.State().Logs, func(e domain.LogEntry) bool { return e.ID == id })
				if !found {
					return errUnknownEntry(id)
				}
				state := rt.Store.DeleteEntry(ctx, id)
				return rt.out.Success(fmt.Sprintf("Deleted entry %d (%d left).", id, len(state.Logs)))
			})
		},
	}
}

// ConfirmOptions holds the --yes flag shared by destructive commands.
type ConfirmOptions struct {
	*RootOptions
	Yes bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfirmOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every entry and keep the unit preference",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts.RootOptions, func(ctx context.Context, rt *Runtime) error {
				n := len(rt.Store.State().Logs)
				if n == 0 {
					return rt.out.Success("Nothing to delete.")
				}
				if !opts.Yes && !prompt(cmd, fmt.Sprintf("Delete all %d entries?", n)) {
					return NewExitError(ExitFailure, "cancelled")
				}
				rt.Store.DeleteAll(ctx)
				return rt.out.Success(fmt.Sprintf("Deleted %d entries.", n))
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "do not ask for confirmation")

	return cmd
}

// NewUnitCommand creates the unit command.
func NewUnitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "unit [km|miles]",
		Short:     "Show or set the preferred unit",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(domain.Kilometers), string(domain.Miles)},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *Runtime) error {
				if len(args) == 0 {
					return rt.out.Success(rt.Store.State().Unit)
				}
				unit, err := domain.ParseUnit(args[0])
				if err != nil {
					return WrapExitError(ExitCommandError, "cannot set unit", err)
				}
				state, err := rt.Store.SetUnit(ctx, unit)
				if err != nil {
					return WrapExitError(ExitCommandError, "cannot set unit", err)
				}
				return rt.out.Success(state.Unit)
			})
		},
	}
}
