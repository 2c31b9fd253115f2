package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"journey/internal/app"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export entries as CSV",
		Long: `Export entries as CSV, with distances in the preferred unit.

Without --output the file is written to the current directory as
journey-to-mordor-YYYY-MM-DD.csv. Use --output - for stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, opts.RootOptions, func(ctx context.Context, rt *Runtime) error {
				name, content := rt.Importer.Export(time.Now())
				entries := len(rt.Store.State().Logs)

				if opts.Output == "-" {
					_, err := fmt.Fprintln(cmd.OutOrStdout(), content)
					return err
				}
				if opts.Output != "" {
					name = opts.Output
				}
				if err := os.WriteFile(name, []byte(content+"\n"), 0o644); err != nil {
					return WrapExitError(ExitCommandError, "cannot write export", err)
				}
				return rt.out.Success(exportView{File: name, Entries: entries})
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file, or - for stdout")

	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfirmOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace all entries with a CSV file",
		Long: `Replace all entries with the contents of a CSV file.

The file needs Date and Distance columns; a Note column is optional. A
distance header mentioning miles is read as miles. Nothing changes if any
row is invalid. When entries exist you are asked before they are replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "cannot read import file", err)
			}
			return withRuntime(cmd, opts.RootOptions, func(ctx context.Context, rt *Runtime) error {
				state, err := rt.Importer.Import(ctx, text, importConfirmer(cmd, opts.Yes))
				if errors.Is(err, app.ErrImportCancelled) {
					return NewExitError(ExitFailure, "import cancelled")
				}
				if err != nil {
					return WrapExitError(ExitFailure, "import failed", err)
				}
				return rt.out.Success(fmt.Sprintf("Imported %d entries.", len(state.Logs)))
			})
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "replace existing entries without asking")

	return cmd
}

func readInput(cmd *cobra.Command, name string) (string, error) {
	if name == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	}
	b, err := os.ReadFile(name)
	return string(b), err
}
