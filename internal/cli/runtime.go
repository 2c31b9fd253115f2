package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"journey/internal/adapter/memory"
	"journey/internal/adapter/remote"
	"journey/internal/adapter/sqlite"
	"journey/internal/app"
	"journey/internal/domain"
)

const (
	requestTimeout = 15 * time.Second
	probeTimeout   = 3 * time.Second
	probeTTL       = 30 * time.Second
)

// Runtime is one device session: the local store, the record store and the
// sync coordinator wired together.
type Runtime struct {
	Store    *app.RecordStore
	Importer *app.Importer
	Sync     *app.SyncCoordinator
	Client   *remote.Client // nil without a server
	Logger   *log.Logger

	opts  *RootOptions
	local *sqlite.Store
	out   *OutputFormatter
}

// openRuntime opens the local database, loads the state and, when a server
// and account are configured, starts the sync session.
func openRuntime(ctx context.Context, cmd *cobra.Command, opts *RootOptions) (*Runtime, error) {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	if opts.DB == "" {
		return nil, NewExitError(ExitCommandError, "--db is required")
	}
	if dir := filepath.Dir(opts.DB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to create database directory", err)
		}
	}
	local, err := sqlite.Open(opts.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	var (
		docs   domain.RemoteStore
		conn   domain.Connectivity
		client *remote.Client
	)
	if opts.Server != "" {
		client, err = remote.NewClient(opts.Server, opts.Token, requestTimeout)
		if err != nil {
			local.Close()
			return nil, WrapExitError(ExitCommandError, "invalid --server", err)
		}
		docs, conn = client, remote.NewProbe(client, probeTimeout, probeTTL)
	} else {
		// Local-only: nothing is ever pushed because no session starts.
		docs, conn = memory.New().NewDocuments(), memory.NewConnectivity(false)
		if opts.Account != "" {
			logger.Warn("account is ignored without a server", "account", opts.Account)
		}
	}

	ids := app.NewClockIDs(nil)
	store := app.NewRecordStore(local, ids, logger)
	coord := app.NewSyncCoordinator(store, docs, conn, local, requestTimeout, logger)
	store.SetNotifier(coord)
	store.Load(ctx)

	rt := &Runtime{
		Store:    store,
		Importer: app.NewImporter(store, ids),
		Sync:     coord,
		Client:   client,
		Logger:   logger,
		opts:     opts,
		local:    local,
		out:      &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()},
	}
	if rt.Syncing() {
		logger.Debug("starting sync session", "account", opts.Account, "server", opts.Server)
		coord.Start(ctx, opts.Account)
	}
	return rt, nil
}

// Syncing reports whether this session talks to a server.
func (rt *Runtime) Syncing() bool {
	return rt.opts.Server != "" && rt.opts.Account != ""
}

// Close drains queued pushes and closes the database.
func (rt *Runtime) Close() error {
	rt.Sync.Close()
	return rt.local.Close()
}

// withRuntime runs fn inside a session and reports its error in the
// configured format.
func withRuntime(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, rt *Runtime) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := openRuntime(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil && err == nil {
			err = WrapExitError(ExitCommandError, "failed to close database", cerr)
		}
	}()

	if err := fn(ctx, rt); err != nil {
		if opts.Format == "json" {
			_ = rt.out.Error(err)
		}
		return err
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{Prefix: "journey", Level: level})
}

// today is the default entry date, in local time.
func today() string {
	return time.Now().Format(domain.DateLayout)
}

func errUnknownEntry(id int64) error {
	return NewExitError(ExitFailure, fmt.Sprintf("no entry with id %d", id))
}

var errNeedsSession = errors.New("configure --server and --account to sync")

func convertTotal(km float64, unit domain.Unit) float64 {
	return domain.ConvertDistance(km, domain.Kilometers, unit)
}

func newLoginClient(server string) (*remote.Client, error) {
	return remote.NewClient(server, "", requestTimeout)
}
