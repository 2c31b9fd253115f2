package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"journey/internal/domain"
)

// PendingKey stores the pending-sync flag next to the state.
const PendingKey = StorageKey + "_pending"

// ErrNoAccount is returned by account operations when no session is active.
var ErrNoAccount = errors.New("no active account")

// SyncStatus is the coordinator's position in its per-session state machine.
type SyncStatus string

const (
	StatusIdle        SyncStatus = "idle"
	StatusReconciling SyncStatus = "reconciling"
	StatusPending     SyncStatus = "pending"
)

// StateHolder is the part of the record store the coordinator reads and
// writes.
type StateHolder interface {
	State() domain.State
	Adopt(ctx context.Context, state domain.State)
	Reset(ctx context.Context) domain.State
}

// invalidator is implemented by connectivity checks that cache their answer.
type invalidator interface {
	Invalidate()
}

// SyncCoordinator keeps the remote per-account copy of the state eventually
// consistent with the local one. Failures never reach the caller: they leave
// the pending flag set for a later reconciliation.
type SyncCoordinator struct {
	holder StateHolder
	remote domain.RemoteStore
	conn   domain.Connectivity
	local  domain.LocalStore
	logger *log.Logger
	pusher *Pusher

	mu          sync.Mutex
	account     string
	pending     bool
	reconciling int

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewSyncCoordinator wires a coordinator and restores the persisted pending
// flag. pushTimeout bounds each background push.
func NewSyncCoordinator(holder StateHolder, remote domain.RemoteStore, conn domain.Connectivity, local domain.LocalStore, pushTimeout time.Duration, logger *log.Logger) *SyncCoordinator {
	if logger == nil {
		logger = log.Default()
	}
	c := &SyncCoordinator{
		holder: holder,
		remote: remote,
		conn:   conn,
		local:  local,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
	c.pusher = NewPusher(pushTimeout, c.push)

	if _, ok, err := local.Get(context.Background(), PendingKey); err != nil {
		logger.Warn("failed to read pending sync flag", "err", err)
	} else {
		c.pending = ok
	}
	return c
}

// Start begins an account session and reconciles once.
func (c *SyncCoordinator) Start(ctx context.Context, account string) {
	c.mu.Lock()
	c.account = account
	c.mu.Unlock()
	c.SyncWithRemote(ctx, account)
}

// End closes the account session; later mutations stay local-only.
func (c *SyncCoordinator) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account = ""
}

// Account returns the active account, or "" when signed out.
func (c *SyncCoordinator) Account() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.account
}

// Pending reports whether local changes still need reconciling.
func (c *SyncCoordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Status reports the current sync state.
func (c *SyncCoordinator) Status() SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.reconciling > 0:
		return StatusReconciling
	case c.pending:
		return StatusPending
	default:
		return StatusIdle
	}
}

// Notify implements Notifier for the record store.
func (c *SyncCoordinator) Notify(state domain.State) {
	c.SyncOrQueue(c.Account(), state)
}

// SyncOrQueue propagates a freshly committed state: pushed in the background
// when online, flagged as pending when offline, ignored without an account.
func (c *SyncCoordinator) SyncOrQueue(account string, state domain.State) {
	if account == "" {
		return
	}
	if !c.conn.Online() {
		c.markPending(context.Background())
		return
	}
	if !c.pusher.Submit(account, state) {
		c.markPending(context.Background())
	}
}

// SyncWithRemote pulls the remote copy, merges it into the local state and
// pushes the result back when it differs. Reconciliations of one account run
// one at a time.
func (c *SyncCoordinator) SyncWithRemote(ctx context.Context, account string) {
	if account == "" {
		return
	}
	unlock := c.lockAccount(account)
	defer unlock()

	if !c.conn.Online() {
		c.logger.Info("offline: sync will be attempted when connection is restored", "account", account)
		c.markPending(ctx)
		return
	}

	// Queued pushes carry pre-merge states; they must land before the pull.
	c.pusher.Wait()

	c.setReconciling(1)
	defer c.setReconciling(-1)

	if err := c.reconcile(ctx, account); err != nil {
		c.logger.Error("sync failed", "account", account, "err", err)
		c.remoteFailed()
		c.markPending(ctx)
		return
	}
	c.clearPending(ctx)
}

// RetryPending reconciles the active account if a sync is pending and the
// network is back.
func (c *SyncCoordinator) RetryPending(ctx context.Context) {
	account := c.Account()
	if account == "" || !c.Pending() || !c.conn.Online() {
		return
	}
	c.SyncWithRemote(ctx, account)
}

// ResetData wipes local data. With an active account the remote document is
// deleted first; if that fails nothing is reset.
func (c *SyncCoordinator) ResetData(ctx context.Context) error {
	if account := c.Account(); account != "" {
		unlock := c.lockAccount(account)
		defer unlock()
		c.pusher.Wait()
		if err := c.remote.Delete(ctx, account); err != nil {
			return fmt.Errorf("delete remote document: %w", err)
		}
	}
	c.holder.Reset(ctx)
	c.clearPending(ctx)
	return nil
}

// DeleteAccount purges the account's remote document and local data, then
// ends the session.
func (c *SyncCoordinator) DeleteAccount(ctx context.Context) error {
	if c.Account() == "" {
		return ErrNoAccount
	}
	if err := c.ResetData(ctx); err != nil {
		return err
	}
	c.End()
	return nil
}

// Wait blocks until queued pushes have completed.
func (c *SyncCoordinator) Wait() {
	c.pusher.Wait()
}

// Close drains queued pushes and stops the background worker.
func (c *SyncCoordinator) Close() {
	c.pusher.Close()
}

func (c *SyncCoordinator) reconcile(ctx context.Context, account string) error {
	local := c.holder.State()

	remote, err := c.remote.Get(ctx, account)
	if err != nil {
		return fmt.Errorf("%w: fetch: %v", domain.ErrRemoteUnavailable, err)
	}
	if remote == nil {
		if err := c.remote.Set(ctx, account, local); err != nil {
			return fmt.Errorf("%w: initial upload: %v", domain.ErrRemoteUnavailable, err)
		}
		return nil
	}

	merged := domain.Merge(local, *remote)
	c.holder.Adopt(ctx, merged)

	if !cmp.Equal(merged, *remote, cmpopts.EquateEmpty()) {
		if err := c.remote.Set(ctx, account, merged); err != nil {
			return fmt.Errorf("%w: upload merged: %v", domain.ErrRemoteUnavailable, err)
		}
	}
	return nil
}

func (c *SyncCoordinator) push(ctx context.Context, account string, state domain.State) {
	if err := c.remote.Set(ctx, account, state); err != nil {
		c.logger.Error("failed to save to remote store", "account", account,
			"err", fmt.Errorf("%w: %v", domain.ErrRemoteUnavailable, err))
		c.remoteFailed()
		c.markPending(ctx)
	}
}

// remoteFailed drops a cached "online" answer so the next retry checks the
// network again.
func (c *SyncCoordinator) remoteFailed() {
	if inv, ok := c.conn.(invalidator); ok {
		inv.Invalidate()
	}
}

func (c *SyncCoordinator) setReconciling(delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconciling += delta
}

func (c *SyncCoordinator) markPending(ctx context.Context) {
	c.mu.Lock()
	c.pending = true
	c.mu.Unlock()
	if err := c.local.Set(ctx, PendingKey, "1"); err != nil {
		c.logger.Warn("failed to persist pending sync flag", "err", err)
	}
}

func (c *SyncCoordinator) clearPending(ctx context.Context) {
	c.mu.Lock()
	c.pending = false
	c.mu.Unlock()
	if err := c.local.Remove(ctx, PendingKey); err != nil {
		c.logger.Warn("failed to clear pending sync flag", "err", err)
	}
}

func (c *SyncCoordinator) lockAccount(account string) func() {
	c.locksMu.Lock()
	l, ok := c.locks[account]
	if !ok {
		l = &sync.Mutex{}
		c.locks[account] = l
	}
	c.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}
