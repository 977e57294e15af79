// Package replica keeps one device's copy of the drive in sync: the
// in-memory event log is replayed from and mirrored to a local durable
// store, and pushed to / pulled from a remote log when one is
// configured. Merging is a union by event ID, so every direction of
// the mirror is idempotent.
package replica

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"paperdrive/pkg/eventlog"
	"paperdrive/pkg/tree"
)

// State names the replica's position in its lifecycle.
type State string

const (
	StateUninitialized      State = "uninitialized"
	StateLocalSynced        State = "local-sync-established"
	StateRemoteConnected    State = "remote-connected"
	StateRemoteDisconnected State = "remote-disconnected"
)

// RootName is the name given to the root folder when an empty log is
// bootstrapped.
const RootName = "Drive"

// Replica mirrors the in-memory log to durable storage.
//
// PollInterval and Retry may be adjusted between New and Start;
// afterwards the replica owns them.
type Replica struct {
	// PollInterval is how often the mirrors sweep when nothing new has
	// arrived. Pulls from the remote happen at this cadence.
	PollInterval time.Duration

	// Retry bounds the backoff applied after failed remote attempts.
	Retry Backoff

	log    *eventlog.Log
	local  eventlog.DurableLog
	remote eventlog.DurableLog // nil when offline-only
	logger *zap.Logger

	ready  atomic.Bool
	online atomic.Bool

	mu           sync.Mutex
	state        State
	persisted    map[string]bool // event IDs known to be in the local store
	pushed       map[string]bool // event IDs known to be in the remote store
	runCtx       context.Context
	remoteCancel context.CancelFunc

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a replica over log. local is required; remote may be nil
// for a device that never connects.
func New(log *eventlog.Log, local, remote eventlog.DurableLog, logger *zap.Logger) *Replica {
	return &Replica{
		PollInterval: 2 * time.Second,
		Retry:        *DefaultBackoff(),
		log:          log,
		local:        local,
		remote:       remote,
		logger:       logger,
		state:        StateUninitialized,
		persisted:    make(map[string]bool),
		pushed:       make(map[string]bool),
	}
}

// Open replays the local store into memory, adopts the remote drive
// (or bootstraps a fresh one) when the log is empty, and marks the
// replica ready. It launches nothing; one-shot
// callers follow up with Flush or SyncOnce, long-running ones use
// Start instead.
func (r *Replica) Open(ctx context.Context) error {
	events, err := r.local.All(ctx)
	if err != nil {
		return err
	}
	for i := range events {
		r.log.Add(&events[i])
		r.persisted[events[i].ID] = true
	}

	if r.log.Len() == 0 && r.remote != nil {
		// Fresh device: adopt the remote drive instead of creating a
		// second root. Best effort; offline first opens still bootstrap.
		if err := r.pullSweep(ctx); err != nil {
			r.logger.Warn("initial remote pull failed", zap.Error(err))
		}
	}

	if r.log.Len() == 0 {
		// Two offline replicas that each bootstrap before their first
		// handshake will produce two distinct roots after merge. Known
		// limitation; no winner is picked silently.
		root, err := tree.Create(r.log, eventlog.KindFolder, nil)
		if err != nil {
			return err
		}
		if err := root.SetName(RootName); err != nil {
			return err
		}
		r.logger.Info("bootstrapped empty drive",
			zap.String("root", string(root.ID())))
	}

	r.setState(StateLocalSynced)
	r.ready.Store(true)
	r.logger.Info("local sync established", zap.Int("events", r.log.Len()))
	return nil
}

// Start opens the replica and launches the mirror loops: local
// persistence, and remote push/pull when a remote is configured.
// Failure to read the local store is fatal; everything after that
// point is retried, never surfaced.
func (r *Replica) Start(ctx context.Context) error {
	if err := r.Open(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Lock()
	r.runCtx = runCtx
	r.mu.Unlock()

	r.wg.Add(1)
	go r.localMirror(runCtx)

	if r.remote != nil {
		r.startRemote(runCtx)
	}
	return nil
}

// Stop cancels all mirror loops and waits for them to finish. Events
// already in memory but not yet flushed can be persisted with Flush
// before stopping.
func (r *Replica) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// Resync tears down the remote replication loops and establishes new
// ones, for a user-triggered reconnect. On a started replica the new
// loops stay bound to Start's run context so Stop still cancels them;
// ctx only applies when the replica was never started. No-op without a
// remote.
func (r *Replica) Resync(ctx context.Context) {
	if r.remote == nil {
		return
	}
	r.mu.Lock()
	if r.runCtx != nil {
		ctx = r.runCtx
	}
	r.mu.Unlock()
	r.logger.Info("resyncing remote")
	r.startRemote(ctx)
}

// Ready reports whether the initial local replay (and bootstrap, if
// needed) has completed.
func (r *Replica) Ready() bool { return r.ready.Load() }

// Online reports whether the most recent remote attempt succeeded.
func (r *Replica) Online() bool { return r.online.Load() }

// State returns the replica's current lifecycle state.
func (r *Replica) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Flush synchronously persists every in-memory event not yet in the
// local store. The CLI uses it to make one-shot commands durable
// without waiting for the mirror loop.
func (r *Replica) Flush(ctx context.Context) error {
	return r.localSweep(ctx)
}

// SyncOnce performs one full synchronous cycle: flush to the local
// store, push to the remote, pull everything new, flush again so
// pulled events are durable too. Requires a remote.
func (r *Replica) SyncOnce(ctx context.Context) error {
	if err := r.localSweep(ctx); err != nil {
		return err
	}
	if r.remote == nil {
		return nil
	}
	if err := r.pushSweep(ctx); err != nil {
		r.setOnline(false)
		return err
	}
	if err := r.pullSweep(ctx); err != nil {
		r.setOnline(false)
		return err
	}
	r.setOnline(true)
	return r.localSweep(ctx)
}

func (r *Replica) startRemote(ctx context.Context) {
	r.mu.Lock()
	if r.remoteCancel != nil {
		r.remoteCancel()
	}
	remoteCtx, cancel := context.WithCancel(ctx)
	r.remoteCancel = cancel
	r.mu.Unlock()

	r.wg.Add(2)
	go r.pushLoop(remoteCtx)
	go r.pullLoop(remoteCtx)
}

// localMirror keeps the local store caught up with the in-memory log.
// The subscription is a wake signal only; the sweep reads from the
// log snapshot, so dropped notifications cost latency, not events.
func (r *Replica) localMirror(ctx context.Context) {
	defer r.wg.Done()
	sub := r.log.Subscribe()
	defer r.log.Unsubscribe(sub)

	retry := r.Retry
	for {
		if err := r.localSweep(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.Warn("local mirror failed", zap.Error(err))
			if !sleep(ctx, retry.Next()) {
				return
			}
			continue
		}
		retry.Reset()
		select {
		case <-ctx.Done():
			return
		case <-sub:
		case <-time.After(r.PollInterval):
		}
	}
}

func (r *Replica) localSweep(ctx context.Context) error {
	for _, e := range r.log.Events() {
		r.mu.Lock()
		done := r.persisted[e.ID]
		r.mu.Unlock()
		if done {
			continue
		}
		err := r.local.Put(ctx, e)
		if err != nil && !errors.Is(err, eventlog.ErrConflict) {
			return err
		}
		r.mu.Lock()
		r.persisted[e.ID] = true
		r.mu.Unlock()
	}
	return nil
}

// pushLoop uploads events the remote has not seen. A conflict means a
// concurrent writer got there first, which is success.
func (r *Replica) pushLoop(ctx context.Context) {
	defer r.wg.Done()
	sub := r.log.Subscribe()
	defer r.log.Unsubscribe(sub)

	retry := r.Retry
	for {
		if err := r.pushSweep(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			r.setOnline(false)
			r.logger.Warn("push failed", zap.Error(err))
			if !sleep(ctx, retry.Next()) {
				return
			}
			continue
		}
		r.setOnline(true)
		retry.Reset()
		select {
		case <-ctx.Done():
			return
		case <-sub:
		case <-time.After(r.PollInterval):
		}
	}
}

func (r *Replica) pushSweep(ctx context.Context) error {
	for _, e := range r.log.Events() {
		r.mu.Lock()
		done := r.pushed[e.ID]
		r.mu.Unlock()
		if done {
			continue
		}
		err := r.remote.Put(ctx, e)
		if err != nil && !errors.Is(err, eventlog.ErrConflict) {
			return err
		}
		r.mu.Lock()
		r.pushed[e.ID] = true
		r.mu.Unlock()
	}
	return nil
}

// pullLoop sweeps remote events into the in-memory log, where the
// local mirror picks them up like any other append.
func (r *Replica) pullLoop(ctx context.Context) {
	defer r.wg.Done()

	retry := r.Retry
	for {
		err := r.pullSweep(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.setOnline(false)
			r.logger.Warn("pull failed", zap.Error(err))
			if !sleep(ctx, retry.Next()) {
				return
			}
			continue
		}
		r.setOnline(true)
		retry.Reset()
		if !sleep(ctx, r.PollInterval) {
			return
		}
	}
}

const pullPageSize = 500

// pullSweep pages the entire remote range into the in-memory log.
// Event IDs are wall-clock ordered while the remote grows in push
// order, so a peer uploading events created offline writes IDs below
// any point a cursor would have advanced past; only a full-range
// sweep keeps the merge a true union. Add dedupes everything already
// present.
func (r *Replica) pullSweep(ctx context.Context) error {
	cursor := ""
	for {
		events, err := r.remote.Since(ctx, cursor, pullPageSize)
		if err != nil {
			return err
		}
		for i := range events {
			e := events[i]
			r.log.Add(&e)
			r.mu.Lock()
			// Came from the remote, so no need to push it back.
			r.pushed[e.ID] = true
			r.mu.Unlock()
		}
		if len(events) < pullPageSize {
			return nil
		}
		cursor = events[len(events)-1].ID
	}
}

func (r *Replica) setOnline(online bool) {
	if online {
		r.setState(StateRemoteConnected)
	} else {
		r.setState(StateRemoteDisconnected)
	}
	was := r.online.Swap(online)
	if was == online {
		return
	}
	if online {
		r.logger.Info("remote connected")
	} else {
		r.logger.Warn("remote disconnected")
	}
}

func (r *Replica) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// sleep waits for d or until ctx is done; it reports false on
// cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
