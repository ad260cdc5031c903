package services

import (
	"context"
	"log"
	"sync"
	"time"

	"census-backend/internal/faults"
	"census-backend/internal/models"
	"census-backend/internal/monitoring"
	"census-backend/internal/repositories"
	"census-backend/internal/store"
)

// SyncState is the engine's externally visible state.
type SyncState string

const (
	StateSynced  SyncState = "synced"  // nothing left to deliver
	StateSyncing SyncState = "syncing" // a push is in flight
	StatePending SyncState = "pending" // unsynced work queued, waiting for a drain
	StateError   SyncState = "error"   // the last drain failed locally
)

// SyncStates lists every state, for metrics labelling.
var SyncStates = []string{
	string(StateSynced), string(StateSyncing), string(StatePending), string(StateError),
}

// Pusher delivers one flattened batch to the collection endpoint. An
// error means the batch must be treated as undelivered.
type Pusher interface {
	Push(ctx context.Context, endpoint string, batch models.SyncBatch) error
}

// SyncSettings are supplied at construction and swapped atomically via
// Reconfigure, never read from ambient state.
type SyncSettings struct {
	EndpointURL string
	Enumerator  string
	PushTimeout time.Duration
}

// Status is a snapshot of the engine for the UI and the status feed.
type Status struct {
	State       SyncState `json:"state"`
	Online      bool      `json:"online"`
	LastError   string    `json:"last_error,omitempty"`
	LastDrained string    `json:"last_drained,omitempty"`
}

// SyncService drains unsynced households to the remote collection
// endpoint and marks them synced once the push is acknowledged.
//
// Drain is single-flight: overlapping invocations collapse into a
// redrain flag so two batches can never read overlapping unsynced sets.
type SyncService struct {
	repo    *repositories.HouseholdRepository
	store   store.Store
	pusher  Pusher
	online  func() bool
	metrics *monitoring.Metrics

	mu          sync.Mutex
	settings    SyncSettings
	state       SyncState
	lastError   string
	lastDrained string
	draining    bool
	redrain     bool
	listeners   []func(Status)
}

func NewSyncService(
	repo *repositories.HouseholdRepository,
	s store.Store,
	pusher Pusher,
	online func() bool,
	settings SyncSettings,
	metrics *monitoring.Metrics,
) *SyncService {
	svc := &SyncService{
		repo:     repo,
		store:    s,
		pusher:   pusher,
		online:   online,
		settings: settings,
		metrics:  metrics,
		state:    StateSynced,
	}
	if svc.metrics != nil {
		svc.metrics.SetSyncState(string(StateSynced), SyncStates)
	}
	return svc
}

// Reconfigure swaps the endpoint and enumerator settings. The next push
// uses the new values.
func (s *SyncService) Reconfigure(settings SyncSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	log.Printf("[Sync] Reconfigured: endpoint=%s enumerator=%q", settings.EndpointURL, settings.Enumerator)
}

// Settings returns the current sync settings.
func (s *SyncService) Settings() SyncSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Status returns a snapshot of the engine.
func (s *SyncService) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:       s.state,
		Online:      s.online(),
		LastError:   s.lastError,
		LastDrained: s.lastDrained,
	}
}

// State returns the current engine state.
func (s *SyncService) State() SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnStatusChange registers a listener fired after every state
// transition. Register before the engine starts draining.
func (s *SyncService) OnStatusChange(fn func(Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// NotifyCommitted records that a fresh household was saved: the pending
// marker is set for the UI and, while online, a drain is kicked off in
// the background.
func (s *SyncService) NotifyCommitted() {
	if err := s.store.Put(models.PendingSyncKey, "true"); err != nil {
		log.Printf("[Sync] Failed to set pending marker: %v", err)
	}
	s.setState(StatePending, "")

	if s.online() {
		go func() {
			if err := s.Drain(context.Background()); err != nil {
				log.Printf("[Sync] Post-commit drain: %v", err)
			}
		}()
	}
}

// Drain pushes all unsynced households in one batch and marks them
// synced on acknowledgment. Offline invocations fail fast with no state
// change. At most one drain runs at a time; a request arriving mid-
// flight sets the redrain flag and is absorbed by the running drain.
func (s *SyncService) Drain(ctx context.Context) error {
	if !s.online() {
		return faults.SyncErr("device is offline, drain skipped", nil)
	}

	s.mu.Lock()
	if s.draining {
		s.redrain = true
		s.mu.Unlock()
		return nil
	}
	s.draining = true
	s.mu.Unlock()

	err := s.drainOnce(ctx)

	for {
		s.mu.Lock()
		if s.redrain {
			s.redrain = false
			s.mu.Unlock()
			if !s.online() {
				continue // drop the request, reconnect will retrigger
			}
			err = s.drainOnce(ctx)
			continue
		}
		s.draining = false
		s.mu.Unlock()
		return err
	}
}

func (s *SyncService) drainOnce(ctx context.Context) error {
	unsynced, err := s.repo.ListUnsynced()
	if err != nil {
		s.setState(StateError, err.Error())
		return err
	}

	if len(unsynced) == 0 {
		s.clearPendingMarker()
		s.setState(StateSynced, "")
		return nil
	}

	s.setState(StateSyncing, "")

	var batch models.SyncBatch
	for i := range unsynced {
		batch.Rows = append(batch.Rows, unsynced[i].Rows()...)
	}

	settings := s.Settings()
	pushCtx := ctx
	if settings.PushTimeout > 0 {
		var cancel context.CancelFunc
		pushCtx, cancel = context.WithTimeout(ctx, settings.PushTimeout)
		defer cancel()
	}

	if s.metrics != nil {
		s.metrics.PushBatches.Inc()
	}

	if err := s.pusher.Push(pushCtx, settings.EndpointURL, batch); err != nil {
		// No flags were touched: the whole batch stays queued for the
		// next connectivity or commit event.
		if s.metrics != nil {
			s.metrics.PushFailures.Inc()
		}
		s.setState(StatePending, err.Error())
		log.Printf("[Sync] Push of %d rows failed: %v", len(batch.Rows), err)
		return faults.SyncErr("push failed", err)
	}

	if s.metrics != nil {
		s.metrics.RowsPushed.Add(float64(len(batch.Rows)))
	}

	// Marks run sequentially; a failed mark leaves that household queued
	// for the next drain rather than aborting the rest.
	markFailures := 0
	for i := range unsynced {
		if err := s.repo.MarkSynced(unsynced[i].ID); err != nil {
			markFailures++
			log.Printf("[Sync] Failed to mark %s synced: %v", unsynced[i].ID, err)
		}
	}

	if markFailures > 0 {
		s.setState(StatePending, "some households could not be marked synced")
		return faults.StorageErr("drain left households unmarked", nil)
	}

	s.clearPendingMarker()
	s.setStateDrained(StateSynced)
	log.Printf("[Sync] Delivered %d households (%d rows)", len(unsynced), len(batch.Rows))
	return nil
}

func (s *SyncService) clearPendingMarker() {
	if err := s.store.Delete(models.PendingSyncKey); err != nil {
		log.Printf("[Sync] Failed to clear pending marker: %v", err)
	}
}

func (s *SyncService) setState(state SyncState, errMsg string) {
	s.mu.Lock()
	changed := s.state != state || s.lastError != errMsg
	s.state = state
	s.lastError = errMsg
	listeners := s.listeners
	status := Status{State: state, Online: s.online(), LastError: errMsg, LastDrained: s.lastDrained}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetSyncState(string(state), SyncStates)
	}
	if changed {
		for _, fn := range listeners {
			fn(status)
		}
	}
}

func (s *SyncService) setStateDrained(state SyncState) {
	s.mu.Lock()
	s.lastDrained = models.Timestamp(time.Now())
	s.mu.Unlock()
	s.setState(state, "")
}
