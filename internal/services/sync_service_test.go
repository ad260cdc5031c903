package services_test

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"census-backend/internal/database"
	"census-backend/internal/faults"
	"census-backend/internal/models"
	"census-backend/internal/repositories"
	"census-backend/internal/services"
	"census-backend/internal/store"
	"census-backend/migrations"
)

type fakePusher struct {
	mu        sync.Mutex
	endpoints []string
	batches   []models.SyncBatch
	err       error
	entered   chan struct{}
	release   chan struct{}
}

func (p *fakePusher) Push(ctx context.Context, endpoint string, batch models.SyncBatch) error {
	if p.entered != nil {
		p.entered <- struct{}{}
	}
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endpoints = append(p.endpoints, endpoint)
	p.batches = append(p.batches, batch)
	return p.err
}

func (p *fakePusher) pushCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

type syncFixture struct {
	repo   *repositories.HouseholdRepository
	store  *store.SQLiteStore
	pusher *fakePusher
	online *atomic.Bool
	sync   *services.SyncService
}

func newSyncFixture(t *testing.T, pusher *fakePusher) *syncFixture {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.NewMigrator(s.DB(), migrations.FS).RunMigrations(context.Background()))
	t.Cleanup(func() { s.Close() })

	repo := repositories.NewHouseholdRepository(s)
	online := &atomic.Bool{}
	online.Store(true)

	svc := services.NewSyncService(repo, s, pusher, online.Load,
		services.SyncSettings{EndpointURL: "http://collector.example/api/batch", PushTimeout: 5 * time.Second},
		nil)

	return &syncFixture{repo: repo, store: s, pusher: pusher, online: online, sync: svc}
}

func (f *syncFixture) commit(t *testing.T, names ...string) *models.Household {
	t.Helper()
	draft := f.repo.NewDraft()
	for _, name := range names {
		_, err := f.repo.AddMember(draft, repositories.MemberInput{Name: name, DoorNo: "12"})
		require.NoError(t, err)
	}
	h, err := f.repo.Commit(draft, "AGENT 7")
	require.NoError(t, err)
	return h
}

func (f *syncFixture) unsyncedCount(t *testing.T) int {
	t.Helper()
	unsynced, err := f.repo.ListUnsynced()
	require.NoError(t, err)
	return len(unsynced)
}

func TestDrainOfflineFailsFastWithoutStateChange(t *testing.T) {
	f := newSyncFixture(t, &fakePusher{})
	f.commit(t, "JOHN DOE")
	f.online.Store(false)

	err := f.sync.Drain(context.Background())
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.Sync))

	assert.Equal(t, services.StateSynced, f.sync.State())
	assert.Equal(t, 0, f.pusher.pushCount())
	assert.Equal(t, 1, f.unsyncedCount(t))
}

func TestDrainWithNothingQueuedIssuesNoPush(t *testing.T) {
	f := newSyncFixture(t, &fakePusher{})

	require.NoError(t, f.sync.Drain(context.Background()))

	assert.Equal(t, services.StateSynced, f.sync.State())
	assert.Equal(t, 0, f.pusher.pushCount())
}

func TestDrainPushesBatchAndMarksAllSynced(t *testing.T) {
	f := newSyncFixture(t, &fakePusher{})
	f.commit(t, "JOHN DOE", "JANE DOE")
	f.commit(t, "ALICE ROE")
	require.NoError(t, f.store.Put(models.PendingSyncKey, "true"))

	require.NoError(t, f.sync.Drain(context.Background()))

	assert.Equal(t, services.StateSynced, f.sync.State())
	require.Equal(t, 1, f.pusher.pushCount())
	assert.Len(t, f.pusher.batches[0].Rows, 3)
	assert.Equal(t, "http://collector.example/api/batch", f.pusher.endpoints[0])
	assert.Equal(t, 0, f.unsyncedCount(t))

	// Shared household fields are repeated on every row
	for _, row := range f.pusher.batches[0].Rows {
		assert.NotEmpty(t, row.FamilyID)
		assert.Equal(t, "AGENT 7", row.Enumerator)
	}

	// Pending marker cleared after a clean drain
	_, found, err := f.store.Get(models.PendingSyncKey)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDrainPushFailureLeavesFlagsUntouched(t *testing.T) {
	f := newSyncFixture(t, &fakePusher{err: assert.AnError})
	f.commit(t, "JOHN DOE")

	err := f.sync.Drain(context.Background())
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.Sync))

	assert.Equal(t, services.StatePending, f.sync.State())
	assert.Equal(t, 1, f.unsyncedCount(t))
	assert.NotEmpty(t, f.sync.Status().LastError)
}

func TestDrainLocalStoreFailureEntersErrorState(t *testing.T) {
	f := newSyncFixture(t, &fakePusher{})
	f.commit(t, "JOHN DOE")
	require.NoError(t, f.store.Close())

	err := f.sync.Drain(context.Background())
	require.Error(t, err)
	assert.Equal(t, services.StateError, f.sync.State())
}

func TestDrainIsSingleFlightWithRedrain(t *testing.T) {
	pusher := &fakePusher{
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	f := newSyncFixture(t, pusher)
	f.commit(t, "JOHN DOE")

	done := make(chan error, 1)
	go func() { done <- f.sync.Drain(context.Background()) }()
	<-pusher.entered // first push in flight

	// A commit mid-flight requests a redrain instead of overlapping
	f.commit(t, "JANE DOE")
	require.NoError(t, f.sync.Drain(context.Background()))
	assert.Equal(t, 0, pusher.pushCount())

	close(pusher.release)
	<-pusher.entered // redrain pushes the household committed mid-flight
	require.NoError(t, <-done)

	assert.Equal(t, 2, pusher.pushCount())
	assert.Len(t, pusher.batches[0].Rows, 1)
	assert.Len(t, pusher.batches[1].Rows, 1)
	assert.Equal(t, 0, f.unsyncedCount(t))
	assert.Equal(t, services.StateSynced, f.sync.State())
}

func TestNotifyCommittedQueuesWorkWhileOffline(t *testing.T) {
	f := newSyncFixture(t, &fakePusher{})
	f.online.Store(false)
	f.commit(t, "JOHN DOE")

	f.sync.NotifyCommitted()

	assert.Equal(t, services.StatePending, f.sync.State())
	assert.Equal(t, 0, f.pusher.pushCount())

	value, found, err := f.store.Get(models.PendingSyncKey)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "true", value)
}

func TestReconfigureAppliesToNextPush(t *testing.T) {
	f := newSyncFixture(t, &fakePusher{})
	f.commit(t, "JOHN DOE")

	settings := f.sync.Settings()
	settings.EndpointURL = "http://collector.example/v2/batch"
	settings.Enumerator = "AGENT 9"
	f.sync.Reconfigure(settings)

	require.NoError(t, f.sync.Drain(context.Background()))
	require.Equal(t, 1, f.pusher.pushCount())
	assert.Equal(t, "http://collector.example/v2/batch", f.pusher.endpoints[0])
}

func TestStatusListenersFireOnTransitions(t *testing.T) {
	f := newSyncFixture(t, &fakePusher{})

	var mu sync.Mutex
	var states []services.SyncState
	f.sync.OnStatusChange(func(s services.Status) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	f.commit(t, "JOHN DOE")
	f.online.Store(false)
	f.sync.NotifyCommitted() // offline: no background drain races the assert
	f.online.Store(true)
	require.NoError(t, f.sync.Drain(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []services.SyncState{
		services.StatePending, services.StateSyncing, services.StateSynced,
	}, states)
}
