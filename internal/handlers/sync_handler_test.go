package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"census-backend/internal/database"
	"census-backend/internal/handlers"
	"census-backend/internal/repositories"
	"census-backend/internal/services"
	"census-backend/internal/store"
	"census-backend/migrations"
)

func newSyncHandlerFixture(t *testing.T, online bool) (*handlers.SyncHandler, *services.ConnectivityMonitor) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.NewMigrator(s.DB(), migrations.FS).RunMigrations(context.Background()))
	t.Cleanup(func() { s.Close() })

	repo := repositories.NewHouseholdRepository(s)
	monitor := services.NewConnectivityMonitor(nil, 0)
	monitor.Report(online)

	syncSvc := services.NewSyncService(repo, s, nopPusher{}, monitor.IsOnline,
		services.SyncSettings{PushTimeout: time.Second}, nil)
	return handlers.NewSyncHandler(syncSvc), monitor
}

func TestSyncStatusEndpoint(t *testing.T) {
	handler, _ := newSyncHandlerFixture(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/sync/status", nil)
	rec := httptest.NewRecorder()
	handler.Status(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var status services.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, services.StateSynced, status.State)
	assert.True(t, status.Online)
}

func TestDrainEndpointWhileOffline(t *testing.T) {
	handler, _ := newSyncHandlerFixture(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/sync/drain", nil)
	rec := httptest.NewRecorder()
	handler.Drain(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDrainEndpointWhileOnline(t *testing.T) {
	handler, _ := newSyncHandlerFixture(t, true)

	req := httptest.NewRequest(http.MethodPost, "/api/sync/drain", nil)
	rec := httptest.NewRecorder()
	handler.Drain(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool            `json:"success"`
		Status  services.Status `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, services.StateSynced, resp.Status.State)
}

func TestConnectivityReportEndpoint(t *testing.T) {
	_, monitor := newSyncHandlerFixture(t, false)
	handler := handlers.NewConnectivityHandler(monitor)

	body := bytes.NewReader([]byte(`{"online": true}`))
	req := httptest.NewRequest(http.MethodPost, "/api/connectivity", body)
	rec := httptest.NewRecorder()
	handler.Report(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, monitor.IsOnline())
}
