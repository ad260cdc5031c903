package services_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"census-backend/internal/faults"
	"census-backend/internal/models"
	"census-backend/internal/services"
)

func testBatch() models.SyncBatch {
	return models.SyncBatch{Rows: []models.SyncRow{
		{FamilyID: "family:1", MemberName: "JOHN DOE", FamilyHead: "JOHN DOE"},
	}}
}

func TestPushDeliversJSONBatch(t *testing.T) {
	var received models.SyncBatch
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := services.NewHTTPPusher(5 * time.Second)
	require.NoError(t, p.Push(context.Background(), srv.URL, testBatch()))

	require.Len(t, received.Rows, 1)
	assert.Equal(t, "JOHN DOE", received.Rows[0].MemberName)
}

func TestPushRequiresAcknowledgment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := services.NewHTTPPusher(5 * time.Second)
	err := p.Push(context.Background(), srv.URL, testBatch())
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.Sync))
}

func TestPushFailsOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	p := services.NewHTTPPusher(time.Second)
	err := p.Push(context.Background(), srv.URL, testBatch())
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.Sync))
}

func TestPushWithoutEndpointConfigured(t *testing.T) {
	p := services.NewHTTPPusher(time.Second)
	err := p.Push(context.Background(), "", testBatch())
	require.Error(t, err)
	assert.True(t, faults.IsKind(err, faults.Sync))
}
