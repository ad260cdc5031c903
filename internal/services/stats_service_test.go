package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"census-backend/internal/services"
)

func TestComputeStatsCountsFamiliesAndPersons(t *testing.T) {
	f := newSyncFixture(t, &fakePusher{})
	stats := services.NewStatsService(f.repo, nil)

	got, err := stats.ComputeStats()
	require.NoError(t, err)
	assert.Equal(t, 0, got.FamilyCount)
	assert.Equal(t, 0, got.PersonCount)

	f.commit(t, "JOHN DOE", "JANE DOE")

	got, err = stats.ComputeStats()
	require.NoError(t, err)
	assert.Equal(t, 1, got.FamilyCount)
	assert.Equal(t, 2, got.PersonCount)

	f.commit(t, "ALICE ROE")

	got, err = stats.ComputeStats()
	require.NoError(t, err)
	assert.Equal(t, 2, got.FamilyCount)
	assert.Equal(t, 3, got.PersonCount)
}

func TestComputeStatsIsAlwaysFresh(t *testing.T) {
	f := newSyncFixture(t, &fakePusher{})
	stats := services.NewStatsService(f.repo, nil)

	f.commit(t, "JOHN DOE")
	got, err := stats.ComputeStats()
	require.NoError(t, err)
	require.Equal(t, 1, got.FamilyCount)

	// A drain changes synced flags but never the counts
	require.NoError(t, f.sync.Drain(context.Background()))
	got, err = stats.ComputeStats()
	require.NoError(t, err)
	assert.Equal(t, 1, got.FamilyCount)
	assert.Equal(t, 1, got.PersonCount)
}
