package services

import (
	"census-backend/internal/models"
	"census-backend/internal/monitoring"
	"census-backend/internal/repositories"
)

// StatsService derives the dashboard counters from the repository.
// Always a full recompute: enumeration volume is small and freshness
// beats caching here.
type StatsService struct {
	repo    *repositories.HouseholdRepository
	metrics *monitoring.Metrics
}

func NewStatsService(repo *repositories.HouseholdRepository, metrics *monitoring.Metrics) *StatsService {
	return &StatsService{repo: repo, metrics: metrics}
}

// ComputeStats counts families and persons across the whole store.
func (s *StatsService) ComputeStats() (models.EnumerationStats, error) {
	households, err := s.repo.ListAll()
	if err != nil {
		return models.EnumerationStats{}, err
	}

	stats := models.EnumerationStats{FamilyCount: len(households)}
	unsynced := 0
	for _, h := range households {
		stats.PersonCount += len(h.Members)
		if !h.Synced {
			unsynced++
		}
	}

	if s.metrics != nil {
		s.metrics.Families.Set(float64(stats.FamilyCount))
		s.metrics.Persons.Set(float64(stats.PersonCount))
		s.metrics.Unsynced.Set(float64(unsynced))
	}
	return stats, nil
}
