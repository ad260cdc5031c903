package health

import (
	"path/filepath"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"census-backend/internal/store"
)

// HealthChecker reports whether the device can keep enumerating: the
// record store must answer and the disk holding it must have headroom.
type HealthChecker struct {
	store  store.Store
	dbPath string
}

type HealthStatus struct {
	Status     string      `json:"status"`
	Store      StoreHealth `json:"store"`
	Disk       DiskStats   `json:"disk"`
	Memory     MemoryStats `json:"memory"`
	Goroutines int         `json:"goroutines"`
}

type StoreHealth struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
}

type DiskStats struct {
	Path        string  `json:"path"`
	UsedPercent float64 `json:"used_percent"`
	FreeMB      float64 `json:"free_mb"`
}

type MemoryStats struct {
	AllocMB     float64 `json:"alloc_mb"`
	SysMB       float64 `json:"sys_mb"`
	SystemUsedP float64 `json:"system_used_percent"`
	NumGC       uint32  `json:"num_gc"`
}

func NewHealthChecker(s store.Store, dbPath string) *HealthChecker {
	return &HealthChecker{store: s, dbPath: dbPath}
}

func (h *HealthChecker) CheckBasic() HealthStatus {
	storeHealth := h.checkStore()

	status := "healthy"
	if storeHealth.Status != "healthy" {
		status = "unhealthy"
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	memory := MemoryStats{
		AllocMB: float64(memStats.Alloc) / 1024 / 1024,
		SysMB:   float64(memStats.Sys) / 1024 / 1024,
		NumGC:   memStats.NumGC,
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		memory.SystemUsedP = vm.UsedPercent
	}

	diskStats := DiskStats{Path: filepath.Dir(h.dbPath)}
	if du, err := disk.Usage(diskStats.Path); err == nil {
		diskStats.UsedPercent = du.UsedPercent
		diskStats.FreeMB = float64(du.Free) / 1024 / 1024
		// A nearly full disk will start failing durable writes
		if du.UsedPercent > 95 {
			status = "degraded"
		}
	}

	return HealthStatus{
		Status:     status,
		Store:      storeHealth,
		Disk:       diskStats,
		Memory:     memory,
		Goroutines: runtime.NumGoroutine(),
	}
}

func (h *HealthChecker) checkStore() StoreHealth {
	start := time.Now()
	err := h.store.Ping()
	responseTime := time.Since(start).Milliseconds()

	if err != nil {
		return StoreHealth{Status: "unhealthy", ResponseTime: responseTime}
	}
	return StoreHealth{Status: "healthy", ResponseTime: responseTime}
}
