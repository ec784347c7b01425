package server

import (
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/suryap3105/EchoGenesis/internal/version"
)

// handleHealth handles GET /health: service identity, system load and
// database statistics in one payload for dashboards. ?deep=true swaps the
// ping for a full integrity check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := s.systemStats()

	response := map[string]interface{}{
		"status":         "healthy",
		"service":        "echogenesis",
		"version":        version.Version,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"organisms":      len(s.organisms.List()),
		"cpu_percent":    cpuPct,
		"memory_percent": memPct,
	}

	if stats, err := s.db.GetStats(); err == nil {
		response["database"] = map[string]interface{}{
			"size_bytes":     stats.SizeBytes,
			"wal_size_bytes": stats.WALSizeBytes,
			"page_count":     stats.PageCount,
			"page_size":      stats.PageSize,
		}
	} else {
		s.log.Warn().Err(err).Msg("Failed to collect database stats")
	}

	check := s.db.QuickCheck
	if r.URL.Query().Get("deep") == "true" {
		check = s.db.HealthCheck
	}
	if err := check(r.Context()); err != nil {
		response["status"] = "degraded"
		response["database_error"] = err.Error()
		s.writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

// systemStats samples CPU and RAM usage. The 100ms CPU window keeps the
// health endpoint fast for tight poll loops.
func (s *Server) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}
