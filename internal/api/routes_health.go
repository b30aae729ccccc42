package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teracodec-project/teracodec/internal/util"
)

// handleHealth runs every registered health check synchronously and
// reports pass/fail per check plus an overall status, alongside the
// host's CPU/memory/host info and the registry's current size and
// uptime, so a monitoring tool can correlate codec health with the
// resources it's running on without also polling the CLI.
func (s *Server) handleHealth(c *gin.Context) {
	results := s.health.RunNow(c.Request.Context())

	healthy := true
	for _, r := range results {
		if !r.OK {
			healthy = false
			break
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	sysInfo := util.GetSystemInfo()
	cpuPct, err := util.GetCPUUsage()
	if err != nil {
		log.Warn().Err(err).Msg("failed to read CPU usage for /api/health")
	}
	memUsage, err := util.GetMemoryUsage()
	if err != nil {
		log.Warn().Err(err).Msg("failed to read memory usage for /api/health")
	}

	c.JSON(status, gin.H{
		"healthy":       healthy,
		"checks":        results,
		"uptime":        util.Uptime().String(),
		"registry_size": len(s.codec.Registry().Schemas()),
		"system": gin.H{
			"hostname":  sysInfo.Hostname,
			"os":        sysInfo.OS,
			"cpu_model": sysInfo.CPUModel,
			"cpu_cores": sysInfo.CPUCores,
			"cpu_usage": cpuPct,
			"memory":    memUsage,
		},
	})
}
