package mockstream

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/tweetkit/observability"
	"github.com/kbukum/tweetkit/version"
)

// CheckHealth implements observability.HealthChecker. An empty recording
// reports degraded.
func (s *Server) CheckHealth(_ context.Context) observability.Health {
	h := observability.Health{
		Name:   "replay",
		Status: observability.HealthStatusUp,
		Details: map[string]string{
			"records":        strconv.Itoa(s.recording.Len()),
			"active_streams": strconv.FormatInt(s.active.Load(), 10),
			"streams_served": strconv.FormatInt(s.served.Load(), 10),
		},
	}
	if s.recording.Len() == 0 {
		h.Status = observability.HealthStatusDegraded
		h.Message = "recording is empty"
	}
	return h
}

func (s *Server) health(c *gin.Context) {
	sh := observability.CheckAll(c.Request.Context(), "mockstream", version.Version, s)
	status := http.StatusOK
	if !sh.Healthy() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, sh)
}
