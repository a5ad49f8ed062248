package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/mockview-backend/internal/response"
)

const healthTimeout = 2 * time.Second

// Dependency is a backing service the health check probes.
type Dependency struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandler reports process uptime and dependency reachability.
type HealthHandler struct {
	deps      []Dependency
	startTime time.Time
	log       zerolog.Logger
}

func NewHealthHandler(log zerolog.Logger, deps ...Dependency) *HealthHandler {
	return &HealthHandler{
		deps:      deps,
		startTime: time.Now(),
		log:       log.With().Str("component", "health_handler").Logger(),
	}
}

// Health godoc
// GET /health
// 200 when every dependency answers, 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.deps))
	status := http.StatusOK
	for _, d := range h.deps {
		if err := d.Ping(ctx); err != nil {
			h.log.Warn().Err(err).Str("dependency", d.Name).Msg("Health check failed")
			checks[d.Name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[d.Name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	response.Success(c, status, gin.H{
		"status": state,
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
		"checks": checks,
	})
}
