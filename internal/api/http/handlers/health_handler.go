package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/deskflow/helpdesk/pkg/util/errorutil"
)

const readinessTimeout = 2 * time.Second

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe names a readiness dependency.
type Probe struct {
	Name   string
	Pinger Pinger
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	probes      []Probe
}

// NewHealthHandler returns a handler that checks probes in order on /health/ready.
func NewHealthHandler(serviceName, version string, probes ...Probe) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, probes: probes}
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready pings every probe. Any failure makes the instance unready.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	deps := make(map[string]any, len(h.probes))
	ready := true
	for _, p := range h.probes {
		if err := p.Pinger.Ping(ctx); err != nil {
			deps[p.Name] = err.Error()
			ready = false
			continue
		}
		deps[p.Name] = "ok"
	}
	if !ready {
		return apperrors.NewDomainError("DEPENDENCY_UNAVAILABLE", "one or more dependencies unavailable", http.StatusServiceUnavailable, deps)
	}
	return c.JSON(fiber.Map{"status": "ready", "dependencies": deps})
}
