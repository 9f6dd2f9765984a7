package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// Component states, worst last.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

var statusRank = map[string]int{statusHealthy: 0, statusDegraded: 1, statusUnhealthy: 2}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Reports whether the catalog store, blob store and event stream are usable",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" enum:"healthy,degraded,unhealthy" doc:"Component status"`
	Latency string `json:"latency,omitempty" doc:"Time the check took"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" enum:"healthy,degraded,unhealthy" doc:"Worst component status"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

// componentCheck checks one component. A nil check means the component was never wired.
// A non-nil error is unhealthy; the returned string becomes the message.
type componentCheck func(ctx context.Context) (string, error)

func (s *Server) checks() map[string]componentCheck {
	p := map[string]componentCheck{"catalog": nil, "blobs": nil, "sse": nil}

	if s.stores != nil && s.stores.Catalog != nil {
		p["catalog"] = func(ctx context.Context) (string, error) {
			return "", s.stores.Catalog.Ping(ctx)
		}
	}
	if s.stores != nil && s.stores.Blobs != nil {
		p["blobs"] = func(ctx context.Context) (string, error) {
			v, err := s.stores.Blobs.Version(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("schema version %d", v), nil
		}
	}
	if s.sseManager != nil {
		p["sse"] = func(context.Context) (string, error) {
			n := s.sseManager.ClientCount()
			if n == 1 {
				return "1 connected client", nil
			}
			return fmt.Sprintf("%d connected clients", n), nil
		}
	}
	return p
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	resp := HealthResponse{Status: statusHealthy, Components: make(map[string]ComponentHealth)}

	for name, check := range s.checks() {
		c := runCheck(ctx, check)
		if c.Status == statusUnhealthy {
			s.logger.Warn("health check failed", "component", name, "message", c.Message)
		}
		resp.Components[name] = c
		if statusRank[c.Status] > statusRank[resp.Status] {
			resp.Status = c.Status
		}
	}

	return &HealthOutput{Body: resp}, nil
}

func runCheck(ctx context.Context, check componentCheck) ComponentHealth {
	if check == nil {
		return ComponentHealth{Status: statusDegraded, Message: "not configured"}
	}
	start := time.Now()
	msg, err := check(ctx)
	latency := time.Since(start).String()
	if err != nil {
		return ComponentHealth{Status: statusUnhealthy, Latency: latency, Message: err.Error()}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency, Message: msg}
}
