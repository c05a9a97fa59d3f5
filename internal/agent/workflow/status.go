package workflow

import (
	"context"
	"time"
)

// Health reports the liveness of the coordinator's collaborators.
type Health struct {
	ActiveSessions int    `json:"active_sessions"`
	SessionStore   string `json:"session_store"`
	GraphBackend   string `json:"graph_backend"`
}

// Healthy reports whether every collaborator answered.
func (h Health) Healthy() bool {
	return h.SessionStore == "ok" && h.GraphBackend == "ok"
}

// Status checks the session store and graph backend connectivity.
func (c *Coordinator) Status(ctx context.Context) Health {
	h := Health{SessionStore: "ok", GraphBackend: "ok"}

	active, err := c.store.Active(ctx)
	if err != nil {
		h.SessionStore = err.Error()
	}
	h.ActiveSessions = active

	if err := c.graph.Ping(ctx); err != nil {
		h.GraphBackend = err.Error()
	}
	return h
}

// ExpireIdleSessions sweeps sessions idle longer than the configured TTL.
func (c *Coordinator) ExpireIdleSessions(ctx context.Context) (int, error) {
	ttl, err := time.ParseDuration(c.cfg.SessionTTL)
	if err != nil {
		ttl = time.Hour
	}
	return c.store.ExpireIdle(ctx, ttl)
}
