// Package httpapi exposes a read-only ops surface over the framework:
// health and counter snapshots for the publisher, the async queue, and the
// process-wide metrics.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"

	pubsub "event_framework"
	"event_framework/config"
	"event_framework/metrics"
	"event_framework/queue"
)

// Router builds HTTP handlers for /ops.
type Router struct {
	cfg config.Config
	pub *pubsub.Publisher
	q   *queue.Queue
}

func NewRouter(cfg config.Config, pub *pubsub.Publisher, q *queue.Queue) *Router {
	return &Router{cfg: cfg, pub: pub, q: q}
}

func (r *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/ops/health", r.health)
	mux.HandleFunc("/ops/stats", r.stats)
}

func (r *Router) health(w http.ResponseWriter, req *http.Request) {
	respondJSON(w, map[string]any{
		"ok":            true,
		"queue_started": r.q != nil && r.q.Healthy(),
	})
}

func (r *Router) stats(w http.ResponseWriter, req *http.Request) {
	body := map[string]any{
		"publisher": r.pub.Stats(),
		"metrics":   metrics.Snapshot(),
		"workers":   r.cfg.WorkerCount,
	}
	if r.q != nil {
		body["queue"] = r.q.Stats()
	}
	respondJSON(w, body)
}

func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("respond json: %v", err)
	}
}
