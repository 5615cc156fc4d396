// Package management provides a lightweight HTTP API for runtime inspection
// and rule reloading on a running gateway instance, adapted from the
// original proxy's management.go: a bearer-token-guarded mux in front of a
// handful of JSON endpoints. The domain-allowlist endpoints that package
// served (/domains/add, /domains/remove) have no gateway equivalent; in
// their place this version exposes the one piece of runtime-mutable state
// the gateway actually has — the rule set — via /rules/reload.
//
// Endpoints:
//
//	GET  /status        - uptime and build-level configuration summary
//	GET  /metrics        - JSON metrics snapshot (metrics.Snapshot)
//	GET  /metrics/prom   - Prometheus text exposition
//	POST /rules/reload   - re-run the rule seed file (idempotent)
package management

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gateway/internal/config"
	"gateway/internal/metrics"
)

// Reloader is the narrow surface Server needs from rules.Seeder: reload the
// global rule seed file and report how many rules were (re-)upserted.
type Reloader interface {
	SeedGlobal(ctx context.Context, path string) (int, error)
}

// Server is the management API server.
type Server struct {
	cfg       *config.Config
	startTime time.Time
	token     string // bearer token for auth; empty = no auth
	metrics   *metrics.Metrics
	reloader  Reloader
}

// New creates a management server. metricsCollector and reloader may be nil.
func New(cfg *config.Config, metricsCollector *metrics.Metrics, reloader Reloader) *Server {
	s := &Server{
		cfg:       cfg,
		startTime: time.Now(),
		token:     cfg.ManagementToken,
		metrics:   metricsCollector,
		reloader:  reloader,
	}
	if s.token != "" {
		log.Printf("[MANAGEMENT] Bearer token authentication enabled")
	}
	return s
}

// Handler returns the HTTP handler for the management API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/metrics", s.handleMetrics)
	if s.metrics != nil {
		mux.Handle("/metrics/prom", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/rules/reload", s.handleRulesReload)
	return s.authMiddleware(mux)
}

// authMiddleware checks for a valid Bearer token if one is configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		auth := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) ||
			subtle.ConstantTimeCompare([]byte(strings.TrimSpace(auth[len(prefix):])), []byte(s.token)) != 1 {
			log.Printf("[MANAGEMENT] Unauthorized access attempt from %s to %s", r.RemoteAddr, r.URL.Path)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	type response struct {
		Status         string `json:"status"`
		Uptime         string `json:"uptime"`
		ManagementPort int    `json:"managementPort"`
		NER            struct {
			Endpoint string `json:"endpoint"`
			Model    string `json:"model"`
			Enabled  bool   `json:"enabled"`
		} `json:"ner"`
		RulesSeedPath string `json:"rulesSeedPath"`
	}

	resp := response{
		Status:         "running",
		Uptime:         time.Since(s.startTime).Round(time.Second).String(),
		ManagementPort: s.cfg.ManagementPort,
		RulesSeedPath:  s.cfg.RulesSeedPath,
	}
	resp.NER.Endpoint = s.cfg.NEREndpoint
	resp.NER.Model = s.cfg.NERModel
	resp.NER.Enabled = s.cfg.NEREnabled

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		http.Error(w, "metrics not enabled", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleRulesReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	if s.reloader == nil {
		http.Error(w, "rule reload not enabled", http.StatusServiceUnavailable)
		return
	}
	n, err := s.reloader.SeedGlobal(r.Context(), s.cfg.RulesSeedPath)
	if err != nil {
		log.Printf("[MANAGEMENT] rule reload failed: %v", err)
		http.Error(w, fmt.Sprintf("reload failed: %v", err), http.StatusInternalServerError)
		return
	}
	log.Printf("[MANAGEMENT] reloaded %d rules from %s", n, s.cfg.RulesSeedPath)
	writeJSON(w, http.StatusOK, map[string]int{"rulesLoaded": n})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[MANAGEMENT] JSON encode error: %v", err)
	}
}

// ListenAndServe starts the management HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.cfg.ManagementPort)
	log.Printf("[MANAGEMENT] Listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
