// Package monitor provides the HTTP interface for observing a running scope:
// health, JSON state, and debugging charts of the live trail.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fieldscan/sonarscope/internal/monitoring"
	"github.com/fieldscan/sonarscope/internal/scope"
	"github.com/fieldscan/sonarscope/internal/sweepstats"
)

// WebServer serves the monitoring endpoints for one scope.
type WebServer struct {
	address string
	scope   *scope.Scope
	stats   *sweepstats.Collector
	server  *http.Server
	mux     *http.ServeMux
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	Scope   *scope.Scope
	Stats   *sweepstats.Collector
}

// NewWebServer creates a web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		scope:   config.Scope,
		stats:   config.Stats,
	}

	ws.mux = http.NewServeMux()
	ws.mux.HandleFunc("/health", ws.handleHealth)
	ws.mux.HandleFunc("/", ws.handleIndex)
	ws.mux.HandleFunc("/api/scope/state", ws.handleScopeState)
	ws.mux.HandleFunc("/api/sweeps/latest", ws.handleLatestSweep)
	ws.mux.HandleFunc("/debug/scope/polar", ws.handlePolarChart)
	ws.mux.HandleFunc("/debug/scope/plot.png", ws.handlePlotPNG)

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.mux,
	}

	return ws
}

// ServeMux exposes the underlying mux so callers can attach additional
// routes (the serial mux debug tail, for example) before Start.
func (ws *WebServer) ServeMux() *http.ServeMux {
	return ws.mux
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Start begins serving and blocks until ctx is cancelled, then shuts down.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		monitoring.Logf("starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}

	return nil
}

// Close shuts down the web server immediately.
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "sonarscope", "timestamp": "%s"}`, time.Now().UTC().Format(time.RFC3339))
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>sonarscope</title></head>
<body>
<h1>sonarscope</h1>
<ul>
<li><a href="/api/scope/state">scope state (JSON)</a></li>
<li><a href="/api/sweeps/latest">latest sweep summary (JSON)</a></li>
<li><a href="/debug/scope/polar">trail chart (ECharts)</a></li>
<li><a href="/debug/scope/plot.png">trail snapshot (PNG)</a></li>
<li><a href="/debug/">debug routes</a></li>
</ul>
</body>
</html>
`

func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

// handleScopeState returns the full scope snapshot as JSON.
func (ws *WebServer) handleScopeState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}
	if ws.scope == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "scope not configured")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ws.scope.Snapshot())
}

// handleLatestSweep returns the most recent completed sweep-leg summary.
func (ws *WebServer) handleLatestSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ws.writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed; use GET")
		return
	}
	if ws.stats == nil {
		ws.writeJSONError(w, http.StatusServiceUnavailable, "sweep stats not configured")
		return
	}
	sum, ok := ws.stats.Latest()
	if !ok {
		ws.writeJSONError(w, http.StatusNotFound, "no completed sweep yet")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sum)
}
