// Package viewer serves stored growth runs over HTTP: a JSON API, an index
// page, interactive skeleton charts and the database debug routes.
package viewer

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/arbor/internal/httputil"
	"github.com/banshee-data/arbor/internal/monitoring"
	"github.com/banshee-data/arbor/internal/report"
	"github.com/banshee-data/arbor/internal/storage/sqlite"
	"github.com/banshee-data/arbor/internal/timeutil"
)

//go:embed index.html
var indexHTML embed.FS

var indexTemplate = template.Must(template.ParseFS(indexHTML, "index.html"))

const (
	defaultListLimit = 50
	histogramBins    = 20
)

// WebServer serves the run store.
type WebServer struct {
	address    string
	db         *sqlite.DB
	store      *sqlite.RunStore
	assetsHost string
	clock      timeutil.Clock
	server     *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	DB      *sqlite.DB
	// AssetsHost overrides where chart pages load echarts from.
	AssetsHost string
	Clock      timeutil.Clock
}

// NewWebServer creates a web server over the run database. The debug routes
// are mounted as part of construction.
func NewWebServer(config WebServerConfig) (*WebServer, error) {
	clock := config.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	ws := &WebServer{
		address:    config.Address,
		db:         config.DB,
		store:      sqlite.NewRunStore(config.DB.DB, clock),
		assetsHost: config.AssetsHost,
		clock:      clock,
	}

	mux, err := ws.setupRoutes()
	if err != nil {
		return nil, err
	}
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return ws, nil
}

// Handler returns the root handler, for tests and embedding.
func (ws *WebServer) Handler() http.Handler {
	return ws.server.Handler
}

// Start serves until ctx is cancelled, then shuts down gracefully. It
// returns early if the listener fails.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}

	monitoring.Logf("HTTP server routine stopped")
	return nil
}

// Close shuts down the web server immediately.
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}

func (ws *WebServer) setupRoutes() (*http.ServeMux, error) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/{$}", ws.handleIndex)
	mux.HandleFunc("/api/runs", ws.handleRuns)
	mux.HandleFunc("/api/runs/{id}", ws.handleRun)
	mux.HandleFunc("/api/runs/{id}/branches", ws.handleBranches)
	mux.HandleFunc("/charts/runs/{id}", ws.handleSkeletonChart)
	mux.HandleFunc("/charts/runs/{id}/radii.png", ws.handleRadiusHistogram)

	if err := ws.db.AttachAdminRoutes(mux); err != nil {
		return nil, err
	}
	return mux, nil
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"status":    "ok",
		"service":   "arbor",
		"timestamp": ws.clock.Now().UTC().Format(time.RFC3339),
	})
}

func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs, err := ws.store.List(defaultListLimit)
	if err != nil {
		httputil.InternalServerError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, struct{ Runs []*sqlite.Run }{runs}); err != nil {
		httputil.InternalServerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// handleRuns lists runs, newest first.
// Query params:
//
//	limit (optional, default 50, 0 for all)
func (ws *WebServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			httputil.BadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	runs, err := ws.store.List(limit)
	if err != nil {
		httputil.InternalServerError(w, err)
		return
	}
	if runs == nil {
		runs = []*sqlite.Run{}
	}
	httputil.WriteJSONOK(w, runs)
}

func (ws *WebServer) handleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	switch r.Method {
	case http.MethodGet:
		run, err := ws.store.Get(id)
		if ws.storeError(w, err) {
			return
		}
		httputil.WriteJSONOK(w, run)
	case http.MethodDelete:
		if ws.storeError(w, ws.store.Delete(id)) {
			return
		}
		monitoring.Logf("deleted run %s", id)
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.MethodNotAllowed(w, http.MethodGet, http.MethodDelete)
	}
}

func (ws *WebServer) handleBranches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	id := r.PathValue("id")
	if _, err := ws.store.Get(id); ws.storeError(w, err) {
		return
	}
	branches, err := ws.store.Branches(id)
	if ws.storeError(w, err) {
		return
	}
	if branches == nil {
		branches = []sqlite.BranchRecord{}
	}
	httputil.WriteJSONOK(w, branches)
}

func (ws *WebServer) handleSkeletonChart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := ws.store.Get(id)
	if ws.storeError(w, err) {
		return
	}
	g, err := ws.store.LoadGraph(id)
	if ws.storeError(w, err) {
		return
	}

	opts := report.ChartOptions{
		Title: fmt.Sprintf("Run %s", run.RunID),
		Subtitle: fmt.Sprintf("branches=%d leaves=%d iterations=%d stop=%s",
			run.BranchCount, run.LeafCount, run.Iterations, run.StopReason),
		AssetsHost: ws.assetsHost,
	}
	var buf bytes.Buffer
	if err := report.RenderSkeletonChart(&buf, opts, g, nil); err != nil {
		httputil.InternalServerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (ws *WebServer) handleRadiusHistogram(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	g, err := ws.store.LoadGraph(id)
	if ws.storeError(w, err) {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteRadiusHistogram(&buf, "Branch radii", g, histogramBins); err != nil {
		httputil.InternalServerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// storeError writes the reply for a failed store call and reports whether
// there was one.
func (ws *WebServer) storeError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, sqlite.ErrRunNotFound), errors.Is(err, sqlite.ErrNoBranches):
		httputil.NotFound(w, err.Error())
	default:
		httputil.InternalServerError(w, err)
	}
	return true
}
