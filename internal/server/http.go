package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"ratesDashboard/internal/charts"
	"ratesDashboard/internal/dashboard"
	"ratesDashboard/internal/observability"
)

// Renderer produces one dashboard per call.
type Renderer interface {
	Render(ctx context.Context) (*dashboard.Dashboard, error)
}

// PanelDrawer turns a panel into a PNG.
type PanelDrawer interface {
	Panel(p *dashboard.Panel, window time.Duration) ([]byte, error)
}

// Deps are the handlers' collaborators. Webhook is optional.
type Deps struct {
	Dashboard Renderer
	Charts    PanelDrawer
	Webhook   http.HandlerFunc
	Logger    *log.Logger

	// SnapshotTTL is how long chart images reuse the last page render.
	// Zero means 30s.
	SnapshotTTL time.Duration
}

type handlers struct {
	dash   *snapshot
	charts PanelDrawer
	logger *log.Logger
}

func NewHTTPMux(d Deps) http.Handler {
	h := &handlers{dash: newSnapshot(d.Dashboard, d.SnapshotTTL), charts: d.Charts, logger: d.Logger}
	if h.logger == nil {
		h.logger = log.New(os.Stderr, "[http] ", log.LstdFlags)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.page)
	mux.HandleFunc("GET /charts/{file}", h.chart)
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })
	if d.Webhook != nil {
		mux.HandleFunc("POST /telegram/webhook", d.Webhook)
	}
	return logRequests(h.logger, mux)
}

func (h *handlers) page(w http.ResponseWriter, r *http.Request) {
	d, err := h.dash.fresh(r.Context())
	if err != nil {
		h.logger.Printf("page: render failed: %v", err)
		http.Error(w, "dashboard unavailable", http.StatusServiceUnavailable)
		return
	}
	view := newPageView(d, r.URL.Query().Get("window"))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, view); err != nil {
		h.logger.Printf("page: template: %v", err)
	}
}

func (h *handlers) chart(w http.ResponseWriter, r *http.Request) {
	id, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok {
		http.NotFound(w, r)
		return
	}
	d, err := h.dash.recent(r.Context())
	if err != nil {
		http.Error(w, "dashboard unavailable", http.StatusServiceUnavailable)
		return
	}
	p, ok := d.Panel(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	img, err := h.charts.Panel(p, charts.ParseWindow(r.URL.Query().Get("window")))
	switch {
	case errors.Is(err, charts.ErrNoData):
		http.Error(w, "no data", http.StatusNotFound)
		return
	case dashboard.Unavailable(err):
		http.Error(w, "data unavailable", http.StatusBadGateway)
		return
	case err != nil:
		h.logger.Printf("chart %s: %v", id, err)
		http.Error(w, "chart failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=60")
	_, _ = w.Write(img)
}

// ListenAndServe serves handler until ctx is cancelled, then shuts down gracefully.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
