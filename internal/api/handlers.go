package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/juju/errors"
	"github.com/sirupsen/logrus"

	"github.com/baditaflorin/go_status_dashboard/internal/metrics"
	"github.com/baditaflorin/go_status_dashboard/internal/monitor"
	"github.com/baditaflorin/go_status_dashboard/internal/view"
)

// ServiceName is reported by /health and /version.
const ServiceName = "status-dashboard"

// Handler serves the dashboard over HTTP.
type Handler struct {
	View     *view.View
	Renderer *view.HTMLRenderer
	Monitor  *monitor.Monitor
	Metrics  *metrics.Metrics
	Limiter  *RateLimiter
	Log      logrus.FieldLogger
	Version  string
}

// NewHandler wires a handler. metrics and limiter may be nil.
func NewHandler(v *view.View, r *view.HTMLRenderer, m *monitor.Monitor, mt *metrics.Metrics, rl *RateLimiter, log logrus.FieldLogger, version string) *Handler {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Handler{
		View:     v,
		Renderer: r,
		Monitor:  m,
		Metrics:  mt,
		Limiter:  rl,
		Log:      log,
		Version:  version,
	}
}

// Routes returns the router of the dashboard.
func (h *Handler) Routes() http.Handler {
	router := mux.NewRouter()
	router.Use(LoggingMiddleware(h.Log))
	if h.Metrics != nil {
		router.Use(h.Metrics.Middleware)
		router.Handle("/metrics", h.Metrics.Handler()).Methods(http.MethodGet)
	}

	router.HandleFunc("/", h.HandleDashboard).Methods(http.MethodGet)
	router.HandleFunc("/services", h.HandleDashboard).Methods(http.MethodGet)
	router.Handle("/services", h.Limiter.Handler(http.HandlerFunc(h.HandleAddService))).Methods(http.MethodPost)
	router.Handle("/services/delete", h.Limiter.Handler(http.HandlerFunc(h.HandleDeleteService))).Methods(http.MethodPost)
	router.HandleFunc("/events", h.HandleEvents).Methods(http.MethodGet)

	// System Health
	router.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	router.HandleFunc("/version", h.HandleVersion).Methods(http.MethodGet)
	return router
}

// HandleDashboard fetches the list and renders the page. ?add=1 opens the
// add dialog.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	page := h.View.FetchAndRender(r.Context())
	if r.URL.Query().Get("add") != "" {
		page.Dialog.Open = true
	}
	h.render(w, http.StatusOK, page)
}

// HandleAddService creates a service from the add form.
func (h *Handler) HandleAddService(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	page, err := h.View.AddService(r.Context(), r.PostForm.Get("name"), r.PostForm.Get("url"))
	h.render(w, statusFor(err), page)
}

// HandleDeleteService deletes the service named by the id form field. The
// id is opaque, so it never travels in the path.
func (h *Handler) HandleDeleteService(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	id := r.PostForm.Get("id")
	if id == "" {
		http.Error(w, "Missing service ID", http.StatusBadRequest)
		return
	}

	page, err := h.View.DeleteService(r.Context(), id)
	h.render(w, statusFor(err), page)
}

// HandleEvents streams list changes via SSE
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Monitor.Subscribe()
	defer h.Monitor.Unsubscribe(ch)

	// Send connection established message
	fmt.Fprintf(w, "event: connected\ndata: {\"type\":\"connected\"}\n\n")
	flusher.Flush()

	notify := r.Context().Done()

	for {
		select {
		case <-notify:
			return
		case update, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(update)
			if err == nil {
				fmt.Fprintf(w, "data: %s\n\n", data)
				flusher.Flush()
			}
		}
	}
}

// HandleHealth reports that the dashboard itself is up. It does not call
// the status API.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": ServiceName,
		"version": h.Version,
	})
}

func (h *Handler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": ServiceName,
		"version": h.Version,
	})
}

func (h *Handler) render(w http.ResponseWriter, status int, page view.Page) {
	var buf bytes.Buffer
	if err := h.Renderer.Render(&buf, page); err != nil {
		h.Log.WithError(err).Error("rendering dashboard failed")
		http.Error(w, "Rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func statusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, view.ErrActionPending):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
