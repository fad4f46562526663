// Package adminhttp serves the operator-facing surface: health checks,
// Prometheus scraping, and a read-only room listing. It never touches the
// simulation registry directly, only a RoomLister snapshot.
package adminhttp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RoomSummary is the read-only view of one room exposed over /rooms.
type RoomSummary struct {
	ID          string `json:"id"`
	State       string `json:"state"`
	PlayerCount int    `json:"playerCount"`
	LevelID     int    `json:"levelId"`
}

// RoomLister supplies the current room snapshot. Implemented by the
// process's room manager; kept as an interface so the router can be
// unit-tested with a fake.
type RoomLister interface {
	ListRooms() []RoomSummary
}

// RouterConfig bundles the router's dependencies.
type RouterConfig struct {
	Rooms RoomLister

	// CORSOrigins overrides the default allow-list. A nil or empty slice
	// keeps the default of "no cross-origin access" (same-origin requests
	// only).
	CORSOrigins []string

	DisableLogging bool
}

// NewRouter builds the admin HTTP router. It is pure: no listener is
// opened and no goroutine is started, so it is safe to drive with
// httptest.NewServer in tests.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// cors.Handler treats an empty AllowedOrigins as "allow every origin",
	// so the middleware is only installed when an allow-list is given.
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET"},
		}))
	}

	r.Get("/healthz", handleHealthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/rooms", handleRooms(cfg.Rooms))

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleRooms(lister RoomLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rooms []RoomSummary
		if lister != nil {
			rooms = lister.ListRooms()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rooms)
	}
}
