// Package web serves the status dashboard and the JSON API over the
// current refresh snapshot.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/concierge-services/concierge/internal/history"
	"github.com/concierge-services/concierge/internal/refresh"
)

// Server exposes the refresh coordinator state over HTTP.
type Server struct {
	coord      *refresh.Coordinator
	store      *history.Store
	httpServer *http.Server
	port       int
}

// NewServer creates a server publishing the coordinator's snapshots.
// The history store is optional and only feeds the /api/history route.
func NewServer(port int, coord *refresh.Coordinator, store *history.Store) *Server {
	return &Server{
		coord: coord,
		store: store,
		port:  port,
	}
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	router := s.setupRouter()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	fmt.Printf("Serving status dashboard at http://localhost:%d\n", s.port)
	fmt.Println("Press Ctrl+C to stop")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/", s.handleDashboard)
	r.Get("/api/status", s.handleAPIStatus)
	r.Get("/api/services/{id}", s.handleAPIService)
	r.Get("/api/history", s.handleAPIHistory)

	return r
}

// serviceView is the JSON shape of one service in API responses.
type serviceView struct {
	ServiceID   string            `json:"service_id"`
	ServiceName string            `json:"service_name"`
	ServiceType string            `json:"service_type"`
	LastUpdated string            `json:"last_updated"`
	Attributes  map[string]string `json:"attributes"`
}

func makeServiceView(res refresh.ServiceResult) serviceView {
	return serviceView{
		ServiceID:   res.ServiceID,
		ServiceName: res.ServiceName,
		ServiceType: string(res.ServiceType),
		LastUpdated: res.LastUpdated.Format(time.RFC3339),
		Attributes:  publicAttributes(res.Attributes),
	}
}

// publicAttributes drops internal bookkeeping keys (prefixed "_") from an
// attribute map before it leaves the process.
func publicAttributes(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		if strings.HasPrefix(k, "_") {
			continue
		}
		out[k] = v
	}
	return out
}

func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.coord.Snapshot()

	services := make([]serviceView, 0, len(snap.Services))
	for _, res := range snap.Services {
		services = append(services, makeServiceView(res))
	}
	sort.Slice(services, func(i, j int) bool {
		return services[i].ServiceID < services[j].ServiceID
	})

	writeJSON(w, map[string]interface{}{
		"connection_status": snap.Status,
		"updated_at":        snap.UpdatedAt.Format(time.RFC3339),
		"services":          services,
	})
}

func (s *Server) handleAPIService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	snap := s.coord.Snapshot()

	if res, ok := snap.Services[id]; ok {
		writeJSON(w, makeServiceView(res))
		return
	}

	// Not in the live snapshot (no match in the last scan window); fall
	// back to the most recent stored result for the service.
	if s.store != nil {
		rec, err := s.store.LatestRefresh(id)
		if err != nil {
			log.Printf("Error loading stored result for %s: %v", id, err)
		} else if rec != nil {
			writeJSON(w, serviceView{
				ServiceID:   rec.ServiceID,
				ServiceName: rec.ServiceName,
				ServiceType: rec.ServiceType,
				LastUpdated: rec.LastUpdated.Format(time.RFC3339),
				Attributes:  publicAttributes(rec.Attributes),
			})
			return
		}
	}

	http.Error(w, `{"error":"service not found"}`, http.StatusNotFound)
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, []interface{}{})
		return
	}

	records, err := s.store.RecentRefreshes(50)
	if err != nil {
		log.Printf("Error loading history: %v", err)
		http.Error(w, `{"error":"failed to load history"}`, http.StatusInternalServerError)
		return
	}

	type historyView struct {
		ServiceID      string            `json:"service_id"`
		ServiceName    string            `json:"service_name"`
		ServiceType    string            `json:"service_type"`
		LastUpdated    string            `json:"last_updated"`
		AttributeCount int               `json:"attribute_count"`
		Attributes     map[string]string `json:"attributes"`
		RecordedAt     string            `json:"recorded_at"`
	}

	views := make([]historyView, 0, len(records))
	for _, rec := range records {
		views = append(views, historyView{
			ServiceID:      rec.ServiceID,
			ServiceName:    rec.ServiceName,
			ServiceType:    rec.ServiceType,
			LastUpdated:    rec.LastUpdated.Format(time.RFC3339),
			AttributeCount: rec.AttributeCount,
			Attributes:     rec.Attributes,
			RecordedAt:     rec.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, views)
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Concierge Services</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 2rem; background: #f7f7f8; color: #222; }
h1 { font-size: 1.4rem; }
.status { display: inline-block; padding: 0.2rem 0.6rem; border-radius: 4px; font-weight: 600; }
.status.ok { background: #d9f2e3; color: #1a7a43; }
.status.problem { background: #fbe0e0; color: #a32626; }
.card { background: #fff; border: 1px solid #e2e2e6; border-radius: 8px; padding: 1rem 1.2rem; margin: 1rem 0; }
.card h2 { font-size: 1.1rem; margin: 0 0 0.3rem; }
.meta { color: #777; font-size: 0.85rem; }
table { border-collapse: collapse; margin-top: 0.6rem; }
td { padding: 0.2rem 0.8rem 0.2rem 0; font-size: 0.9rem; }
td:first-child { color: #555; }
</style>
</head>
<body>
<h1>Concierge Services</h1>
<p>Mailbox: <span class="status {{if eq .Status "OK"}}ok{{else}}problem{{end}}">{{.Status}}</span>
<span class="meta">updated {{.UpdatedAt}}</span></p>
{{range .Services}}
<div class="card">
<h2>{{.ServiceName}}</h2>
<p class="meta">{{.ServiceType}} &middot; last bill {{.LastUpdated}}</p>
<table>
{{range $k, $v := .Attributes}}<tr><td>{{$k}}</td><td>{{$v}}</td></tr>
{{end}}
</table>
</div>
{{else}}
<p>No services tracked yet. Run the detect command to find recurring billing senders.</p>
{{end}}
</body>
</html>`))

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.coord.Snapshot()

	services := make([]serviceView, 0, len(snap.Services))
	for _, res := range snap.Services {
		services = append(services, makeServiceView(res))
	}
	sort.Slice(services, func(i, j int) bool {
		return services[i].ServiceName < services[j].ServiceName
	})

	data := map[string]interface{}{
		"Status":    snap.Status,
		"UpdatedAt": snap.UpdatedAt.Format("Jan 2, 2006 3:04 PM"),
		"Services":  services,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, data); err != nil {
		log.Printf("Error rendering dashboard: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
