package route

import (
	"net/http"
	"os"
	"path/filepath"
	"scanserver/internal/config"
	"scanserver/internal/handler"
	"scanserver/internal/logger"
	"scanserver/internal/middleware"
	"scanserver/internal/repository"
	"scanserver/internal/service"
	hub "scanserver/internal/service/websocket"

	"github.com/gorilla/mux"
)

// dynamicHTMLHandler serves /path as <staticDir>/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(staticDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path == "/" {
			path = "/index"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}

		http.ServeFile(w, r, filePath)
	}
}

// SetupRoutes registers the decoder feed, session control, viewer and
// history endpoints, and wraps the router with the authentication middleware.
func SetupRoutes(manager *service.Manager, hubService *hub.HubService, cfg *config.Config, logger *logger.Logger,
	sessionRepo repository.SessionRepository, entryRepo repository.EntryRepository) http.Handler {
	r := mux.NewRouter()

	// Static files
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDirectory))))

	// Decoder feed
	r.HandleFunc("/api/observations", handler.ObservationsHandler(manager, logger)).Methods(http.MethodPost)
	r.HandleFunc("/api/scans", handler.ScansHandler(manager, logger)).Methods(http.MethodPost)

	// Session control and display
	r.HandleFunc("/api/session/start", handler.StartSessionHandler(manager, logger)).Methods(http.MethodPost)
	r.HandleFunc("/api/session/stop", handler.StopSessionHandler(manager, logger)).Methods(http.MethodPost)
	r.HandleFunc("/api/snapshot", handler.SnapshotHandler(manager, logger)).Methods(http.MethodGet)
	r.HandleFunc("/api/view", handler.ViewWebsocketHandler(hubService, logger))

	// Session history
	r.HandleFunc("/api/sessions", handler.GetSessionsHandler(sessionRepo, logger)).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/stats", handler.GetStatsHandler(sessionRepo, logger)).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/clear", handler.ClearSessionsHandler(sessionRepo, logger)).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}", handler.GetSessionHandler(sessionRepo, logger)).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}/entries", handler.GetSessionEntriesHandler(entryRepo, logger)).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", handler.DeleteSessionHandler(sessionRepo, logger)).Methods(http.MethodDelete)

	// Log endpoints
	r.HandleFunc("/logs/{level:info|warning|error}", handler.ShowLogsHandler(logger)).Methods(http.MethodGet)
	r.HandleFunc("/logs/{level:info|warning|error}/clear", handler.ClearLogsHandler(logger)).Methods(http.MethodPost)

	// Auth endpoints
	r.HandleFunc("/auth/login", handler.LoginHandler(cfg, logger)).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout", handler.LogoutHandler)

	// Automatic HTML handler mapping for example: /login -> static/login.html
	r.PathPrefix("/").HandlerFunc(dynamicHTMLHandler(cfg.StaticDirectory)).Methods(http.MethodGet)

	// Apply middleware
	return middleware.AuthMiddleware(cfg.Password)(r)
}
