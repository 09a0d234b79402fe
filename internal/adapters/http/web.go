package web

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"

	"barreltech/internal/adapters/http/middleware"
	enrollmentStore "barreltech/internal/adapters/storage/enrollment"
	"barreltech/internal/application/orchestrators"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Backends holds the three interchangeable enrollment stores, one per route.
type Backends struct {
	Mongo  enrollmentStore.Store
	SQLite enrollmentStore.Store
	Excel  enrollmentStore.Store
}

// Config is the HTTP surface configuration.
type Config struct {
	Port          int
	StaticDir     string
	Courses       []string
	FormEndpoint  string
	CSRFKey       []byte
	SecureCookies bool
	CORSOrigins   []string
}

// Deps are the collaborators handlers call into.
type Deps struct {
	Backends Backends
	Notifier orchestrators.Notifier
	Mail     orchestrators.NotifyEnrollmentDeps
}

// Server owns the handler dependencies; there are no package-level singletons.
type Server struct {
	cfg  Config
	deps Deps
}

// NewMux wires HTTP handlers for the app.
// PRE: every backend in deps.Backends and deps.Notifier are non-nil
// POST: returns the router wrapped in Timing -> CORS -> CSRF -> SecurityHeaders
func NewMux(cfg Config, deps Deps) http.Handler {
	if cfg.FormEndpoint == "" {
		cfg.FormEndpoint = "/api/enroll-sqlite"
	}
	s := &Server{cfg: cfg, deps: deps}

	r := mux.NewRouter()
	s.registerRoutes(r)

	var connectOrigins []string
	if origin := endpointOrigin(cfg.FormEndpoint); origin != "" {
		connectOrigins = append(connectOrigins, origin)
	}

	return middleware.Chain(r,
		middleware.SecurityHeaders(connectOrigins...),
		middleware.CSRF(cfg.CSRFKey, cfg.SecureCookies),
		middleware.CORS(cfg.CORSOrigins),
		middleware.Timing(),
	)
}

// endpointOrigin returns scheme://host for an absolute endpoint URL and ""
// for a same-origin path.
func endpointOrigin(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func (s *Server) registerRoutes(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/test-email", s.handleTestEmail).Methods(http.MethodGet)

	r.Handle("/api/enroll", s.enrollHandler(mongoRoute)).Methods(http.MethodPost)
	r.Handle("/api/enroll-sqlite", s.enrollHandler(sqliteRoute)).Methods(http.MethodPost)
	r.Handle("/api/enroll-excel", s.enrollHandler(excelRoute)).Methods(http.MethodPost)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(
		http.StripPrefix("/static/", http.FileServer(http.Dir(s.cfg.StaticDir))),
	).Methods(http.MethodGet)
}
