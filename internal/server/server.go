package server

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/phishguard/phishguard/internal/utils"
	"github.com/phishguard/phishguard/pkg/guard"
	"github.com/phishguard/phishguard/pkg/scoring"
	"github.com/phishguard/phishguard/pkg/storage"
)

//go:embed web
var webFS embed.FS

// Server exposes the guard to browser clients: the navigation API the
// extension's service worker calls, the manual scan API the dashboard and
// popup call, and the warning surface blocked tabs are redirected to.
type Server struct {
	DB       *storage.DB
	Guard    *guard.Interceptor
	Scorer   *scoring.Client
	Username string
	Password string

	// FallbackURL is where "return to safety" sends a tab with no history.
	FallbackURL string

	warningTmpl *template.Template
}

func New(db *storage.DB, g *guard.Interceptor, scorer *scoring.Client, user, pass string) *Server {
	return &Server{
		DB:          db,
		Guard:       g,
		Scorer:      scorer,
		Username:    user,
		Password:    pass,
		FallbackURL: "https://www.google.com",
		warningTmpl: template.Must(template.ParseFS(webFS, "web/warning.html")),
	}
}

func (s *Server) Start(addr string) error {
	utils.Log.Infof("Starting guard server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// Handler builds the route table. Split out from Start so tests can drive the
// server through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Guard API
	mux.HandleFunc("POST /api/navigate", s.basicAuth(s.handleNavigate))
	mux.HandleFunc("POST /api/navigation-complete", s.basicAuth(s.handleNavigationComplete))
	mux.HandleFunc("POST /api/tab-closed", s.basicAuth(s.handleTabClosed))
	mux.HandleFunc("GET /api/badge", s.basicAuth(s.handleBadge))

	// Manual scan + history
	mux.HandleFunc("POST /api/scan", s.basicAuth(s.handleScan))
	mux.HandleFunc("GET /api/history", s.basicAuth(s.handleHistory))
	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))

	// Warning surface
	mux.HandleFunc("GET /warning", s.handleWarningPage)
	mux.HandleFunc("POST /api/warning/back", s.handleWarningBack)
	mux.HandleFunc("POST /api/warning/proceed", s.handleWarningProceed)

	return mux
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
