package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"

	"github.com/joeblew999/plat-scenes/internal/api"
	"github.com/joeblew999/plat-scenes/internal/api/screen"
	"github.com/joeblew999/plat-scenes/internal/db"
	"github.com/joeblew999/plat-scenes/internal/metrics"
	"github.com/joeblew999/plat-scenes/internal/service"
	"github.com/joeblew999/plat-scenes/internal/templates"
	"github.com/joeblew999/plat-scenes/web"
)

// Version is reported by /health and /api/v1/info.
const Version = "0.1.0"

// Config holds the server configuration.
type Config struct {
	Host       string
	Port       string
	DataDir    string // DuckDB catalog location; empty keeps it in memory
	WebDir     string // Optional web/ directory overriding the embedded assets
	MaxScreens int
	Logger     *slog.Logger
}

// Server is the scenes HTTP server.
type Server struct {
	config   Config
	log      *slog.Logger
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	services *api.Services
	renderer *templates.Renderer
	tmplDir  string // set when templates come from WebDir; reparsed per page load
	metrics  *metrics.Metrics
	static   http.FileSystem
}

// New creates a new scenes server.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	mux := http.NewServeMux()

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-scenes API", "1.0.0")
	humaConfig.Info.Description = "Film shooting locations in Naples on an interactive map, with per-screen camera and selection state."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	m := metrics.New()
	locations := service.NewLocationService()
	screens := service.NewScreenService(locations, service.NewEventBus(), cfg.MaxScreens)
	screens.OnOpen = m.ScreenOpened
	screens.OnClose = m.ScreenClosed

	s := &Server{
		config:  cfg,
		log:     log,
		mux:     mux,
		humaAPI: humaAPI,
		services: &api.Services{
			Locations: locations,
			Screens:   screens,
			Metrics:   m,
		},
		metrics: m,
	}

	s.loadWeb()

	// Mirror the store into DuckDB; the server runs without it if DuckDB fails.
	conn, err := db.Open(db.Config{DataDir: cfg.DataDir, DBName: "scenes"})
	if err == nil {
		err = db.SeedLocations(context.Background(), conn, locations.List())
		if err != nil {
			conn.Close()
		}
	}
	if err != nil {
		log.Warn("location catalog unavailable", "err", err)
	} else {
		s.db = conn
	}

	s.routes()
	return s
}

// loadWeb picks the template and static sources: WebDir when set, the
// embedded assets otherwise.
func (s *Server) loadWeb() {
	if s.config.WebDir != "" {
		r, err := templates.New(filepath.Join(s.config.WebDir, "templates"))
		if err == nil {
			s.renderer = r
			s.tmplDir = filepath.Join(s.config.WebDir, "templates")
			s.static = http.Dir(filepath.Join(s.config.WebDir, "static"))
			s.log.Info("loaded templates", "dir", s.config.WebDir)
			return
		}
		s.log.Warn("web dir unusable, using embedded assets", "dir", s.config.WebDir, "err", err)
	}

	r, err := templates.NewFS(web.FS, web.TemplatePatterns...)
	if err != nil {
		// Embedded templates are compiled in; failing to parse them is a build bug.
		panic(fmt.Sprintf("parse embedded templates: %v", err))
	}
	s.renderer = r
	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		panic(fmt.Sprintf("embedded static assets: %v", err))
	}
	s.static = http.FS(static)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Screens returns the screen registry.
func (s *Server) Screens() *service.ScreenService {
	return s.services.Screens
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Server) routes() {
	// Register Huma REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)
	api.NewInfoHandler(Version, s.db != nil, s.services.Locations, s.services.Screens).RegisterRoutes(s.humaAPI)
	api.NewDBHandler(s.db).RegisterRoutes(s.humaAPI)

	// Map screen SSE routes using Huma + Datastar SDK
	screen.NewHandler(s.services.Screens, s.renderer, s.metrics, s.log).RegisterRoutes(s.humaAPI)

	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(s.static)))
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	// Page routes
	s.mux.HandleFunc("GET /viewer", s.handleViewer)
	s.mux.HandleFunc("/", s.handleRoot)
}

// PageData is the template data for the map page.
type PageData struct {
	Screen  string
	Signals string
	Routes  screen.Routes
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.handleViewer(w, r)
}

// handleViewer opens a new screen and renders its page. Templates loaded from
// WebDir are reparsed first so edits show up on reload.
func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	if s.tmplDir != "" {
		if err := s.renderer.Reload(s.tmplDir); err != nil {
			s.log.Warn("template reload failed, serving previous templates", "dir", s.tmplDir, "err", err)
		}
	}

	m := s.services.Screens.Open()
	signals, err := json.Marshal(screen.InitialSignals(m))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	err = s.renderer.Execute(w, "map-page", PageData{
		Screen:  m.Screen(),
		Signals: string(signals),
		Routes:  screen.RoutesFor(m.Screen()),
	})
	if err != nil {
		s.log.Error("render map page", "screen", m.Screen(), "err", err)
	}
}
