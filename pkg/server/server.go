// Package server is a development server that compiles stylesheets on
// request and serves the assets eyeglass knows about.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/Jakobo/eyeglass/pkg/assets"
	"github.com/Jakobo/eyeglass/pkg/async"
	"github.com/Jakobo/eyeglass/pkg/eyeglass"
	"github.com/Jakobo/eyeglass/pkg/httputil"
	"github.com/Jakobo/eyeglass/pkg/importer"
	"github.com/Jakobo/eyeglass/pkg/modules"
	"github.com/Jakobo/eyeglass/pkg/observability"
	"github.com/Jakobo/eyeglass/pkg/sass"
)

// ErrEntryNotFound is returned for /css requests naming no stylesheet
var ErrEntryNotFound = errors.New("stylesheet entry not found")

// Options configures a Server
type Options struct {
	// Gatherer backs /metrics; nil disables the route
	Gatherer       prometheus.Gatherer
	Metrics        *observability.Metrics
	TracerProvider trace.TracerProvider
	Logger         *logrus.Logger
}

// Server routes requests to one eyeglass instance
type Server struct {
	eg      *eyeglass.Eyeglass
	router  *mux.Router
	handler http.Handler
	health  *observability.HealthChecker
	log     *logrus.Logger
}

// New creates a server over eg
func New(eg *eyeglass.Eyeglass, opts Options) *Server {
	s := &Server{
		eg:     eg,
		router: mux.NewRouter(),
		health: observability.NewHealthChecker(eyeglass.Version),
		log:    opts.Logger,
	}
	if s.log == nil {
		s.log = eg.Logger()
	}

	s.health.Register("root", true, func(context.Context) error {
		_, err := os.Stat(eg.Modules().Root.Dir)
		return err
	})
	s.health.Register("modules", false, func(context.Context) error {
		if missing := eg.Modules().Issues.MissingNames(); len(missing) > 0 {
			return fmt.Errorf("missing dependencies: %s", strings.Join(missing, ", "))
		}
		return nil
	})

	s.setupRoutes(opts)

	otelOpts := []otelhttp.Option{}
	if opts.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(opts.TracerProvider))
	}
	s.handler = httputil.Chain(
		httputil.RecoveryMiddleware(s.log),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.log),
		otelhttp.NewMiddleware("eyeglass", otelOpts...),
	)(s.router)
	return s
}

func (s *Server) setupRoutes(opts Options) {
	s.router.Use(observability.HTTPMetricsMiddleware(opts.Metrics))

	s.router.HandleFunc("/css/{entry:.+}", s.compileStylesheet).Methods(http.MethodGet)
	s.router.HandleFunc("/assets/{path:.+}", s.serveAsset).Methods(http.MethodGet)
	s.router.HandleFunc("/modules", s.listModules).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.health.Liveness).Methods(http.MethodGet)
	s.router.HandleFunc("/readyz", s.health.Readiness).Methods(http.MethodGet)
	if opts.Gatherer != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(opts.Gatherer)).Methods(http.MethodGet)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is canceled or the process is
// signaled, then shuts the server and onShutdown down
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration, onShutdown ...observability.ShutdownFunc) error {
	srv := &http.Server{Addr: addr, Handler: s, ReadHeaderTimeout: 10 * time.Second}
	sm := observability.NewShutdownManager(s.log, srv, shutdownTimeout)
	for _, fn := range onShutdown {
		sm.RegisterShutdownFunc(fn)
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	failed := make(chan error, 1)
	async.SafeGo(waitCtx, 0, "http server", func(context.Context) error {
		s.log.Infof("Serving on http://%s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
			cancel()
			return err
		}
		return nil
	})

	shutdownErr := sm.WaitForShutdown(waitCtx)
	select {
	case err := <-failed:
		return fmt.Errorf("server failed: %w", err)
	default:
	}
	return shutdownErr
}

// entryFile maps "/css/<entry>" to a stylesheet below the root. "a/b.css"
// compiles a/b.scss or a/b.sass.
func (s *Server) entryFile(entry string) (string, error) {
	clean := path.Clean("/" + entry)[1:]
	if clean == "" || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: %q", importer.ErrInvalidRequest, entry)
	}
	base := filepath.Join(s.eg.Modules().Root.Dir, filepath.FromSlash(strings.TrimSuffix(clean, ".css")))
	if ext := filepath.Ext(base); ext == ".scss" || ext == ".sass" {
		base = strings.TrimSuffix(base, ext)
	}

	for _, ext := range []string{".scss", ".sass"} {
		if info, err := os.Stat(base + ext); err == nil && !info.IsDir() {
			return base + ext, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrEntryNotFound, entry)
}

func (s *Server) compileStylesheet(w http.ResponseWriter, r *http.Request) {
	file, err := s.entryFile(mux.Vars(r)["entry"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	css, err := s.eg.Compile(r.Context(), file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	httputil.WriteText(w, http.StatusOK, "text/css; charset=utf-8", css)
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request) {
	asset, err := s.eg.Assets().Resolve(mux.Vars(r)["path"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	http.ServeFile(w, r, asset.Path)
}

// ModuleInfo is one module in the /modules response
type ModuleInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Dir          string   `json:"dir"`
	Root         bool     `json:"root,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// ModulesResponse is the /modules response
type ModulesResponse struct {
	Modules []ModuleInfo   `json:"modules"`
	Issues  modules.Issues `json:"issues"`
}

func (s *Server) listModules(w http.ResponseWriter, r *http.Request) {
	graph := s.eg.Modules()
	resp := ModulesResponse{Issues: graph.Issues}
	for _, n := range graph.Nodes() {
		resp.Modules = append(resp.Modules, ModuleInfo{
			Name:         n.Name,
			Version:      n.VersionString(),
			Dir:          n.Dir,
			Root:         n.IsRoot,
			Dependencies: n.DependencyNames(),
		})
	}
	httputil.WriteJSONOrError(w, http.StatusOK, resp)
}

// statusFor maps resolution and compilation errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, importer.ErrInvalidRequest),
		errors.Is(err, assets.ErrInvalidAssetPath):
		return http.StatusBadRequest
	case errors.Is(err, ErrEntryNotFound),
		errors.Is(err, assets.ErrAssetNotFound),
		errors.Is(err, assets.ErrUnknownNamespace),
		errors.Is(err, assets.ErrNoSources):
		return http.StatusNotFound
	case errors.Is(err, importer.ErrFileNotFound),
		errors.Is(err, importer.ErrModuleNotFound),
		errors.Is(err, importer.ErrAmbiguousImport),
		errors.Is(err, importer.ErrUndeclaredDependency),
		errors.Is(err, sass.ErrImportCycle),
		errors.Is(err, sass.ErrNotHandled):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		observability.FromContext(r.Context()).WithError(err).Error("Request failed")
	}
	httputil.WriteError(w, status, err)
}
