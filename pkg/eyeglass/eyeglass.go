package eyeglass

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/Jakobo/eyeglass/pkg/assets"
	"github.com/Jakobo/eyeglass/pkg/config"
	"github.com/Jakobo/eyeglass/pkg/importer"
	"github.com/Jakobo/eyeglass/pkg/modules"
	"github.com/Jakobo/eyeglass/pkg/observability"
	"github.com/Jakobo/eyeglass/pkg/sass"
	"github.com/Jakobo/eyeglass/pkg/semver"
)

const (
	// Version is the eyeglass version modules declare their "needs" against
	Version = "3.0.0"

	// EngineRange is the host engine versions eyeglass works with
	EngineRange = ">=1.0.0 <2.0.0"
)

// Option customizes New
type Option func(*settings)

type settings struct {
	metrics        *observability.Metrics
	tracerProvider trace.TracerProvider
	reader         *importer.FileReader
}

// WithMetrics records graph, resolution and compilation metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

// WithTracerProvider traces resolution stages with tp instead of the global
// provider
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) { s.tracerProvider = tp }
}

// WithFileReader shares a stylesheet cache between instances
func WithFileReader(r *importer.FileReader) Option {
	return func(s *settings) { s.reader = r }
}

// Eyeglass is one configured instance bound to a host's options
type Eyeglass struct {
	opts       *config.Options
	host       *sass.Options
	log        *logrus.Logger
	deprecator *config.Deprecator

	graph    *modules.Graph
	registry *assets.Registry
	reader   *importer.FileReader
	chain    *importer.Chain
	bundler  *sass.Bundler
	metrics  *observability.Metrics
}

// New builds the module graph for opts.Root and installs the resolution
// chain and eyeglass functions into host. A nil host is replaced by empty
// options and a nil host engine by the bundled one.
func New(ctx context.Context, opts *config.Options, host *sass.Options, logger *logrus.Logger, options ...Option) (*Eyeglass, error) {
	if opts == nil {
		opts = config.Defaults()
	}
	if host == nil {
		host = &sass.Options{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	var s settings
	for _, o := range options {
		o(&s)
	}

	e := &Eyeglass{
		opts:       opts,
		host:       host,
		log:        logger,
		deprecator: config.NewDeprecator(opts.IgnoreDeprecations, logger),
		registry:   assets.NewRegistry(logger),
		metrics:    s.metrics,
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	pinned := make([]modules.Pinned, len(opts.Modules))
	for i, m := range opts.Modules {
		pinned[i] = modules.Pinned{Path: opts.ResolvePath(m.Path), Name: m.Name}
	}
	graph, err := modules.Build(ctx, modules.BuildOptions{
		Root:            opts.Root,
		Modules:         pinned,
		UseGlobalCache:  opts.UseGlobalModuleCache,
		EyeglassVersion: Version,
		Logger:          logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build module graph: %w", err)
	}
	e.graph = graph

	if err := os.MkdirAll(opts.ResolvedCacheDir(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	if err := e.checkEngine(); err != nil {
		return nil, err
	}

	e.reportIssues()

	e.reader = s.reader
	if e.reader == nil {
		e.reader = importer.NewFileReader(opts.FileCache.Size, opts.FileCache.TTL, e.metrics)
	}
	e.installImporter(s.tracerProvider)
	e.installFunctions()

	if err := e.addAssetSources(); err != nil {
		return nil, err
	}

	if e.bundler != nil {
		e.bundler.EnableImportOnce = opts.EnableImportOnce
	}
	return e, nil
}

// Decorate builds an instance and returns only the decorated host options
//
// Deprecated: use New and read the host options you passed in.
func Decorate(ctx context.Context, opts *config.Options, host *sass.Options, logger *logrus.Logger) (*sass.Options, error) {
	e, err := New(ctx, opts, host, logger)
	if err != nil {
		return nil, err
	}
	e.deprecator.Deprecate("0.8.0", "0.9.0", "eyeglass.Decorate is deprecated. Instead, use eyeglass.New")
	return e.host, nil
}

func (e *Eyeglass) checkEngine() error {
	if e.host.Engine == nil {
		e.bundler = sass.NewBundler(e.host, e.log)
		e.host.Engine = e.bundler
	} else if b, ok := e.host.Engine.(*sass.Bundler); ok {
		e.bundler = b
	}

	engine := e.host.Engine
	version, err := semver.ParseVersion(engine.Version())
	if err != nil {
		return fmt.Errorf("%w: %s reports version %q", ErrIncompatibleEngine, engine.Name(), engine.Version())
	}
	if !semver.Satisfies(version, semver.MustParseConstraint(EngineRange)) {
		return fmt.Errorf("%w: %s %s does not satisfy %s", ErrIncompatibleEngine, engine.Name(), engine.Version(), EngineRange)
	}
	return nil
}

// MissingDependenciesWarning renders the block logged for missing
// dependencies, empty when there are none
func MissingDependenciesWarning(issues *modules.Issues) string {
	names := issues.MissingNames()
	if len(names) == 0 {
		return ""
	}
	lines := []string{"The following dependencies were not found:"}
	for _, name := range names {
		lines = append(lines, "  "+name)
	}
	lines = append(lines, "You might need to `npm install` the above.")
	return strings.Join(lines, "\n")
}

func (e *Eyeglass) reportIssues() {
	issues := &e.graph.Issues
	if warning := MissingDependenciesWarning(issues); warning != "" {
		e.log.Warn(warning)
	}
	for _, w := range issues.Warnings() {
		e.log.Warn(w)
	}

	e.metrics.ObserveGraph(e.graph.Len(), map[string]int{
		"missing":   len(issues.Dependencies.Missing),
		"version":   len(issues.Dependencies.Versions),
		"collision": len(issues.Collisions),
		"engine":    len(issues.Engine.Incompatible),
	})
}

func (e *Eyeglass) installImporter(tp trace.TracerProvider) {
	includePaths := make([]string, 0, len(e.opts.IncludePaths)+len(e.host.IncludePaths))
	for _, p := range e.opts.IncludePaths {
		includePaths = append(includePaths, e.opts.ResolvePath(p))
	}
	includePaths = append(includePaths, e.host.IncludePaths...)

	e.chain = importer.NewChain(importer.Options{
		Metrics:        e.metrics,
		TracerProvider: tp,
		Logger:         e.log,
	},
		importer.NewModuleStage(e.graph, importer.ModuleStageOptions{
			StrictModuleImports: e.opts.StrictModuleImports,
			Reader:              e.reader,
		}),
		importer.NewAssetStage(e.registry, e.reader),
		importer.NewFSStage(includePaths, e.reader),
		importer.NewUserStage(e.host.Importer),
	)
	e.host.Importer = e.chain
}

func (e *Eyeglass) installFunctions() {
	fns := map[string]sass.Function{
		"asset-url":        e.assetURL,
		"eyeglass-version": e.moduleVersion,
	}
	for name, fn := range e.host.Functions {
		fns[name] = fn
	}
	e.host.Functions = fns
}

func (e *Eyeglass) assetURL(_ context.Context, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("asset-url takes one argument, got %d", len(args))
	}
	asset, err := e.registry.Resolve(args[0])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("url(%q)", asset.URL), nil
}

func (e *Eyeglass) moduleVersion(_ context.Context, args []string) (string, error) {
	if len(args) == 0 || args[0] == "" || args[0] == "eyeglass" {
		return Version, nil
	}
	node, ok := e.graph.Find(args[0])
	if !ok {
		return "", fmt.Errorf("%w: %s", importer.ErrModuleNotFound, args[0])
	}
	return node.VersionString(), nil
}

func (e *Eyeglass) addAssetSources() error {
	for _, src := range e.opts.Assets.Sources {
		prefix := src.HTTPPrefix
		if prefix == "" {
			prefix = e.opts.Assets.HTTPPrefix
		}
		_, err := e.registry.AddSource(e.opts.ResolvePath(src.Directory), assets.SourceOptions{
			Name:        src.Name,
			HTTPPrefix:  prefix,
			URLTemplate: src.RemoteURLTemplate,
			Pattern:     src.Pattern,
		})
		if err != nil {
			return fmt.Errorf("failed to add asset source %s: %w", src.Directory, err)
		}
	}
	if _, err := e.registry.AddModuleSources(e.graph, e.opts.Assets.HTTPPrefix); err != nil {
		return fmt.Errorf("failed to add module asset sources: %w", err)
	}
	return nil
}

// Options returns the validated options
func (e *Eyeglass) Options() *config.Options { return e.opts }

// Host returns the decorated host options
func (e *Eyeglass) Host() *sass.Options { return e.host }

// Modules returns the module graph
func (e *Eyeglass) Modules() *modules.Graph { return e.graph }

// Assets returns the asset registry
func (e *Eyeglass) Assets() *assets.Registry { return e.registry }

// Importer returns the resolution chain installed as the host importer
func (e *Eyeglass) Importer() *importer.Chain { return e.chain }

// Functions returns the functions installed in the host
func (e *Eyeglass) Functions() map[string]sass.Function { return e.host.Functions }

// Reader returns the stylesheet cache
func (e *Eyeglass) Reader() *importer.FileReader { return e.reader }

// Engine returns the host engine
func (e *Eyeglass) Engine() sass.Engine { return e.host.Engine }

// Logger returns the instance logger
func (e *Eyeglass) Logger() *logrus.Logger { return e.log }

// Deprecate reports a deprecation through the instance deprecator
func (e *Eyeglass) Deprecate(from, to, message string) bool {
	return e.deprecator.Deprecate(from, to, message)
}

// Compile compiles the stylesheet at path with the bundled engine
func (e *Eyeglass) Compile(ctx context.Context, path string) (string, error) {
	if e.bundler == nil {
		return "", fmt.Errorf("%w: host engine is %s", ErrExternalEngine, e.host.Engine.Name())
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	start := time.Now()
	css, err := e.bundler.CompileFile(ctx, abs)
	e.metrics.ObserveCompilation(err, time.Since(start))
	return css, err
}

// Bundle compiles source as a stylesheet without a file of its own.
// Relative imports resolve against include paths only.
func (e *Eyeglass) Bundle(ctx context.Context, source string) (string, error) {
	if e.bundler == nil {
		return "", fmt.Errorf("%w: host engine is %s", ErrExternalEngine, e.host.Engine.Name())
	}
	start := time.Now()
	css, err := e.bundler.CompileString(ctx, source, sass.Stdin)
	e.metrics.ObserveCompilation(err, time.Since(start))
	return css, err
}

// WatchRoots lists the directories whose changes can affect compilation:
// the root, include paths and modules living outside the root
func (e *Eyeglass) WatchRoots() []string {
	root := e.graph.Root.Dir
	roots := []string{root}
	seen := map[string]bool{root: true}
	add := func(dir string) {
		if dir == "" || seen[dir] || strings.HasPrefix(dir, root+string(filepath.Separator)) {
			return
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return
		}
		seen[dir] = true
		roots = append(roots, dir)
	}
	for _, p := range e.opts.IncludePaths {
		add(e.opts.ResolvePath(p))
	}
	for _, n := range e.graph.Nodes() {
		add(n.Dir)
	}
	return roots
}

// Watch creates a watcher over WatchRoots that keeps the stylesheet cache
// fresh. The caller runs and closes it.
func (e *Eyeglass) Watch() (*importer.Watcher, error) {
	w, err := importer.NewWatcher(e.reader, e.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	for _, root := range e.WatchRoots() {
		if err := w.AddTree(root); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", root, err)
		}
	}
	return w, nil
}
