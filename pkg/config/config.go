package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Jakobo/eyeglass/pkg/observability"
	"github.com/Jakobo/eyeglass/pkg/semver"
)

// DefaultCacheDir is the cache directory relative to Root
const DefaultCacheDir = ".eyeglass_cache"

var (
	// ErrInvalidOptions is wrapped by every Validate failure
	ErrInvalidOptions = errors.New("invalid eyeglass options")
)

// Options holds everything eyeglass needs to build a module graph and
// resolve imports
type Options struct {
	// Root is the directory holding the root package descriptor
	Root string `yaml:"root"`
	// CacheDir holds generated files, relative paths are joined to Root
	CacheDir string `yaml:"cacheDir"`

	Modules              []ModuleRef `yaml:"modules"`
	UseGlobalModuleCache bool        `yaml:"useGlobalModuleCache"`

	Assets       AssetOptions `yaml:"assets"`
	IncludePaths []string     `yaml:"includePaths"`

	// IgnoreDeprecations silences deprecations introduced at or before
	// this version; "all" silences every deprecation
	IgnoreDeprecations string `yaml:"ignoreDeprecations"`

	EnableImportOnce    bool `yaml:"enableImportOnce"`
	StrictModuleImports bool `yaml:"strictModuleImports"`

	FileCache FileCacheOptions `yaml:"fileCache"`
	Watch     bool             `yaml:"watch"`

	Log    LogOptions               `yaml:"log"`
	Server ServerOptions            `yaml:"server"`
	OTel   observability.OTelConfig `yaml:"otel"`
}

// ModuleRef pins a module directory that is not reachable through the
// root's dependencies
type ModuleRef struct {
	Path string `yaml:"path"`
	// Name overrides the name the module declares
	Name string `yaml:"name"`
}

// AssetOptions configures the asset registry
type AssetOptions struct {
	// HTTPPrefix is used by module asset sources and by sources setting none
	HTTPPrefix string        `yaml:"httpPrefix"`
	Sources    []AssetSource `yaml:"sources"`
}

// AssetSource is one configured asset directory
type AssetSource struct {
	Directory         string `yaml:"directory"`
	Name              string `yaml:"name"`
	HTTPPrefix        string `yaml:"httpPrefix"`
	RemoteURLTemplate string `yaml:"remoteUrlTemplate"`
	Pattern           string `yaml:"pattern"`
}

// FileCacheOptions sizes the stylesheet contents cache
type FileCacheOptions struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

// LogOptions configures the process logger
type LogOptions struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerOptions configures the development server
type ServerOptions struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// Defaults returns options for a project rooted in the working directory
func Defaults() *Options {
	return &Options{
		Root:     ".",
		CacheDir: DefaultCacheDir,
		Assets:   AssetOptions{HTTPPrefix: "/"},
		FileCache: FileCacheOptions{
			Size: 512,
		},
		Log: LogOptions{Level: "info", Format: "text"},
		Server: ServerOptions{
			Addr:            "127.0.0.1:8080",
			ShutdownTimeout: 30 * time.Second,
		},
		OTel: observability.OTelConfig{
			Endpoint:    "localhost:4317",
			ServiceName: "eyeglass",
			Insecure:    true,
		},
	}
}

// LoadFile reads YAML options from path on top of Defaults
func LoadFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	opts := Defaults()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return opts, nil
}

// ApplyEnv overrides options from EYEGLASS_* environment variables
func (o *Options) ApplyEnv() {
	o.Root = getEnv("EYEGLASS_ROOT", o.Root)
	o.CacheDir = getEnv("EYEGLASS_CACHE_DIR", o.CacheDir)
	if paths := getEnv("EYEGLASS_INCLUDE_PATHS", ""); paths != "" {
		o.IncludePaths = filepath.SplitList(paths)
	}
	o.Assets.HTTPPrefix = getEnv("EYEGLASS_HTTP_PREFIX", o.Assets.HTTPPrefix)
	o.UseGlobalModuleCache = getEnvBool("EYEGLASS_USE_GLOBAL_MODULE_CACHE", o.UseGlobalModuleCache)
	o.IgnoreDeprecations = getEnv("EYEGLASS_IGNORE_DEPRECATIONS", o.IgnoreDeprecations)
	o.EnableImportOnce = getEnvBool("EYEGLASS_ENABLE_IMPORT_ONCE", o.EnableImportOnce)
	o.StrictModuleImports = getEnvBool("EYEGLASS_STRICT_MODULE_IMPORTS", o.StrictModuleImports)
	o.FileCache.Size = getEnvInt("EYEGLASS_FILE_CACHE_SIZE", o.FileCache.Size)
	o.FileCache.TTL = getEnvDuration("EYEGLASS_FILE_CACHE_TTL", o.FileCache.TTL)
	o.Log.Level = getEnv("EYEGLASS_LOG_LEVEL", o.Log.Level)
	o.Log.Format = getEnv("EYEGLASS_LOG_FORMAT", o.Log.Format)
	o.Server.Addr = getEnv("EYEGLASS_ADDR", o.Server.Addr)
	o.Server.ShutdownTimeout = getEnvDuration("EYEGLASS_SHUTDOWN_TIMEOUT", o.Server.ShutdownTimeout)
	o.OTel.Enabled = getEnvBool("EYEGLASS_OTEL_ENABLED", o.OTel.Enabled)
	o.OTel.Endpoint = getEnv("EYEGLASS_OTEL_ENDPOINT", o.OTel.Endpoint)
	o.OTel.Insecure = getEnvBool("EYEGLASS_OTEL_INSECURE", o.OTel.Insecure)
}

// Validate checks the options and makes Root absolute
func (o *Options) Validate() error {
	if o.Root == "" {
		return fmt.Errorf("%w: root is required", ErrInvalidOptions)
	}
	root, err := filepath.Abs(o.Root)
	if err != nil {
		return fmt.Errorf("%w: root: %v", ErrInvalidOptions, err)
	}
	o.Root = root

	for i, m := range o.Modules {
		if m.Path == "" {
			return fmt.Errorf("%w: modules[%d]: path is required", ErrInvalidOptions, i)
		}
	}

	names := make(map[string]bool)
	for i, s := range o.Assets.Sources {
		if s.Directory == "" {
			return fmt.Errorf("%w: assets.sources[%d]: directory is required", ErrInvalidOptions, i)
		}
		if s.Name != "" {
			if strings.Contains(s.Name, "/") {
				return fmt.Errorf("%w: assets.sources[%d]: name %q must not contain '/'", ErrInvalidOptions, i, s.Name)
			}
			if names[s.Name] {
				return fmt.Errorf("%w: assets.sources[%d]: duplicate name %q", ErrInvalidOptions, i, s.Name)
			}
			names[s.Name] = true
		}
	}

	if o.IgnoreDeprecations != "" && o.IgnoreDeprecations != IgnoreAll {
		if _, err := semver.ParseVersion(o.IgnoreDeprecations); err != nil {
			return fmt.Errorf("%w: ignoreDeprecations: %v", ErrInvalidOptions, err)
		}
	}
	if o.FileCache.Size < 0 {
		return fmt.Errorf("%w: fileCache.size must not be negative", ErrInvalidOptions)
	}
	if o.FileCache.TTL < 0 {
		return fmt.Errorf("%w: fileCache.ttl must not be negative", ErrInvalidOptions)
	}
	if o.OTel.Enabled && o.OTel.Endpoint == "" {
		return fmt.Errorf("%w: otel.endpoint is required when otel is enabled", ErrInvalidOptions)
	}
	return nil
}

// ResolvedCacheDir is CacheDir joined to Root when relative
func (o *Options) ResolvedCacheDir() string {
	dir := o.CacheDir
	if dir == "" {
		dir = DefaultCacheDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(o.Root, dir)
}

// ResolvePath joins a relative path to Root
func (o *Options) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.Root, p)
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
