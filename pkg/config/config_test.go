package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("EYEGLASS_TEST_STRING", "custom")
	t.Setenv("EYEGLASS_TEST_BOOL", "TRUE")
	t.Setenv("EYEGLASS_TEST_ONE", "1")
	t.Setenv("EYEGLASS_TEST_INT", "42")
	t.Setenv("EYEGLASS_TEST_BAD_INT", "forty-two")
	t.Setenv("EYEGLASS_TEST_DURATION", "90s")

	assert.Equal(t, "custom", getEnv("EYEGLASS_TEST_STRING", "default"))
	assert.Equal(t, "default", getEnv("EYEGLASS_TEST_UNSET", "default"))
	assert.True(t, getEnvBool("EYEGLASS_TEST_BOOL", false))
	assert.True(t, getEnvBool("EYEGLASS_TEST_ONE", false))
	assert.True(t, getEnvBool("EYEGLASS_TEST_UNSET", true))
	assert.Equal(t, 42, getEnvInt("EYEGLASS_TEST_INT", 0))
	assert.Equal(t, 7, getEnvInt("EYEGLASS_TEST_BAD_INT", 7))
	assert.Equal(t, 90*time.Second, getEnvDuration("EYEGLASS_TEST_DURATION", 0))
	assert.Equal(t, time.Minute, getEnvDuration("EYEGLASS_TEST_UNSET", time.Minute))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eyeglass.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
root: /srv/site
includePaths: [vendor, lib]
strictModuleImports: true
enableImportOnce: true
modules:
  - path: ../theme
    name: theme
assets:
  httpPrefix: /static
  sources:
    - directory: images
      name: img
      pattern: "*.png"
fileCache:
  size: 64
  ttl: 5m
`), 0644))

	opts, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/site", opts.Root)
	assert.Equal(t, []string{"vendor", "lib"}, opts.IncludePaths)
	assert.True(t, opts.StrictModuleImports)
	assert.True(t, opts.EnableImportOnce)
	assert.Equal(t, []ModuleRef{{Path: "../theme", Name: "theme"}}, opts.Modules)
	assert.Equal(t, "/static", opts.Assets.HTTPPrefix)
	require.Len(t, opts.Assets.Sources, 1)
	assert.Equal(t, AssetSource{Directory: "images", Name: "img", Pattern: "*.png"}, opts.Assets.Sources[0])
	assert.Equal(t, 64, opts.FileCache.Size)
	assert.Equal(t, 5*time.Minute, opts.FileCache.TTL)

	// untouched fields keep their defaults
	assert.Equal(t, DefaultCacheDir, opts.CacheDir)
	assert.Equal(t, "info", opts.Log.Level)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("root: [unclosed"), 0644))
	_, err = LoadFile(path)
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("EYEGLASS_ROOT", "/from/env")
	t.Setenv("EYEGLASS_INCLUDE_PATHS", strings.Join([]string{"a", "b"}, string(os.PathListSeparator)))
	t.Setenv("EYEGLASS_STRICT_MODULE_IMPORTS", "true")
	t.Setenv("EYEGLASS_FILE_CACHE_TTL", "1m")
	t.Setenv("EYEGLASS_LOG_LEVEL", "debug")

	opts := Defaults()
	opts.ApplyEnv()

	assert.Equal(t, "/from/env", opts.Root)
	assert.Equal(t, []string{"a", "b"}, opts.IncludePaths)
	assert.True(t, opts.StrictModuleImports)
	assert.Equal(t, time.Minute, opts.FileCache.TTL)
	assert.Equal(t, "debug", opts.Log.Level)
	assert.Equal(t, 512, opts.FileCache.Size)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *Options)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(o *Options) {}},
		{name: "empty root", mutate: func(o *Options) { o.Root = "" }, wantErr: "root is required"},
		{name: "module without path", mutate: func(o *Options) { o.Modules = []ModuleRef{{Name: "x"}} }, wantErr: "modules[0]"},
		{
			name:    "asset source without directory",
			mutate:  func(o *Options) { o.Assets.Sources = []AssetSource{{Name: "img"}} },
			wantErr: "directory is required",
		},
		{
			name: "duplicate asset source names",
			mutate: func(o *Options) {
				o.Assets.Sources = []AssetSource{{Directory: "a", Name: "img"}, {Directory: "b", Name: "img"}}
			},
			wantErr: "duplicate name",
		},
		{
			name:    "asset source name with slash",
			mutate:  func(o *Options) { o.Assets.Sources = []AssetSource{{Directory: "a", Name: "a/b"}} },
			wantErr: "must not contain",
		},
		{name: "bad ignoreDeprecations", mutate: func(o *Options) { o.IgnoreDeprecations = "soon" }, wantErr: "ignoreDeprecations"},
		{name: "ignore all", mutate: func(o *Options) { o.IgnoreDeprecations = IgnoreAll }},
		{name: "negative cache size", mutate: func(o *Options) { o.FileCache.Size = -1 }, wantErr: "fileCache.size"},
		{name: "negative ttl", mutate: func(o *Options) { o.FileCache.TTL = -time.Second }, wantErr: "fileCache.ttl"},
		{
			name:    "otel without endpoint",
			mutate:  func(o *Options) { o.OTel.Enabled = true; o.OTel.Endpoint = "" },
			wantErr: "otel.endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Defaults()
			tt.mutate(opts)
			err := opts.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.True(t, filepath.IsAbs(opts.Root))
				return
			}
			assert.ErrorIs(t, err, ErrInvalidOptions)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestResolvedPaths(t *testing.T) {
	opts := &Options{Root: "/srv/site"}
	assert.Equal(t, filepath.Join("/srv/site", DefaultCacheDir), opts.ResolvedCacheDir())

	opts.CacheDir = "/tmp/cache"
	assert.Equal(t, "/tmp/cache", opts.ResolvedCacheDir())

	assert.Equal(t, filepath.Join("/srv/site", "images"), opts.ResolvePath("images"))
	assert.Equal(t, "/abs/images", opts.ResolvePath("/abs/images"))
	assert.Equal(t, "", opts.ResolvePath(""))
}

func newTestLogger(buf *bytes.Buffer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(buf)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return l
}

func TestDeprecator_LogsOncePerMessage(t *testing.T) {
	var buf bytes.Buffer
	d := NewDeprecator("", newTestLogger(&buf))

	assert.True(t, d.Deprecate("0.8.0", "0.9.0", "enableImportOnce moved"))
	assert.False(t, d.Deprecate("0.8.0", "0.9.0", "enableImportOnce moved"))
	assert.True(t, d.Deprecate("0.8.0", "0.9.0", "sassOptions is gone"))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "enableImportOnce moved"))
	assert.Contains(t, out, "deprecated in 0.8.0, will be removed in 0.9.0")
	assert.Contains(t, out, "level=warning")
}

func TestDeprecator_Ignore(t *testing.T) {
	tests := []struct {
		ignore string
		from   string
		logged bool
	}{
		{ignore: "", from: "0.8.0", logged: true},
		{ignore: "0.8.0", from: "0.8.0", logged: false},
		{ignore: "1.0.0", from: "0.8.0", logged: false},
		{ignore: "0.7.0", from: "0.8.0", logged: true},
		{ignore: IgnoreAll, from: "9.0.0", logged: false},
	}

	for _, tt := range tests {
		t.Run(tt.ignore+"/"+tt.from, func(t *testing.T) {
			var buf bytes.Buffer
			d := NewDeprecator(tt.ignore, newTestLogger(&buf))
			assert.Equal(t, tt.logged, d.Deprecate(tt.from, "2.0.0", "message"))
			assert.Equal(t, tt.logged, buf.Len() > 0)
		})
	}
}
