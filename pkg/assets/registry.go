// Package assets maps logical asset paths written in stylesheets to files in
// registered source directories and to the URLs emitted in compiled output.
package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
)

// DefaultHTTPPrefix is prepended to asset URLs when a source sets none
const DefaultHTTPPrefix = "/"

// SourceOptions configures one asset source
type SourceOptions struct {
	// Name namespaces the source: "<name>/<path>" addresses it explicitly
	Name string
	// HTTPPrefix is the public URL prefix, e.g. "/static" or "https://cdn.example.com"
	HTTPPrefix string
	// URLTemplate overrides URL generation; {prefix}, {name} and {path} are replaced
	URLTemplate string
	// Pattern restricts the source to paths, relative to its directory,
	// matching a glob such as "**/*.png" or "images/*". Empty means "**/*".
	Pattern string
}

// Source is a registered asset directory
type Source struct {
	Dir         string
	Name        string
	HTTPPrefix  string
	URLTemplate string
	Pattern     string
}

// Asset is a resolved asset reference
type Asset struct {
	Source  *Source
	Logical string
	Rel     string
	Path    string
	URL     string
}

// Registry holds asset sources in registration order. Sources are never
// removed.
type Registry struct {
	mu      sync.RWMutex
	sources []*Source
	log     *logrus.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.New()
	}
	return &Registry{log: log}
}

// AddSource registers dir. Registration order decides unnamespaced lookups:
// the first registered source containing a path wins.
func (r *Registry) AddSource(dir string, opts SourceOptions) (*Source, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	if opts.Pattern != "" {
		if !doublestar.ValidatePattern(opts.Pattern) {
			return nil, fmt.Errorf("%w: bad pattern %q", ErrInvalidSource, opts.Pattern)
		}
	}
	if strings.Contains(opts.Name, "/") && !strings.HasPrefix(opts.Name, "@") {
		return nil, fmt.Errorf("%w: name %q must not contain '/'", ErrInvalidSource, opts.Name)
	}

	src := &Source{
		Dir:         abs,
		Name:        opts.Name,
		HTTPPrefix:  opts.HTTPPrefix,
		URLTemplate: opts.URLTemplate,
		Pattern:     opts.Pattern,
	}
	if src.HTTPPrefix == "" {
		src.HTTPPrefix = DefaultHTTPPrefix
	}

	r.mu.Lock()
	r.sources = append(r.sources, src)
	r.mu.Unlock()

	r.log.Debugf("Registered asset source %s (namespace %q)", abs, opts.Name)
	return src, nil
}

// Sources returns registered sources in registration order
func (r *Registry) Sources() []*Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sources := make([]*Source, len(r.sources))
	copy(sources, r.sources)
	return sources
}

// Namespaces lists source names in registration order, once each
func (r *Registry) Namespaces() []string {
	seen := make(map[string]bool)
	var names []string
	for _, src := range r.Sources() {
		if src.Name == "" || seen[src.Name] {
			continue
		}
		seen[src.Name] = true
		names = append(names, src.Name)
	}
	return names
}

// Resolve maps a logical path to a file and its public URL.
//
// "<name>/<path>" is looked up only in sources registered under <name>.
// Any other path is looked up in the unnamespaced sources, first registered
// first.
func (r *Registry) Resolve(logical string) (*Asset, error) {
	clean, err := cleanLogical(logical)
	if err != nil {
		return nil, err
	}

	sources := r.Sources()
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: looking up %q", ErrNoSources, logical)
	}

	if ns, rest, ok := r.splitNamespace(sources, clean); ok {
		for _, src := range sources {
			if src.Name != ns {
				continue
			}
			if asset, ok := src.lookup(rest); ok {
				asset.Logical = clean
				return asset, nil
			}
		}
		return nil, fmt.Errorf("%w: %q in namespace %q", ErrAssetNotFound, rest, ns)
	}

	defaults := 0
	for _, src := range sources {
		if src.Name != "" {
			continue
		}
		defaults++
		if asset, ok := src.lookup(clean); ok {
			asset.Logical = clean
			return asset, nil
		}
	}
	if defaults == 0 {
		return nil, fmt.Errorf("%w: %q matches no namespace and no default source is registered", ErrUnknownNamespace, clean)
	}
	return nil, fmt.Errorf("%w: %q", ErrAssetNotFound, clean)
}

// splitNamespace splits "<name>/<rest>" when <name> is a registered
// namespace. Scoped names ("@scope/name") span two segments.
func (r *Registry) splitNamespace(sources []*Source, clean string) (string, string, bool) {
	for _, src := range sources {
		if src.Name == "" {
			continue
		}
		prefix := src.Name + "/"
		if strings.HasPrefix(clean, prefix) && len(clean) > len(prefix) {
			return src.Name, clean[len(prefix):], true
		}
	}
	return "", "", false
}

// List returns every asset of a namespace ("" for unnamespaced sources),
// sorted by logical path. Earlier sources shadow later ones.
func (r *Registry) List(namespace string) ([]*Asset, error) {
	seen := make(map[string]bool)
	var list []*Asset

	for _, src := range r.Sources() {
		if src.Name != namespace {
			continue
		}
		err := filepath.WalkDir(src.Dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(src.Dir, p)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if !src.matches(rel) {
				return nil
			}
			logical := rel
			if namespace != "" {
				logical = namespace + "/" + rel
			}
			if seen[logical] {
				return nil
			}
			seen[logical] = true
			list = append(list, &Asset{
				Source:  src,
				Logical: logical,
				Rel:     rel,
				Path:    p,
				URL:     src.url(rel),
			})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list assets in %s: %w", src.Dir, err)
		}
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Logical < list[j].Logical })
	return list, nil
}

func cleanLogical(logical string) (string, error) {
	trimmed := strings.TrimLeft(strings.TrimSpace(logical), "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidAssetPath)
	}
	clean := path.Clean(trimmed)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q escapes its source", ErrInvalidAssetPath, logical)
	}
	return clean, nil
}

func (s *Source) lookup(rel string) (*Asset, bool) {
	if !s.matches(rel) {
		return nil, false
	}
	full := filepath.Join(s.Dir, filepath.FromSlash(rel))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return nil, false
	}
	return &Asset{Source: s, Rel: rel, Path: full, URL: s.url(rel)}, true
}

func (s *Source) matches(rel string) bool {
	if s.Pattern == "" {
		return true
	}
	ok, _ := doublestar.Match(s.Pattern, rel)
	return ok
}

func (s *Source) url(rel string) string {
	if s.URLTemplate != "" {
		return strings.NewReplacer(
			"{prefix}", strings.TrimSuffix(s.HTTPPrefix, "/"),
			"{name}", s.Name,
			"{path}", rel,
		).Replace(s.URLTemplate)
	}

	tail := rel
	if s.Name != "" {
		tail = s.Name + "/" + rel
	}
	if strings.Contains(s.HTTPPrefix, "://") {
		return strings.TrimSuffix(s.HTTPPrefix, "/") + "/" + tail
	}
	return path.Join("/", s.HTTPPrefix, tail)
}
