package importer

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/Jakobo/eyeglass/pkg/modules"
	"github.com/Jakobo/eyeglass/pkg/sass"
)

// ModuleStageOptions configures the module stage
type ModuleStageOptions struct {
	// StrictModuleImports limits a module to importing itself and the modules it declares
	StrictModuleImports bool
	Reader              *FileReader
}

// ModuleStage resolves "<module>[/<path>]" against the module graph
type ModuleStage struct {
	graph  *modules.Graph
	strict bool
	reader *FileReader
}

// NewModuleStage creates the module stage for graph
func NewModuleStage(graph *modules.Graph, opts ModuleStageOptions) *ModuleStage {
	return &ModuleStage{graph: graph, strict: opts.StrictModuleImports, reader: opts.Reader}
}

// Name implements Stage
func (m *ModuleStage) Name() string { return "module" }

// TryResolve implements Stage. The request is this stage's when its first
// segment names a module in the graph or a declared dependency that is
// missing; anything else is handed on with a note.
func (m *ModuleStage) TryResolve(ctx context.Context, req *sass.Request, trail *Trail) (*sass.Result, error) {
	name, rest, ok := splitModuleURI(req.URI)
	if !ok {
		return trail.Next(ctx)
	}

	from := m.importingModule(req)
	target, found := m.lookup(from, name)
	if !found {
		if m.graph.IsMissing(name) {
			return nil, fmt.Errorf("%w: %q is a declared dependency that is not installed", ErrModuleNotFound, name)
		}
		trail.Note(fmt.Errorf("%w: no module named %q", ErrModuleNotFound, name))
		return trail.Next(ctx)
	}

	if m.strict && from != nil && from != target && !from.Declares(name) {
		return nil, fmt.Errorf("%w: %s imports %s without declaring it", ErrUndeclaredDependency, from.Name, name)
	}

	file, err := m.resolveIn(target, rest)
	if err != nil {
		return nil, err
	}

	res := &sass.Result{Path: file, URI: req.URI}
	if req.Kind == sass.KindImport {
		if res.Contents, err = m.reader.Read(file); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (m *ModuleStage) importingModule(req *sass.Request) *modules.Node {
	if req.Context.Module != "" {
		if n, ok := m.graph.Find(req.Context.Module); ok {
			return n
		}
	}
	if req.Prev != "" && req.Prev != sass.Stdin {
		if n, ok := m.graph.Owner(req.Prev); ok {
			return n
		}
		if real, err := filepath.EvalSymlinks(req.Prev); err == nil {
			if n, ok := m.graph.Owner(real); ok {
				return n
			}
		}
	}
	return m.graph.Root
}

// lookup prefers the importing module's own edge so nested installs of the
// same name resolve to the copy that module depends on
func (m *ModuleStage) lookup(from *modules.Node, name string) (*modules.Node, bool) {
	if from != nil {
		if dep, ok := from.Dependency(name); ok {
			return dep, true
		}
		if from.Name == name {
			return from, true
		}
	}
	return m.graph.Find(name)
}

func (m *ModuleStage) resolveIn(target *modules.Node, rest string) (string, error) {
	if rest == "" {
		if target.Entry != "" {
			file, err := findStylesheet(target.Entry)
			if err != nil {
				return "", err
			}
			if file == "" {
				return "", fmt.Errorf("%w: main stylesheet %s of module %s", ErrFileNotFound, target.Entry, target.Name)
			}
			return file, nil
		}
		file, err := findIndex(target.SassDir)
		if err != nil {
			return "", err
		}
		if file == "" {
			return "", fmt.Errorf("%w: module %s declares no main stylesheet and has no index in %s", ErrFileNotFound, target.Name, target.SassDir)
		}
		return file, nil
	}

	clean := path.Clean(rest)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q escapes module %s", ErrFileNotFound, rest, target.Name)
	}
	file, err := findStylesheet(filepath.Join(target.SassDir, filepath.FromSlash(clean)))
	if err != nil {
		return "", err
	}
	if file == "" {
		return "", fmt.Errorf("%w: %q in module %s (%s)", ErrFileNotFound, rest, target.Name, target.SassDir)
	}
	return file, nil
}

// splitModuleURI splits "name/rest" and "@scope/name/rest". Relative,
// absolute, scheme qualified and single file imports are not module
// addresses.
func splitModuleURI(uri string) (string, string, bool) {
	if uri == "" || strings.HasPrefix(uri, ".") || strings.HasPrefix(uri, "/") ||
		strings.Contains(uri, ":") || filepath.IsAbs(uri) {
		return "", "", false
	}
	if !strings.Contains(uri, "/") && isStylesheetExt(path.Ext(uri)) {
		return "", "", false
	}

	segments := strings.SplitN(uri, "/", 3)
	if strings.HasPrefix(uri, "@") {
		if len(segments) < 2 || segments[1] == "" {
			return "", "", false
		}
		name := segments[0] + "/" + segments[1]
		if len(segments) == 3 {
			return name, segments[2], true
		}
		return name, "", true
	}

	name, rest, _ := strings.Cut(uri, "/")
	if name == "" {
		return "", "", false
	}
	return name, rest, true
}
