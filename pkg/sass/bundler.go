package sass

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// BundlerName identifies the bundled host
	BundlerName = "eyeglass-bundler"
	// BundlerVersion is the engine version the bundled host reports
	BundlerVersion = "1.4.0"
)

// Stdin is the Prev of requests issued from a stylesheet given as a string
const Stdin = "stdin"

// Bundler is a minimal host compiler. It inlines @import statements through
// the configured importer and evaluates registered functions whose arguments
// are literals. Everything else passes through untouched.
type Bundler struct {
	// EnableImportOnce skips stylesheets already inlined in the same compilation
	EnableImportOnce bool

	opts *Options
	log  *logrus.Logger
}

// NewBundler creates a bundler over opts. opts is read at compile time, so
// importers and functions installed later are honored.
func NewBundler(opts *Options, log *logrus.Logger) *Bundler {
	if opts == nil {
		opts = &Options{}
	}
	if log == nil {
		log = logrus.New()
	}
	return &Bundler{opts: opts, log: log}
}

// Name implements Engine
func (b *Bundler) Name() string { return BundlerName }

// Version implements Engine
func (b *Bundler) Version() string { return BundlerVersion }

// compilation is the state of one CompileFile/CompileString call
type compilation struct {
	b     *Bundler
	seen  map[string]bool
	stack []string
}

// CompileFile expands the stylesheet at path
func (b *Bundler) CompileFile(ctx context.Context, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return b.compile(ctx, string(data), abs)
}

// CompileString expands source as if it were a file at prev. An empty prev
// means Stdin.
func (b *Bundler) CompileString(ctx context.Context, source, prev string) (string, error) {
	if prev == "" {
		prev = Stdin
	}
	return b.compile(ctx, source, prev)
}

func (b *Bundler) compile(ctx context.Context, source, prev string) (string, error) {
	c := &compilation{b: b, seen: make(map[string]bool)}
	c.seen[prev] = true

	out, err := c.expand(ctx, source, prev)
	if err != nil {
		return "", err
	}
	return b.applyFunctions(ctx, out)
}

func (c *compilation) expand(ctx context.Context, source, prev string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.stack = append(c.stack, prev)
	defer func() { c.stack = c.stack[:len(c.stack)-1] }()

	stmts := scanImports(source)
	if len(stmts) == 0 {
		return source, nil
	}

	var out strings.Builder
	last := 0
	for _, stmt := range stmts {
		out.WriteString(source[last:stmt.start])
		last = stmt.end

		for i, arg := range stmt.args {
			if i > 0 {
				out.WriteString("\n")
			}
			if arg.plain {
				fmt.Fprintf(&out, "@import %s;", arg.raw)
				continue
			}
			inlined, err := c.inline(ctx, arg.uri, prev)
			if err != nil {
				return "", err
			}
			out.WriteString(inlined)
		}
	}
	out.WriteString(source[last:])
	return out.String(), nil
}

func (c *compilation) inline(ctx context.Context, uri, prev string) (string, error) {
	importer := c.b.opts.Importer
	if importer == nil {
		return "", fmt.Errorf("%w: cannot import %q from %s", ErrNoImporter, uri, prev)
	}

	chain := make([]string, len(c.stack))
	copy(chain, c.stack)
	res, err := importer.Import(ctx, &Request{
		URI:     uri,
		Prev:    prev,
		Kind:    KindImport,
		Context: Context{Chain: chain},
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", prev, err)
	}
	if res == nil {
		return "", fmt.Errorf("%s: %w: %q", prev, ErrNotHandled, uri)
	}

	key := res.Path
	if key == "" {
		key = res.URI
	}
	if key == "" {
		key = uri
	}

	for _, open := range c.stack {
		if open == key {
			if c.b.EnableImportOnce {
				return "", nil
			}
			return "", fmt.Errorf("%w: %s", ErrImportCycle, strings.Join(append(c.stack, key), " -> "))
		}
	}
	if c.b.EnableImportOnce && c.seen[key] {
		c.b.log.Debugf("Skipping %s, already imported", key)
		return "", nil
	}
	c.seen[key] = true

	contents := res.Contents
	if contents == "" && res.Path != "" {
		data, err := os.ReadFile(res.Path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", res.Path, err)
		}
		contents = string(data)
	}

	next := key
	if res.Path != "" {
		next = res.Path
	}
	return c.expand(ctx, contents, next)
}

// applyFunctions replaces calls to registered functions whose arguments are
// all literals with the function result
func (b *Bundler) applyFunctions(ctx context.Context, css string) (string, error) {
	if len(b.opts.Functions) == 0 {
		return css, nil
	}

	names := make([]string, 0, len(b.opts.Functions))
	for name := range b.opts.Functions {
		names = append(names, regexp.QuoteMeta(name))
	}
	// longest first so "asset-url-x" is not matched as "asset-url"
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	re, err := regexp.Compile(`(^|[^\w-])(` + strings.Join(names, "|") + `)\(([^()]*)\)`)
	if err != nil {
		return "", err
	}

	var callErr error
	out := re.ReplaceAllStringFunc(css, func(match string) string {
		if callErr != nil {
			return match
		}
		groups := re.FindStringSubmatch(match)
		fn := b.opts.Functions[groups[2]]
		var args []string
		for _, raw := range splitArgs(groups[3]) {
			args = append(args, unquote(raw))
		}
		value, err := fn(ctx, args)
		if err != nil {
			callErr = fmt.Errorf("%s(%s): %w", groups[2], groups[3], err)
			return match
		}
		return groups[1] + value
	})
	if callErr != nil {
		return "", callErr
	}
	return out, nil
}
