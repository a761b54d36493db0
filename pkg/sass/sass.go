// Package sass defines the extension points a host stylesheet compiler
// exposes to eyeglass: importers, custom functions and the engine identity.
// It also ships Bundler, a minimal host that only expands @import.
package sass

import (
	"context"
)

// Kind tells an importer what the host wants from a request
type Kind int

const (
	// KindImport asks for a stylesheet to inline
	KindImport Kind = iota
	// KindURL asks only for the public URL of a resource
	KindURL
)

func (k Kind) String() string {
	switch k {
	case KindImport:
		return "import"
	case KindURL:
		return "url"
	default:
		return "unknown"
	}
}

// Context carries where a request originates
type Context struct {
	// Module is the logical name of the module owning the importing file, if known
	Module string
	// Chain is the stack of files being expanded, outermost first
	Chain []string
}

// Request is one import or URL lookup issued by the host
type Request struct {
	URI     string
	Prev    string
	Kind    Kind
	Context Context
}

// Result is a resolved request. Contents may be empty when Path points at a
// file the host should read itself.
type Result struct {
	Path     string
	Contents string
	URI      string
}

// Importer resolves requests synchronously
type Importer interface {
	Import(ctx context.Context, req *Request) (*Result, error)
}

// ImporterFunc adapts a function to Importer
type ImporterFunc func(ctx context.Context, req *Request) (*Result, error)

// Import calls f
func (f ImporterFunc) Import(ctx context.Context, req *Request) (*Result, error) {
	return f(ctx, req)
}

// AsyncImporter resolves requests in the background. done is called exactly
// once.
type AsyncImporter interface {
	ImportAsync(ctx context.Context, req *Request, done func(*Result, error))
}

// Engine identifies the host compiler
type Engine interface {
	Name() string
	Version() string
}

// Function is a custom stylesheet function. Arguments arrive unquoted.
type Function func(ctx context.Context, args []string) (string, error)

// Options is what the host consumes
type Options struct {
	IncludePaths []string
	Importer     Importer
	Functions    map[string]Function
	Engine       Engine
}
