package importer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Jakobo/eyeglass/pkg/sass"
)

// FSStage resolves imports against the filesystem: relative to the
// importing file first, then each include path in order
type FSStage struct {
	includePaths []string
	reader       *FileReader
}

// NewFSStage creates the filesystem stage
func NewFSStage(includePaths []string, reader *FileReader) *FSStage {
	abs := make([]string, 0, len(includePaths))
	for _, p := range includePaths {
		if a, err := filepath.Abs(p); err == nil {
			abs = append(abs, a)
		}
	}
	return &FSStage{includePaths: abs, reader: reader}
}

// Name implements Stage
func (f *FSStage) Name() string { return "fs" }

// TryResolve implements Stage
func (f *FSStage) TryResolve(ctx context.Context, req *sass.Request, trail *Trail) (*sass.Result, error) {
	uri := req.URI
	if strings.Contains(uri, ":") && !filepath.IsAbs(uri) {
		return trail.Next(ctx)
	}

	var targets []string
	if filepath.IsAbs(uri) {
		targets = []string{filepath.Clean(uri)}
	} else {
		rel := filepath.FromSlash(uri)
		if req.Prev != "" && req.Prev != sass.Stdin {
			targets = append(targets, filepath.Join(filepath.Dir(req.Prev), rel))
		}
		for _, dir := range f.includePaths {
			targets = append(targets, filepath.Join(dir, rel))
		}
	}

	for _, target := range targets {
		file, err := findStylesheet(target)
		if err != nil {
			return nil, err
		}
		if file == "" {
			continue
		}
		res := &sass.Result{Path: file, URI: req.URI}
		if req.Kind == sass.KindImport {
			if res.Contents, err = f.reader.Read(file); err != nil {
				return nil, err
			}
		}
		return res, nil
	}

	if len(targets) == 0 {
		trail.Note(fmt.Errorf("%w: %q has no importing file or include path to resolve against", ErrFileNotFound, uri))
	} else {
		trail.Note(fmt.Errorf("%w: %q (tried %s)", ErrFileNotFound, uri, strings.Join(targets, ", ")))
	}
	return trail.Next(ctx)
}
