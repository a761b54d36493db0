package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jakobo/eyeglass/pkg/assets"
	"github.com/Jakobo/eyeglass/pkg/sass"
)

const (
	// AssetScheme prefixes a single asset: "asset:[<ns>/]<path>"
	AssetScheme = "asset:"
	// ManifestURI imports the manifest of unnamespaced assets; "assets:<ns>"
	// imports the manifest of one namespace
	ManifestURI = "assets"
)

// AssetStage serves asset references and generated asset manifests
type AssetStage struct {
	registry *assets.Registry
	reader   *FileReader
}

// NewAssetStage creates the asset stage over registry
func NewAssetStage(registry *assets.Registry, reader *FileReader) *AssetStage {
	return &AssetStage{registry: registry, reader: reader}
}

// Name implements Stage
func (a *AssetStage) Name() string { return "asset" }

// TryResolve implements Stage. Requests it claims never reach later stages.
func (a *AssetStage) TryResolve(ctx context.Context, req *sass.Request, trail *Trail) (*sass.Result, error) {
	uri := req.URI
	switch {
	case uri == ManifestURI || strings.HasPrefix(uri, ManifestURI+":"):
		namespace := strings.TrimPrefix(strings.TrimPrefix(uri, ManifestURI), ":")
		manifest, err := a.registry.Manifest(namespace)
		if err != nil {
			return nil, fmt.Errorf("asset manifest %q: %w", namespace, err)
		}
		return &sass.Result{URI: uri, Contents: manifest}, nil

	case strings.HasPrefix(uri, AssetScheme):
		logical := strings.TrimPrefix(uri, AssetScheme)
		asset, err := a.registry.Resolve(logical)
		if err != nil {
			return nil, fmt.Errorf("asset %q: %w", logical, err)
		}
		res := &sass.Result{Path: asset.Path, URI: asset.URL}
		if req.Kind == sass.KindImport {
			if res.Contents, err = a.reader.Read(asset.Path); err != nil {
				return nil, err
			}
		}
		return res, nil

	default:
		return trail.Next(ctx)
	}
}
