package importer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jakobo/eyeglass/pkg/assets"
	"github.com/Jakobo/eyeglass/pkg/sass"
)

func assetChain(t *testing.T) (*Chain, string) {
	t.Helper()
	dir := tempDir(t)
	writeFile(t, filepath.Join(dir, "img", "logo.png"), "png")
	writeFile(t, filepath.Join(dir, "fonts.css"), "@font-face{}")

	registry := assets.NewRegistry(nil)
	_, err := registry.AddSource(dir, assets.SourceOptions{Name: "brand", HTTPPrefix: "/static"})
	require.NoError(t, err)

	return NewChain(Options{}, NewAssetStage(registry, nil), NewFSStage([]string{dir}, nil)), dir
}

func TestAssetStage_URL(t *testing.T) {
	chain, dir := assetChain(t)

	req := from(sass.Stdin, "asset:brand/img/logo.png")
	req.Kind = sass.KindURL
	res, err := chain.Resolve(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "/static/brand/img/logo.png", res.URI)
	assert.Equal(t, filepath.Join(dir, "img", "logo.png"), res.Path)
	assert.Empty(t, res.Contents)
}

func TestAssetStage_ImportReadsContents(t *testing.T) {
	chain, _ := assetChain(t)

	res, err := chain.Resolve(context.Background(), from(sass.Stdin, "asset:brand/fonts.css"))
	require.NoError(t, err)
	assert.Equal(t, "@font-face{}", res.Contents)
}

func TestAssetStage_Manifest(t *testing.T) {
	chain, _ := assetChain(t)

	res, err := chain.Resolve(context.Background(), from(sass.Stdin, "assets:brand"))
	require.NoError(t, err)
	assert.Equal(t, "assets:brand", res.URI)
	assert.Contains(t, res.Contents, `"brand/img/logo.png": "/static/brand/img/logo.png"`)

	res, err = chain.Resolve(context.Background(), from(sass.Stdin, "assets"))
	require.NoError(t, err)
	assert.Contains(t, res.Contents, assets.ManifestVariable)
}

func TestAssetStage_FailuresAreTerminal(t *testing.T) {
	chain, _ := assetChain(t)

	_, err := chain.Resolve(context.Background(), from(sass.Stdin, "asset:brand/missing.png"))
	assert.ErrorIs(t, err, assets.ErrAssetNotFound)

	var resErr *ResolutionError
	assert.False(t, errors.As(err, &resErr))

	_, err = chain.Resolve(context.Background(), from(sass.Stdin, "asset:img/logo.png"))
	assert.ErrorIs(t, err, assets.ErrUnknownNamespace)
}
