package assets

import "errors"

var (
	// ErrNoSources is returned when a lookup happens before any source is registered
	ErrNoSources = errors.New("no asset sources registered")

	// ErrUnknownNamespace is returned when a path names no source and no default source exists
	ErrUnknownNamespace = errors.New("unknown asset namespace")

	// ErrAssetNotFound is returned when no source contains the requested path
	ErrAssetNotFound = errors.New("asset not found")

	// ErrInvalidAssetPath is returned for empty paths or paths escaping their source
	ErrInvalidAssetPath = errors.New("invalid asset path")

	// ErrInvalidSource is returned when a source directory cannot be registered
	ErrInvalidSource = errors.New("invalid asset source")
)
