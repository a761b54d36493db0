package sass

import "errors"

var (
	// ErrNotHandled is returned by an importer that declines a request
	ErrNotHandled = errors.New("import not handled")

	// ErrImportCycle is returned when a stylesheet imports itself through a chain
	ErrImportCycle = errors.New("import cycle")

	// ErrNoImporter is returned when a stylesheet imports something and no importer is configured
	ErrNoImporter = errors.New("no importer configured")
)
