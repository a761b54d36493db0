package descriptor

import "errors"

var (
	// ErrNoDescriptor is returned when a directory has neither package.json nor eyeglass.yaml
	ErrNoDescriptor = errors.New("no package descriptor found")
)
