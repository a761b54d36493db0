package modules

import "errors"

var (
	// ErrRootNotFound is returned when the root directory cannot be read
	ErrRootNotFound = errors.New("root directory not found")

	// ErrRootNotDirectory is returned when the root path is a file
	ErrRootNotDirectory = errors.New("root is not a directory")
)
