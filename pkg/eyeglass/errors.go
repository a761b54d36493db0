package eyeglass

import "errors"

var (
	// ErrIncompatibleEngine is returned when the host engine version falls
	// outside EngineRange
	ErrIncompatibleEngine = errors.New("incompatible sass engine")

	// ErrExternalEngine is returned by Compile when the host brought its own
	// engine
	ErrExternalEngine = errors.New("compilation requires the bundled engine")
)
