package eyeglass

import "github.com/Jakobo/eyeglass/pkg/sass"

// EnableImportOnce reports whether each stylesheet is inlined at most once
//
// Deprecated: read Options().EnableImportOnce.
func (e *Eyeglass) EnableImportOnce() bool {
	e.deprecator.Deprecate("0.8.0", "0.9.0",
		"The property `enableImportOnce` should no longer be accessed directly on eyeglass. "+
			"Instead, you'll find the value on `Options().EnableImportOnce`")
	return e.opts.EnableImportOnce
}

// SetEnableImportOnce changes import-once behavior
//
// Deprecated: set config.Options.EnableImportOnce before calling New.
func (e *Eyeglass) SetEnableImportOnce(v bool) {
	e.deprecator.Deprecate("0.8.0", "0.9.0",
		"The property `enableImportOnce` should no longer be set directly on eyeglass. "+
			"Instead, set `enableImportOnce` in the eyeglass options")
	e.opts.EnableImportOnce = v
	if e.bundler != nil {
		e.bundler.EnableImportOnce = v
	}
}

// SassOptions returns the decorated host options
//
// Deprecated: use Host.
func (e *Eyeglass) SassOptions() *sass.Options {
	e.deprecator.Deprecate("0.8.0", "0.9.0",
		"SassOptions() is deprecated. Instead, you should access the sass options on Host()")
	return e.host
}
