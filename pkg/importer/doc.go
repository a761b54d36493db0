// Package importer resolves the imports a host compiler encounters.
//
// Resolution runs through an ordered list of stages. Each stage either
// produces a result, fails the request, or hands it to the next stage
// through the Trail it was given. eyeglass installs, in order:
//
//	module  <module>[/<path>] against the module graph
//	asset   asset:[<ns>/]<path>, assets and assets:<ns>
//	fs      paths relative to the importing file, then include paths
//	user    the importer the host was configured with
//
// When every stage declines, the request fails with a ResolutionError that
// carries the note each stage left behind.
package importer
