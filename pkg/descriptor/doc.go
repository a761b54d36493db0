// Package descriptor reads the metadata an installed package declares about
// itself.
//
// A package directory is described by its package.json and, optionally, an
// eyeglass.yaml next to it. The YAML file describes packages that are not
// distributed through npm and overrides the "eyeglass" block of package.json
// when both exist:
//
//	name: widgets
//	version: 1.2.0
//	sassDir: sass
//	main: index
//	needs: ^1.0.0
//	dependencies:
//	  typography: ^2.0.0
//
// A package is a stylesheet module when its keywords contain
// "eyeglass-module" or when it carries eyeglass metadata.
package descriptor
