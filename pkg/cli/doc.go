// Package cli implements the eyeglass command-line interface.
//
// # Commands
//
// modules: print the module graph and its issues
//
//	eyeglass modules --root . --format yaml
//
// resolve: show where an import resolves
//
//	eyeglass resolve --from styles/main.scss theme/buttons
//	eyeglass resolve --url asset:theme/logo.png
//
// compile: compile entry stylesheets, concurrently
//
//	eyeglass compile --out dist styles/main.scss styles/print.scss
//
// watch: recompile an entry whenever a watched file changes
//
//	eyeglass watch --out dist styles/main.scss
//
// serve: run the development server
//
//	eyeglass serve --addr 127.0.0.1:8080
//
// Every command accepts --config (a YAML file, see pkg/config), --root,
// --include, --strict, --import-once, --log-level and --log-format.
// EYEGLASS_* environment variables apply between the file and the flags.
package cli
