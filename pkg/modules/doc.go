// Package modules builds the graph of stylesheet modules installed beneath a
// project root.
//
// # Overview
//
// Starting from the root package's declared dependencies, Build walks the
// installed packages breadth first using node_modules resolution rules. Every
// package that declares itself a stylesheet module becomes one Node, keyed by
// its logical name, and is linked to the nodes its own dependencies resolve
// to.
//
// Structural problems never abort the build. They are collected in Issues:
//
//   - Dependencies.Missing: a declared dependency that is not installed
//   - Dependencies.Versions: an installed module outside the declared range
//   - Collisions: two locations claiming one logical name (first discovered wins)
//   - Engine.Incompatible: a module whose "needs" range excludes this eyeglass
//
// Cycles are valid. A dependency that points back at a module already in the
// graph is linked without being visited again.
//
// # Global module cache
//
// With UseGlobalCache the descriptors read for a location are kept in the
// process wide SharedCache and reused by every later build. Concurrent first
// reads of one location are collapsed into a single read.
//
// # Usage Example
//
//	graph, err := modules.Build(ctx, modules.BuildOptions{Root: "."})
//	if err != nil {
//		return err
//	}
//	for _, warning := range graph.Issues.Warnings() {
//		log.Warn(warning)
//	}
//	node := graph.Find("widgets")
package modules
