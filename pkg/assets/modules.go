package assets

import (
	"os"

	"github.com/Jakobo/eyeglass/pkg/modules"
)

// AddModuleSources registers the assets directory of every module in graph
// as a source namespaced by the module name. Modules whose declared assets
// directory does not exist are skipped with a warning.
func (r *Registry) AddModuleSources(graph *modules.Graph, httpPrefix string) ([]*Source, error) {
	var added []*Source
	for _, node := range graph.Nodes() {
		if node.IsRoot || node.AssetsDir == "" {
			continue
		}
		info, err := os.Stat(node.AssetsDir)
		if err != nil || !info.IsDir() {
			r.log.Warnf("Module %s declares assets in %s but the directory does not exist", node.Name, node.AssetsDir)
			continue
		}
		src, err := r.AddSource(node.AssetsDir, SourceOptions{Name: node.Name, HTTPPrefix: httpPrefix})
		if err != nil {
			return added, err
		}
		added = append(added, src)
	}
	return added, nil
}
