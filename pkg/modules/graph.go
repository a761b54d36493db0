package modules

// Graph is the resolved set of stylesheet modules for one root. It is
// immutable after Build and safe for concurrent readers.
type Graph struct {
	Root   *Node
	Issues Issues

	nodes map[string]*Node
	order []string
}

func newGraph(root *Node) *Graph {
	g := &Graph{
		Root:  root,
		nodes: make(map[string]*Node),
	}
	g.register(root)
	return g
}

func (g *Graph) register(n *Node) {
	g.nodes[n.Name] = n
	g.order = append(g.order, n.Name)
}

// Find looks up a module by logical name
func (g *Graph) Find(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Names lists module names in discovery order, root first
func (g *Graph) Names() []string {
	names := make([]string, len(g.order))
	copy(names, g.order)
	return names
}

// Nodes lists modules in discovery order, root first
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, name := range g.order {
		nodes = append(nodes, g.nodes[name])
	}
	return nodes
}

// Len is the number of nodes including the root
func (g *Graph) Len() int {
	return len(g.order)
}

// Owner returns the module whose directory contains path. Nested module
// directories (node_modules below another module) win over their parents.
func (g *Graph) Owner(path string) (*Node, bool) {
	var best *Node
	for _, name := range g.order {
		n := g.nodes[name]
		if !n.Contains(path) {
			continue
		}
		if best == nil || len(n.Dir) > len(best.Dir) {
			best = n
		}
	}
	return best, best != nil
}

// IsMissing reports whether name was declared by some module but never found
func (g *Graph) IsMissing(name string) bool {
	for _, m := range g.Issues.Dependencies.Missing {
		if m.Name == name {
			return true
		}
	}
	return false
}
