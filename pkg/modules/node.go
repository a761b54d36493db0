package modules

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/Jakobo/eyeglass/pkg/descriptor"
	"github.com/Jakobo/eyeglass/pkg/semver"
)

// RootName is the logical name of a root directory without a descriptor
const RootName = "root"

// Requirement is one declared dependency of a module
type Requirement struct {
	Name  string `json:"name" yaml:"name"`
	Range string `json:"range" yaml:"range"`
}

// Node is one stylesheet module in the graph. Nodes are immutable once Build
// returns and may be shared by several dependents.
type Node struct {
	Name      string
	Package   string
	Dir       string
	Version   semver.Version
	SassDir   string
	Entry     string
	AssetsDir string
	Needs     string
	IsRoot    bool

	Requirements []Requirement

	deps map[string]*Node
}

func newNode(desc *descriptor.Descriptor, dir string) *Node {
	n := &Node{
		Name:      desc.ModuleName(),
		Package:   desc.Name,
		Dir:       dir,
		SassDir:   desc.StylesheetDir(),
		Entry:     desc.Entry(),
		AssetsDir: desc.AssetsDir(),
		Needs:     desc.Needs(),
		deps:      make(map[string]*Node),
	}
	if v, err := semver.ParseVersion(desc.Version); err == nil {
		n.Version = v
	}
	for _, name := range desc.DependencyNames() {
		n.Requirements = append(n.Requirements, Requirement{Name: name, Range: desc.Dependencies[name]})
	}
	return n
}

func newRootNode(dir string) *Node {
	return &Node{
		Name:    RootName,
		Dir:     dir,
		SassDir: dir,
		IsRoot:  true,
		deps:    make(map[string]*Node),
	}
}

// Dependency returns the node this module's dependency resolved to
func (n *Node) Dependency(name string) (*Node, bool) {
	dep, ok := n.deps[name]
	return dep, ok
}

// DependencyNames lists the logical names of linked dependencies
func (n *Node) DependencyNames() []string {
	names := make([]string, 0, len(n.deps))
	for name := range n.deps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Declares reports whether the module lists pkg among its dependencies
func (n *Node) Declares(name string) bool {
	if _, ok := n.deps[name]; ok {
		return true
	}
	for _, req := range n.Requirements {
		if req.Name == name {
			return true
		}
	}
	return false
}

// Contains reports whether path lies inside the module directory
func (n *Node) Contains(path string) bool {
	rel, err := filepath.Rel(n.Dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// VersionString is the declared version, or empty when absent or invalid
func (n *Node) VersionString() string {
	return n.Version.String()
}

func (n *Node) link(dep *Node) {
	n.deps[dep.Name] = dep
}
