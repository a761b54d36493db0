package modules

import "fmt"

// MissingDependency is a declared dependency that could not be located
type MissingDependency struct {
	Name       string `json:"name" yaml:"name"`
	Range      string `json:"range" yaml:"range"`
	RequiredBy string `json:"required_by" yaml:"required_by"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// VersionMismatch is a linked dependency whose version falls outside the
// range its dependent declared
type VersionMismatch struct {
	Name       string `json:"name" yaml:"name"`
	Version    string `json:"version" yaml:"version"`
	Range      string `json:"range" yaml:"range"`
	RequiredBy string `json:"required_by" yaml:"required_by"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Collision is a second location claiming an already registered module name
type Collision struct {
	Name      string `json:"name" yaml:"name"`
	Winner    string `json:"winner" yaml:"winner"`
	Ignored   string `json:"ignored" yaml:"ignored"`
	ClaimedBy string `json:"claimed_by" yaml:"claimed_by"`
}

// EngineMismatch is a module that does not support the running eyeglass
type EngineMismatch struct {
	Name     string `json:"name" yaml:"name"`
	Needs    string `json:"needs" yaml:"needs"`
	Eyeglass string `json:"eyeglass" yaml:"eyeglass"`
}

// Issues collects every structural problem found while building a graph.
// Entries are appended in traversal order.
type Issues struct {
	Dependencies struct {
		Missing  []MissingDependency `json:"missing" yaml:"missing"`
		Versions []VersionMismatch   `json:"versions" yaml:"versions"`
	} `json:"dependencies" yaml:"dependencies"`
	Collisions []Collision `json:"collisions" yaml:"collisions"`
	Engine     struct {
		Incompatible []EngineMismatch `json:"incompatible" yaml:"incompatible"`
	} `json:"engine" yaml:"engine"`
}

// Empty reports whether no issue was recorded
func (i *Issues) Empty() bool {
	return len(i.Dependencies.Missing) == 0 &&
		len(i.Dependencies.Versions) == 0 &&
		len(i.Collisions) == 0 &&
		len(i.Engine.Incompatible) == 0
}

// MissingNames returns each missing dependency name once, in discovery order
func (i *Issues) MissingNames() []string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(i.Dependencies.Missing))
	for _, m := range i.Dependencies.Missing {
		if seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		names = append(names, m.Name)
	}
	return names
}

// Warnings renders version, collision and engine issues as one line each.
// Missing dependencies are reported separately as a block.
func (i *Issues) Warnings() []string {
	var warnings []string
	for _, v := range i.Dependencies.Versions {
		if v.Reason != "" {
			warnings = append(warnings, fmt.Sprintf("%s requires %s@%q: %s", v.RequiredBy, v.Name, v.Range, v.Reason))
			continue
		}
		warnings = append(warnings, fmt.Sprintf("%s requires %s@%s but version %s was found", v.RequiredBy, v.Name, v.Range, displayVersion(v.Version)))
	}
	for _, c := range i.Collisions {
		warnings = append(warnings, fmt.Sprintf("module %q is provided by both %s and %s; using %s", c.Name, c.Winner, c.Ignored, c.Winner))
	}
	for _, e := range i.Engine.Incompatible {
		warnings = append(warnings, fmt.Sprintf("module %s needs eyeglass %s but this is eyeglass %s", e.Name, e.Needs, e.Eyeglass))
	}
	return warnings
}

func displayVersion(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}
