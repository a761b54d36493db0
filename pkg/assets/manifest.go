package assets

import (
	"fmt"
	"strconv"
	"strings"
)

// ManifestVariable is the Sass map generated manifests merge into
const ManifestVariable = "$eyeglass-assets"

// Manifest renders the assets of a namespace as a stylesheet that merges
// each logical path and its URL into ManifestVariable.
func (r *Registry) Manifest(namespace string) (string, error) {
	list, err := r.List(namespace)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if namespace == "" {
		b.WriteString("// assets registered without a namespace\n")
	} else {
		fmt.Fprintf(&b, "// assets registered by %s\n", namespace)
	}
	fmt.Fprintf(&b, "%s: () !default;\n", ManifestVariable)
	fmt.Fprintf(&b, "%s: map-merge(%s, (\n", ManifestVariable, ManifestVariable)
	for _, asset := range list {
		fmt.Fprintf(&b, "  %s: %s,\n", strconv.Quote(asset.Logical), strconv.Quote(asset.URL))
	}
	b.WriteString(")) !global;\n")
	return b.String(), nil
}
