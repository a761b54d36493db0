package semver

import (
	"fmt"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

// Version is a semantic version.
//
// This is a thin wrapper around github.com/Masterminds/semver/v3.
type Version struct {
	v *mm.Version
}

// Constraint is a semantic version range as written in a package descriptor.
//
// Examples:
// - ">=1.2.0 <2.0.0"
// - "^1.0.0"
// - "~1.4"
// - "*" or "" (anything)
type Constraint struct {
	raw string
	c   *mm.Constraints
}

func ParseVersion(raw string) (Version, error) {
	v, err := mm.NewVersion(strings.TrimSpace(raw))
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseConstraint parses a range. Ranges that npm accepts but that are not
// version ranges (file:, git+, http URLs, dist-tags like "latest") accept
// every version.
func ParseConstraint(raw string) (Constraint, error) {
	trimmed := strings.TrimSpace(raw)
	if isAnyRange(trimmed) {
		return Constraint{raw: trimmed}, nil
	}
	c, err := mm.NewConstraint(trimmed)
	if err != nil {
		return Constraint{}, fmt.Errorf("semver: parse constraint %q: %w", raw, err)
	}
	return Constraint{raw: trimmed, c: c}, nil
}

func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func isAnyRange(raw string) bool {
	switch raw {
	case "", "*", "x", "latest":
		return true
	}
	for _, prefix := range []string{"file:", "link:", "git+", "git:", "github:", "http:", "https:", "workspace:"} {
		if strings.HasPrefix(raw, prefix) {
			return true
		}
	}
	return false
}

// Any reports whether c accepts every version.
func (c Constraint) Any() bool {
	return c.c == nil
}

func (c Constraint) String() string {
	if c.raw == "" {
		return "*"
	}
	return c.raw
}

func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// IsZero reports whether v was never parsed.
func (v Version) IsZero() bool {
	return v.v == nil
}

// Satisfies reports whether v falls inside c. A range that accepts anything
// is satisfied even by a missing version.
func Satisfies(v Version, c Constraint) bool {
	if c.c == nil {
		return true
	}
	if v.v == nil {
		return false
	}
	return c.c.Check(v.v)
}

// Compare compares a and b, returning:
// -1 if a < b
//
//	0 if a == b
//	1 if a > b
func Compare(a, b Version) int {
	if a.v == nil && b.v == nil {
		return 0
	}
	if a.v == nil {
		return -1
	}
	if b.v == nil {
		return 1
	}
	return a.v.Compare(b.v)
}

// MaxSatisfying returns the highest version in candidates that satisfies c.
//
// If multiple versions are equal, the first encountered wins.
func MaxSatisfying(c Constraint, candidates []Version) (Version, bool) {
	var best Version
	found := false
	for _, candidate := range candidates {
		if candidate.v == nil || !Satisfies(candidate, c) {
			continue
		}
		if !found || Compare(candidate, best) > 0 {
			best = candidate
			found = true
		}
	}
	return best, found
}
