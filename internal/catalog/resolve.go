package catalog

import (
	"strings"
	"unicode/utf8"

	"misicuan-admin/internal/mission"
)

// Strategy is one named way of finding the package an order refers to.
type Strategy struct {
	Name  string
	Match func(target string, packages []mission.Package) (mission.Package, bool)
}

// Match is a resolved package and the strategy that found it.
type Match struct {
	Package  mission.Package `json:"package"`
	Strategy string          `json:"strategy"`
}

// DefaultStrategies are tried in order; the first hit wins.
var DefaultStrategies = []Strategy{
	{Name: "exact", Match: matchExact},
	{Name: "dashed_segment", Match: matchDashedSegment},
	{Name: "containment", Match: matchContainment},
}

// minContainedNameLength keeps short names like "IG" from matching everything.
const minContainedNameLength = 3

// ResolveIn runs strategies over packages for the order's package name.
func ResolveIn(packages []mission.Package, packageName string, strategies []Strategy) (Match, bool) {
	target := strings.ToLower(strings.TrimSpace(packageName))
	if target == "" {
		return Match{}, false
	}
	for _, s := range strategies {
		if p, ok := s.Match(target, packages); ok {
			return Match{Package: p, Strategy: s.Name}, true
		}
	}
	return Match{}, false
}

func matchExact(target string, packages []mission.Package) (mission.Package, bool) {
	for _, p := range packages {
		if strings.ToLower(strings.TrimSpace(p.Name)) == target {
			return p, true
		}
	}
	return mission.Package{}, false
}

// matchDashedSegment handles "Category - Name" order strings by comparing the
// second dash-separated segment.
func matchDashedSegment(target string, packages []mission.Package) (mission.Package, bool) {
	if !strings.Contains(target, "-") {
		return mission.Package{}, false
	}
	parts := strings.Split(target, "-")
	if len(parts) < 2 {
		return mission.Package{}, false
	}
	candidate := strings.TrimSpace(parts[1])
	if candidate == "" {
		return mission.Package{}, false
	}
	return matchExact(candidate, packages)
}

// matchContainment finds the first package whose name appears inside the
// order string.
func matchContainment(target string, packages []mission.Package) (mission.Package, bool) {
	for _, p := range packages {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if utf8.RuneCountInString(name) > minContainedNameLength && strings.Contains(target, name) {
			return p, true
		}
	}
	return mission.Package{}, false
}
