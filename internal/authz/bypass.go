package authz

import (
	"fmt"
	"strings"
)

// BypassTable maps coarse identity classifiers to route-path prefixes those
// identities may access without any catalog lookup. It is built once at
// startup and never mutated, so it is safe for concurrent reads.
type BypassTable struct {
	rules map[string][]string
}

// NewBypassTable copies the given rules into an immutable table.
func NewBypassTable(rules map[string][]string) BypassTable {
	copied := make(map[string][]string, len(rules))
	for classifier, prefixes := range rules {
		classifier = strings.TrimSpace(classifier)
		if classifier == "" {
			continue
		}
		kept := make([]string, 0, len(prefixes))
		for _, prefix := range prefixes {
			prefix = strings.TrimSpace(prefix)
			if prefix == "" || !strings.HasPrefix(prefix, "/") {
				continue
			}
			kept = append(kept, prefix)
		}
		if len(kept) > 0 {
			copied[classifier] = kept
		}
	}
	return BypassTable{rules: copied}
}

// DefaultBypassTable carries the rules the application ships with. The
// SYSTEM_ADMIN entry is what lets the first administrator reach the admin API
// while the catalog is still empty.
func DefaultBypassTable() BypassTable {
	return NewBypassTable(map[string][]string{
		"SYSTEM_ADMIN": {"/"},
		"REGIONAL_AM":  {"/dashboard", "/reports"},
	})
}

// Allows reports whether the classifier may access the route. Matching is by
// path prefix on segment boundaries; actions play no part at this layer.
func (t BypassTable) Allows(classifier, route string) bool {
	prefixes, ok := t.rules[classifier]
	if !ok {
		return false
	}
	for _, prefix := range prefixes {
		if routeHasPrefix(route, prefix) {
			return true
		}
	}
	return false
}

// Classifiers returns the classifier values the table knows about.
func (t BypassTable) Classifiers() []string {
	out := make([]string, 0, len(t.rules))
	for classifier := range t.rules {
		out = append(out, classifier)
	}
	return out
}

// routeHasPrefix matches on whole path segments so that "/dash" does not
// claim "/dashboard".
func routeHasPrefix(route, prefix string) bool {
	if prefix == "/" {
		return strings.HasPrefix(route, "/")
	}
	prefix = strings.TrimSuffix(prefix, "/")
	return route == prefix || strings.HasPrefix(route, prefix+"/")
}

// ParseBypassRules parses the BYPASS_RULES environment value, e.g.
// "REGIONAL_AM:/dashboard|/reports,AUDITOR:/reports". An empty value yields
// an empty rule set.
func ParseBypassRules(raw string) (map[string][]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string][]string{}, nil
	}
	rules := make(map[string][]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		classifier, paths, ok := strings.Cut(entry, ":")
		if !ok {
			return nil, fmt.Errorf("authz: malformed bypass rule %q", entry)
		}
		classifier = strings.TrimSpace(classifier)
		if classifier == "" {
			return nil, fmt.Errorf("authz: bypass rule %q has empty classifier", entry)
		}
		for _, prefix := range strings.Split(paths, "|") {
			prefix = strings.TrimSpace(prefix)
			if prefix == "" {
				continue
			}
			if !strings.HasPrefix(prefix, "/") {
				return nil, fmt.Errorf("authz: bypass prefix %q must start with /", prefix)
			}
			rules[classifier] = append(rules[classifier], prefix)
		}
	}
	return rules, nil
}
