package timezones

import (
	"sort"
	"strings"
)

// Limits bound the number of search results.
type Limits struct {
	// Default applies when no limit is requested.
	Default int
	// Max caps any requested limit.
	Max int
	// ListOnEmpty returns the first zones for an empty query instead of none.
	ListOnEmpty bool
}

// DefaultLimits returns 50 results by default and at most 200.
func DefaultLimits() Limits {
	return Limits{Default: 50, Max: 200}
}

// Search returns the zones containing query, case-insensitively. Prefix
// matches rank first, then names in order.
func Search(zones []string, query string, limit int, limits Limits) []string {
	limit = limits.clamp(limit)
	if limit == 0 {
		return nil
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		if !limits.ListOnEmpty {
			return nil
		}
		if len(zones) > limit {
			zones = zones[:limit]
		}
		return append([]string(nil), zones...)
	}

	type match struct {
		name   string
		prefix bool
	}
	var matches []match
	for _, zone := range zones {
		lower := strings.ToLower(zone)
		if !strings.Contains(lower, query) {
			continue
		}
		// "copenhagen" is a prefix of the city part of Europe/Copenhagen.
		city := lower[strings.LastIndex(lower, "/")+1:]
		matches = append(matches, match{
			name:   zone,
			prefix: strings.HasPrefix(lower, query) || strings.HasPrefix(city, query),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].prefix != matches[j].prefix {
			return matches[i].prefix
		}
		return matches[i].name < matches[j].name
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}

func (l Limits) clamp(limit int) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = l.Default
	}
	if l.Max > 0 && limit > l.Max {
		return l.Max
	}
	return limit
}
