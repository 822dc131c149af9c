package cern

import (
	"fmt"
	"regexp"
)

// GroupFilter removes hidden groups from a provider group list.
type GroupFilter struct {
	hidden   map[string]struct{}
	patterns []*regexp.Regexp
}

// NewGroupFilter compiles the deny lists. Patterns match from the start of the group name.
func NewGroupFilter(hidden, patterns []string) (*GroupFilter, error) {
	f := &GroupFilter{
		hidden:   make(map[string]struct{}, len(hidden)),
		patterns: make([]*regexp.Regexp, 0, len(patterns)),
	}

	for _, g := range hidden {
		f.hidden[g] = struct{}{}
	}

	for _, p := range patterns {
		re, err := regexp.Compile(`^(?:` + p + `)`)
		if err != nil {
			return nil, fmt.Errorf("invalid hidden group pattern %q: %w", p, err)
		}

		f.patterns = append(f.patterns, re)
	}

	return f, nil
}

// Filter returns the visible groups in input order.
func (f *GroupFilter) Filter(groups []string) []string {
	return FilterGroups(groups, f.hidden, f.patterns)
}

// FilterGroups drops groups listed in hidden and groups matched by any of the
// anchored patterns. The result is never nil.
func FilterGroups(groups []string, hidden map[string]struct{}, patterns []*regexp.Regexp) []string {
	out := make([]string, 0, len(groups))

next:
	for _, g := range groups {
		if _, ok := hidden[g]; ok {
			continue
		}

		for _, re := range patterns {
			if loc := re.FindStringIndex(g); loc != nil && loc[0] == 0 {
				continue next
			}
		}

		out = append(out, g)
	}

	return out
}
