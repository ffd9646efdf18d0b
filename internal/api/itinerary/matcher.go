package itinerary

import (
	"regexp"
	"sort"
	"strings"
)

// tagFilter is one parsed bracket group: key existence, exact value, or a
// value alternation.
type tagFilter struct {
	key    string
	values map[string]bool
}

func (f tagFilter) matches(tags map[string]string) bool {
	value, ok := tags[f.key]
	if !ok {
		return false
	}
	if f.values == nil {
		return true
	}
	return f.values[value]
}

// selectorRule is one selector string parsed into its filter groups. All
// groups must match for the rule to match.
type selectorRule struct {
	filters []tagFilter
}

func (r selectorRule) matches(tags map[string]string) bool {
	for _, f := range r.filters {
		if !f.matches(tags) {
			return false
		}
	}
	return len(r.filters) > 0
}

var filterGroupRe = regexp.MustCompile(`\[(\w+)(?:([=~])"?([^"\]]+)"?)?\]`)

func parseSelector(selector string) selectorRule {
	var rule selectorRule
	for _, m := range filterGroupRe.FindAllStringSubmatch(selector, -1) {
		filter := tagFilter{key: m[1]}
		switch m[2] {
		case "=":
			filter.values = map[string]bool{m[3]: true}
		case "~":
			filter.values = make(map[string]bool)
			for _, v := range strings.Split(m[3], "|") {
				filter.values[v] = true
			}
		}
		rule.filters = append(rule.filters, filter)
	}
	return rule
}

// preferenceRules holds the parsed form of preferenceSelectors.
var preferenceRules = func() map[string][]selectorRule {
	rules := make(map[string][]selectorRule, len(preferenceSelectors))
	for pref, selectors := range preferenceSelectors {
		for _, sel := range selectors {
			rules[pref] = append(rules[pref], parseSelector(sel))
		}
	}
	return rules
}()

// MatchedPreferences returns the user preferences whose selector rules match
// the given tags, in deterministic order.
func MatchedPreferences(tags map[string]string, userPrefs map[string]bool) []string {
	var matched []string
	for pref := range userPrefs {
		for _, rule := range preferenceRules[pref] {
			if rule.matches(tags) {
				matched = append(matched, pref)
				break
			}
		}
	}
	sort.Strings(matched)
	return matched
}

// SelectorsForPreferences collects the unique Overpass filter groups for a
// preference set, in deterministic order.
func SelectorsForPreferences(userPrefs map[string]bool) []string {
	seen := make(map[string]bool)
	var selectors []string
	for pref := range userPrefs {
		for _, sel := range preferenceSelectors[pref] {
			if !seen[sel] {
				seen[sel] = true
				selectors = append(selectors, sel)
			}
		}
	}
	sort.Strings(selectors)
	return selectors
}
