package social

import "strings"

// KeywordRule routes free text containing any of Terms to Account.
type KeywordRule struct {
	Account string   `yaml:"account"`
	Terms   []string `yaml:"terms"`
}

// RoutingConfig is the layered rule set consulted by the router:
// explicit category map, explicit tag map, then keyword rules in
// priority order, falling back to Default.
type RoutingConfig struct {
	Default    string            `yaml:"default"`
	ByCategory map[string]string `yaml:"by_category"`
	ByTag      map[string]string `yaml:"by_tag"`
	Keywords   []KeywordRule     `yaml:"keywords"`
}

// DefaultRouting returns the built-in rule tables: US/UK geography
// keyword sets and the us/uk/general tag shortcuts.
func DefaultRouting() RoutingConfig {
	return RoutingConfig{
		Default: "x-main",
		ByTag: map[string]string{
			"us":      "x-us",
			"uk":      "x-uk",
			"general": "x-main",
		},
		Keywords: []KeywordRule{
			{Account: "x-us", Terms: []string{"united states", "u.s.", " us ", "america"}},
			{Account: "x-uk", Terms: []string{"united kingdom", "u.k.", " uk ", "britain"}},
		},
	}
}

// Router picks a destination account for a piece of content. It is a
// pure function of its inputs and the static rule tables; it never
// performs I/O and never fails.
type Router struct {
	rules RoutingConfig
}

// NewRouter builds a router over the given rule tables.
func NewRouter(rules RoutingConfig) *Router {
	return &Router{rules: rules}
}

// Route returns the account name for the given text. Rules are evaluated
// short-circuit: category mapping, then tags in caller order, then
// case-insensitive keyword matching, then the default account.
func (r *Router) Route(text string, tags []string, category string) string {
	if category != "" {
		if account, ok := r.rules.ByCategory[category]; ok {
			return account
		}
	}

	for _, tag := range tags {
		if account, ok := r.rules.ByTag[tag]; ok {
			return account
		}
	}

	lower := strings.ToLower(text)
	for _, rule := range r.rules.Keywords {
		for _, term := range rule.Terms {
			if strings.Contains(lower, term) {
				return rule.Account
			}
		}
	}

	return r.rules.Default
}
