package blockstate

import (
	"sort"
	"strings"
)

// ConnectPrefix marks condition keys that are answered by looking at a
// neighbouring block instead of the block's own properties.
const ConnectPrefix = "miex_connect"

// Clause is one AND group: property name to expected value text.
type Clause map[string]string

// Predicate is an OR over clauses. A predicate with no clauses always
// holds; so does any clause with no entries.
type Predicate []Clause

// ParseCondition parses a variant key such as
//
//	facing=north,half=top||facing=south
//
// Clauses are separated by "||", pairs by "," and key from value by "=".
// Tokens without "=" are dropped. The second result reports whether any key
// starts with ConnectPrefix.
func ParseCondition(s string) (Predicate, bool) {
	var (
		pred    Predicate
		connect bool
	)
	for _, group := range splitClauses(s) {
		c := Clause{}
		for _, tok := range strings.Split(group, ",") {
			if !strings.Contains(tok, "=") {
				continue
			}
			kv := strings.Split(tok, "=")
			key, value := kv[0], kv[1]
			if strings.HasPrefix(key, ConnectPrefix) {
				connect = true
			}
			c[key] = value
		}
		pred = append(pred, c)
	}
	return pred, connect
}

// splitClauses splits on "||" and drops trailing empty groups, so "a=b||"
// is one clause rather than a clause plus an always-true empty one. The
// empty string is a single empty group.
func splitClauses(s string) []string {
	if s == "" {
		return []string{""}
	}
	parts := strings.Split(s, "||")
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// String renders the predicate back into condition syntax with sorted keys.
func (p Predicate) String() string {
	groups := make([]string, 0, len(p))
	for _, c := range p {
		groups = append(groups, c.String())
	}
	return strings.Join(groups, "||")
}

func (c Clause) String() string {
	keys := c.keys()
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+c[k])
	}
	return strings.Join(pairs, ",")
}

func (c Clause) keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// connectKeys returns the clause's neighbour keys in sorted order.
func (c Clause) connectKeys() []string {
	var out []string
	for _, k := range c.keys() {
		if strings.HasPrefix(k, ConnectPrefix) {
			out = append(out, k)
		}
	}
	return out
}

// valuesMatch compares condition text against a property's text. Boolean
// words and their integer spellings are interchangeable.
func valuesMatch(want, got string) bool {
	if want == got {
		return true
	}
	switch {
	case want == "false" && got == "0", want == "0" && got == "false":
		return true
	case want == "true" && got == "1", want == "1" && got == "true":
		return true
	}
	return false
}
