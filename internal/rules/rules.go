// Package rules implements the literal renaming rules used to rebrand a
// project tree.
//
// A Set is an ordered list of exact substring replacements. Order is part
// of the contract: rules are applied left to right and every rule sees the
// output of the rules before it. This lets a specific rule such as
// "alemira_url" run before the generic "alemira" rule would otherwise
// consume its prefix.
//
// Two sets exist for every brand:
//   - code rules rewrite paths and identifier-like tokens in file contents
//   - text rules rewrite human-readable product names in file contents
//
// They are kept apart because prose and code use different spellings of
// the same product ("Examus" vs "examus2").
package rules

import (
	"fmt"
	"strings"

	"github.com/mmr-tortoise/plugin-release/internal/model"
)

// Rule is a single literal replacement.
type Rule struct {
	// From is the exact substring to replace. Never empty.
	From string

	// To is the replacement text. May be empty.
	To string
}

// String returns "from -> to" for trace output.
func (r Rule) String() string {
	return fmt.Sprintf("%s -> %s", r.From, r.To)
}

// Set is an ordered list of rules. The zero value is an empty set that
// leaves every input unchanged.
type Set []Rule

// Apply runs every rule in order over s and returns the result.
// Each rule replaces all non-overlapping occurrences of From.
func (rs Set) Apply(s string) string {
	for _, r := range rs {
		if r.From == "" {
			continue
		}
		s = strings.ReplaceAll(s, r.From, r.To)
	}
	return s
}

// Empty reports whether the set contains no rules.
func (rs Set) Empty() bool {
	return len(rs) == 0
}

// Matches reports whether any rule in the set would change s.
func (rs Set) Matches(s string) bool {
	return rs.Apply(s) != s
}

// OldName is the product name the source tree is written with.
const OldName = "alemira"

// examus2Code rewrites identifiers, constants and path segments.
// Compound identifiers come first so they are not split by the
// generic lowercase rule at the end.
var examus2Code = Set{
	{From: "use_alemira", To: "use_examus"},
	{From: "alemira_url", To: "examus_url"},
	{From: "alemiraurl", To: "examusurl"},
	{From: "ALEMIRA", To: "EXAMUS2"},
	{From: "alemira", To: "examus2"},
}

// examus2Text rewrites the display name in prose. It runs after the code
// rules, so only occurrences the code rules left alone reach it.
var examus2Text = Set{
	{From: "Alemira", To: "Examus"},
	{From: "alemira", To: "Examus"},
}

// ForBrand returns the code and text rule sets for the given brand and
// whether path renaming is active. The default brand gets two empty sets
// and rename == false. The returned sets are copies; callers may modify them.
func ForBrand(b model.Brand) (code, text Set, rename bool) {
	switch b {
	case model.BrandExamus2:
		return clone(examus2Code), clone(examus2Text), true
	default:
		return Set{}, Set{}, false
	}
}

func clone(rs Set) Set {
	out := make(Set, len(rs))
	copy(out, rs)
	return out
}
