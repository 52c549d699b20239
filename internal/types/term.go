// Package types holds the core data records shared across the glossary
// engine: raw term entries as stored, compiled match rules, the ordered
// rule registry, and the page context describing the request being
// rendered. Keeping these as explicit typed records (rather than loose
// maps) makes the length-ordering and self-link-exclusion invariants
// checkable at compile time.
package types

import "regexp"

// LinkKind classifies where a rule's anchor points.
type LinkKind int

const (
	// LinkNone marks a rule with no anchor (abbreviation only).
	LinkNone LinkKind = iota
	// LinkInternal marks a rule whose link resolved to a known document.
	LinkInternal
	// LinkExternal marks a rule whose link is used verbatim.
	LinkExternal
)

// String returns the string representation of the link kind.
func (k LinkKind) String() string {
	switch k {
	case LinkNone:
		return "none"
	case LinkInternal:
		return "internal"
	case LinkExternal:
		return "external"
	default:
		return "unknown"
	}
}

// TermEntry is a raw glossary row as it comes out of the term store.
// Immutable once loaded for a given request.
type TermEntry struct {
	Text          string `yaml:"text" json:"text"`
	Link          string `yaml:"link,omitempty" json:"link,omitempty"`
	Abbr          string `yaml:"abbr,omitempty" json:"abbr,omitempty"`
	Exact         bool   `yaml:"exact,omitempty" json:"exact,omitempty"`
	CaseSensitive bool   `yaml:"case_sensitive,omitempty" json:"case_sensitive,omitempty"`
	Language      string `yaml:"language,omitempty" json:"language,omitempty"`
	Site          string `yaml:"site,omitempty" json:"site,omitempty"`
}

// HasReplacement reports whether the entry produces any visible markup.
// Entries with neither a link nor an abbreviation yield no rule.
func (e TermEntry) HasReplacement() bool {
	return e.Link != "" || e.Abbr != ""
}

// RuleSpec is the serializable portion of a match rule. Specs are what
// the shared cache store holds; patterns are compiled from PatternExpr
// on load.
type RuleSpec struct {
	// SourceText is the raw matched text the rule was derived from.
	SourceText string `json:"source_text"`
	// Replacement is the markup fragment substituted for a match.
	Replacement string `json:"replacement"`
	// PatternExpr is the compiled pattern in source form.
	PatternExpr string `json:"pattern_expr"`
	// LinkKind and LinkTarget classify the rule's anchor, if any.
	// For internal links LinkTarget is the resolved document id.
	LinkKind   LinkKind `json:"link_kind"`
	LinkTarget string   `json:"link_target,omitempty"`
	// RawLink is the link value as configured, kept for self-link
	// path comparison.
	RawLink string `json:"raw_link,omitempty"`
}

// MatchRule is a compiled, ready-to-apply substitution rule.
type MatchRule struct {
	RuleSpec
	Pattern *regexp.Regexp
}

// Registry is the ordered rule set for one (locale, site) key.
// Rules are ordered by descending length of their source text so that
// longer overlapping terms win; the registry is read-only once built.
type Registry struct {
	Rules []MatchRule
}

// Empty reports whether the registry holds no rules.
func (r *Registry) Empty() bool {
	return r == nil || len(r.Rules) == 0
}

// DocumentRef identifies the document currently being rendered.
type DocumentRef struct {
	ID       string
	FullPath string
}

// PageContext carries the request-scoped facts the engine needs:
// locale, request path, edit mode, the current document (if known),
// and the site the request belongs to.
type PageContext struct {
	Locale      string
	RequestPath string
	EditMode    bool
	Document    *DocumentRef
	IsSite      bool
	SiteID      string
}

// CacheSiteID returns the site id used in registry cache keys: empty
// when the request is not a site request.
func (p PageContext) CacheSiteID() string {
	if !p.IsSite {
		return ""
	}
	return p.SiteID
}
