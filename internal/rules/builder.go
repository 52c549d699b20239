// Package rules turns raw glossary rows into the ordered, compiled
// match rules the substitution engine applies. The builder preserves
// the descending-source-length order the store provides, so longer
// overlapping terms always win over shorter ones contained in them.
package rules

import (
	"context"
	"html"
	"regexp"
	"strconv"

	"github.com/glosslink/glosslink/internal/logging"
	"github.com/glosslink/glosslink/internal/store"
	"github.com/glosslink/glosslink/internal/types"
)

// markupGuard lists pattern alternatives that swallow markup produced
// by rules applied earlier in the same pass: full anchor and
// abbreviation spans, and any bare tag. The engine only substitutes
// when the term group matched, so these spans are never re-matched.
// Go's RE2 has no backtracking control, hence the alternation form;
// pre-existing markup in the source document is kept safe structurally
// by the scanner, which only yields plain text nodes.
const markupGuard = `<a\b[^>]*>.*?</a\s*>|<abbr\b[^>]*>.*?</abbr\s*>|<[^>]*>`

// PatternExpr builds the pattern source for one term. The term group
// is always group 1.
func PatternExpr(text string, exact, caseSensitive bool) string {
	lit := regexp.QuoteMeta(text)
	if exact {
		lit = `\b` + lit + `\b`
	}
	if !caseSensitive {
		lit = `(?i:` + lit + `)`
	}
	return `(?s)` + markupGuard + `|(` + lit + `)`
}

// Builder derives rule specs from raw term entries.
type Builder struct {
	resolver store.DocumentResolver
	logger   logging.Logger
}

// NewBuilder creates a builder using resolver for numeric link targets.
func NewBuilder(resolver store.DocumentResolver, logger logging.Logger) *Builder {
	return &Builder{
		resolver: resolver,
		logger:   logger.WithComponent("rule_builder"),
	}
}

// Build turns store rows into ordered rule specs. Input order is
// preserved; entries without a link or abbreviation are dropped, and
// entries whose text changes under entity encoding are duplicated so
// already-escaped occurrences match too.
func (b *Builder) Build(ctx context.Context, entries []types.TermEntry) []types.RuleSpec {
	expanded := expandEscapedVariants(entries)

	specs := make([]types.RuleSpec, 0, len(expanded))
	for _, e := range expanded {
		if !e.HasReplacement() {
			continue
		}
		specs = append(specs, b.buildSpec(ctx, e))
	}
	return specs
}

func (b *Builder) buildSpec(ctx context.Context, e types.TermEntry) types.RuleSpec {
	spec := types.RuleSpec{
		SourceText:  e.Text,
		PatternExpr: PatternExpr(e.Text, e.Exact, e.CaseSensitive),
		LinkKind:    types.LinkNone,
	}

	markup := e.Text
	if e.Abbr != "" {
		markup = `<abbr title="` + html.EscapeString(e.Abbr) + `">` + markup + `</abbr>`
	}

	if e.Link != "" {
		spec.RawLink = e.Link
		href := e.Link
		spec.LinkKind = types.LinkExternal
		spec.LinkTarget = e.Link

		if _, err := strconv.Atoi(e.Link); err == nil {
			if path, ok := b.resolver.ResolvePath(e.Link); ok {
				href = path
				spec.LinkKind = types.LinkInternal
				spec.LinkTarget = e.Link
			} else {
				b.logger.Debug(ctx, "numeric link did not resolve, treating as external",
					"term", e.Text, "link", e.Link)
			}
		}

		markup = `<a href="` + html.EscapeString(href) + `">` + markup + `</a>`
	}

	spec.Replacement = markup
	return spec
}

// expandEscapedVariants duplicates entries whose text differs after
// entity encoding, so content authored with escaped entities still
// matches. The duplicate follows its original, keeping the length
// ordering of distinct terms intact.
func expandEscapedVariants(entries []types.TermEntry) []types.TermEntry {
	out := make([]types.TermEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
		if escaped := html.EscapeString(e.Text); escaped != e.Text {
			dup := e
			dup.Text = escaped
			out = append(out, dup)
		}
	}
	return out
}

// Compile compiles specs into a registry, preserving order. A spec
// whose pattern does not compile is skipped and reported; one bad term
// never aborts the pass.
func Compile(specs []types.RuleSpec, logger logging.Logger) *types.Registry {
	reg := &types.Registry{Rules: make([]types.MatchRule, 0, len(specs))}
	for _, spec := range specs {
		re, err := regexp.Compile(spec.PatternExpr)
		if err != nil {
			logger.Warn(context.Background(), err, "skipping term with uncompilable pattern",
				"term", spec.SourceText)
			continue
		}
		reg.Rules = append(reg.Rules, types.MatchRule{RuleSpec: spec, Pattern: re})
	}
	return reg
}
