// Package engine implements the glossary substitution engine: it loads
// the rule registry for the page's locale and site through the
// two-tier cache, drops rules that would link the page to itself,
// walks the parsed document's eligible text nodes, and rewrites term
// occurrences into anchor and abbreviation markup.
//
// Process never fails toward the caller: anything that goes wrong
// (unresolved locale, empty registry, unparseable content, a
// replacement fragment that will not parse) degrades to passing the
// affected content through unchanged.
package engine

import (
	"context"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/glosslink/glosslink/internal/cache"
	"github.com/glosslink/glosslink/internal/logging"
	"github.com/glosslink/glosslink/internal/rules"
	"github.com/glosslink/glosslink/internal/scanner"
	"github.com/glosslink/glosslink/internal/store"
	"github.com/glosslink/glosslink/internal/types"
)

// Options control a single Process call.
type Options struct {
	// Limit caps total replacements per rule across the whole
	// document; negative means unlimited.
	Limit int
}

// DefaultOptions returns the default processing options.
func DefaultOptions() Options {
	return Options{Limit: -1}
}

// Config holds engine construction settings.
type Config struct {
	// BlockedTags overrides the scanner's blocked-tag set; empty keeps
	// the default.
	BlockedTags []string
	// CacheTTL bounds shared-store registry entries.
	CacheTTL time.Duration
}

// Engine is the glossary processor. Safe for concurrent use across
// independent requests: the registry is read-only once built and all
// per-call state is local to Process.
type Engine struct {
	terms    store.TermStore
	builder  *rules.Builder
	registry *cache.RegistryCache
	scanner  *scanner.Scanner
	logger   logging.Logger
}

// New creates an engine over the given collaborators. A nil shared
// store gets an in-memory one; a nil logger gets the default.
func New(terms store.TermStore, resolver store.DocumentResolver, shared cache.Store, cfg Config, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewLogger(nil)
	}
	if shared == nil {
		shared = cache.NewMemoryStore(4 << 20)
	}
	if resolver == nil {
		resolver = store.StaticResolver{}
	}
	ttl := cfg.CacheTTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}

	e := &Engine{
		terms:   terms,
		builder: rules.NewBuilder(resolver, logger),
		scanner: scanner.New(cfg.BlockedTags),
		logger:  logger.WithComponent("glossary_engine"),
	}

	compile := func(specs []types.RuleSpec) *types.Registry {
		return rules.Compile(specs, e.logger)
	}
	e.registry = cache.NewRegistryCache(shared, ttl, compile, logger)

	return e
}

// Registry returns the compiled registry for the page's locale/site,
// building and caching it on demand. An unresolved locale or a failing
// store yields an empty registry, never an error.
func (e *Engine) Registry(ctx context.Context, page types.PageContext) *types.Registry {
	if page.Locale == "" {
		return &types.Registry{}
	}

	siteID := page.CacheSiteID()
	key := cache.Key(page.Locale, siteID)

	reg, err := e.registry.Get(ctx, key, func(ctx context.Context) ([]types.RuleSpec, error) {
		entries, err := e.terms.Query(ctx, page.Locale, siteID)
		if err != nil {
			return nil, err
		}
		return e.builder.Build(ctx, entries), nil
	})
	if err != nil {
		e.logger.Warn(ctx, err, "glossary registry unavailable, passing content through",
			"locale", page.Locale, "site", siteID)
		return &types.Registry{}
	}
	return reg
}

// InvalidateRegistry drops all cached registries. Called when glossary
// definitions change.
func (e *Engine) InvalidateRegistry() {
	e.registry.Clear()
}

// Process rewrites plain-text occurrences of registered terms in
// content into their replacement markup and returns the result. The
// worst case is the original content, unchanged.
func (e *Engine) Process(ctx context.Context, content string, page types.PageContext, opts Options) string {
	if page.EditMode {
		return content
	}

	reg := e.Registry(ctx, page)
	if reg.Empty() {
		return content
	}

	effective := effectiveRules(reg, page)
	if len(effective) == 0 {
		return content
	}

	doc, isFragment, err := parseDocument(content)
	if err != nil {
		e.logger.Warn(ctx, err, "content did not parse, passing through")
		return content
	}

	e.substitute(ctx, doc, effective, opts.Limit)

	out, err := renderDocument(doc, isFragment)
	if err != nil {
		e.logger.Warn(ctx, err, "processed document did not render, passing original through")
		return content
	}
	return out
}

// effectiveRules drops every rule whose target is the page currently
// being rendered, so a page never links to itself.
func effectiveRules(reg *types.Registry, page types.PageContext) []types.MatchRule {
	var docPath string
	if page.Document != nil {
		docPath = strings.TrimRight(page.Document.FullPath, "/ ")
	}

	out := make([]types.MatchRule, 0, len(reg.Rules))
	for _, r := range reg.Rules {
		if page.Document != nil && r.LinkKind == types.LinkInternal && r.LinkTarget == page.Document.ID {
			continue
		}
		if r.RawLink != "" {
			if docPath != "" && docPath == r.RawLink {
				continue
			}
			if page.RequestPath != "" && page.RequestPath == r.RawLink {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// substitute applies the effective rules to every eligible text node.
// Budgets are tracked per rule across the whole document, not per node.
func (e *Engine) substitute(ctx context.Context, doc *html.Node, effective []types.MatchRule, limit int) {
	var budgets []int
	if limit >= 0 {
		budgets = make([]int, len(effective))
		for i := range budgets {
			budgets[i] = limit
		}
	}

	for _, node := range e.scanner.Eligible(doc) {
		original := node.Data
		text := original

		for i, rule := range effective {
			max := -1
			if budgets != nil {
				if budgets[i] == 0 {
					continue
				}
				max = budgets[i]
			}

			replaced, n := applyRule(rule, text, max)
			if n == 0 {
				continue
			}
			text = replaced
			if budgets != nil {
				budgets[i] -= n
			}
		}

		if text == original {
			continue
		}
		if err := spliceFragment(node, text); err != nil {
			e.logger.Warn(ctx, err, "replacement fragment did not parse, leaving node unchanged")
		}
	}
}

// applyRule replaces up to max matches of the rule's term group in
// text (max < 0 means all) and reports how many it made. Matches of
// the guard alternatives (markup produced by earlier rules) pass
// through untouched.
func applyRule(rule types.MatchRule, text string, max int) (string, int) {
	matches := rule.Pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, 0
	}

	var b strings.Builder
	last, count := 0, 0
	for _, m := range matches {
		if m[2] < 0 {
			continue
		}
		if max >= 0 && count >= max {
			break
		}
		b.WriteString(text[last:m[2]])
		b.WriteString(rule.Replacement)
		last = m[3]
		count++
	}
	if count == 0 {
		return text, 0
	}
	b.WriteString(text[last:])
	return b.String(), count
}
