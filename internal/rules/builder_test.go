package rules

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glosslink/glosslink/internal/logging"
	"github.com/glosslink/glosslink/internal/store"
	"github.com/glosslink/glosslink/internal/types"
)

func newTestBuilder(resolver store.DocumentResolver) *Builder {
	if resolver == nil {
		resolver = store.StaticResolver{}
	}
	return NewBuilder(resolver, logging.NewTestLogger())
}

func TestBuildDropsEntriesWithoutReplacement(t *testing.T) {
	b := newTestBuilder(nil)

	specs := b.Build(context.Background(), []types.TermEntry{
		{Text: "plain highlight"},
		{Text: "linked", Link: "https://example.com"},
	})

	require.Len(t, specs, 1)
	assert.Equal(t, "linked", specs[0].SourceText)
}

func TestBuildPreservesOrder(t *testing.T) {
	b := newTestBuilder(nil)

	specs := b.Build(context.Background(), []types.TermEntry{
		{Text: "Donec vitae", Link: "https://example.com/long"},
		{Text: "Donec", Link: "https://example.com/short"},
	})

	require.Len(t, specs, 2)
	assert.Equal(t, "Donec vitae", specs[0].SourceText)
	assert.Equal(t, "Donec", specs[1].SourceText)
}

func TestBuildEscapedVariantDuplication(t *testing.T) {
	b := newTestBuilder(nil)

	specs := b.Build(context.Background(), []types.TermEntry{
		{Text: "AT&T", Link: "https://att.example.com"},
	})

	require.Len(t, specs, 2)
	assert.Equal(t, "AT&T", specs[0].SourceText)
	assert.Equal(t, "AT&amp;T", specs[1].SourceText, "escaped duplicate follows the original")
	assert.Contains(t, specs[1].Replacement, "AT&amp;T")
}

func TestBuildAbbreviationMarkup(t *testing.T) {
	b := newTestBuilder(nil)

	specs := b.Build(context.Background(), []types.TermEntry{
		{Text: "HyperText Markup Language", Abbr: "HTML"},
	})

	require.Len(t, specs, 1)
	assert.Equal(t, `<abbr title="HTML">HyperText Markup Language</abbr>`, specs[0].Replacement)
	assert.Equal(t, types.LinkNone, specs[0].LinkKind)
	assert.Empty(t, specs[0].RawLink)
}

func TestBuildLinkWrapsAbbreviation(t *testing.T) {
	b := newTestBuilder(nil)

	specs := b.Build(context.Background(), []types.TermEntry{
		{Text: "HyperText Markup Language", Abbr: "HTML", Link: "https://example.com/html"},
	})

	require.Len(t, specs, 1)
	assert.Equal(t,
		`<a href="https://example.com/html"><abbr title="HTML">HyperText Markup Language</abbr></a>`,
		specs[0].Replacement)
	assert.Equal(t, types.LinkExternal, specs[0].LinkKind)
}

func TestBuildInternalLinkResolution(t *testing.T) {
	resolver := store.StaticResolver{"12": "/docs/donec-vitae"}
	b := newTestBuilder(resolver)

	specs := b.Build(context.Background(), []types.TermEntry{
		{Text: "Donec vitae", Link: "12"},
	})

	require.Len(t, specs, 1)
	assert.Equal(t, types.LinkInternal, specs[0].LinkKind)
	assert.Equal(t, "12", specs[0].LinkTarget)
	assert.Equal(t, "12", specs[0].RawLink)
	assert.Contains(t, specs[0].Replacement, `href="/docs/donec-vitae"`)
}

func TestBuildUnresolvedNumericLinkStaysExternal(t *testing.T) {
	b := newTestBuilder(store.StaticResolver{})

	specs := b.Build(context.Background(), []types.TermEntry{
		{Text: "Donec vitae", Link: "999"},
	})

	require.Len(t, specs, 1)
	assert.Equal(t, types.LinkExternal, specs[0].LinkKind)
	assert.Equal(t, "999", specs[0].LinkTarget)
	assert.Contains(t, specs[0].Replacement, `href="999"`)
}

func TestBuildEscapesAttributeValues(t *testing.T) {
	b := newTestBuilder(nil)

	specs := b.Build(context.Background(), []types.TermEntry{
		{Text: "tricky", Abbr: `say "hi"`, Link: `https://example.com/?a=1&b=2`},
	})

	require.Len(t, specs, 1)
	assert.Contains(t, specs[0].Replacement, `title="say &#34;hi&#34;"`)
	assert.Contains(t, specs[0].Replacement, `href="https://example.com/?a=1&amp;b=2"`)
}

func TestPatternExprMatching(t *testing.T) {
	tests := []struct {
		name          string
		term          string
		exact         bool
		caseSensitive bool
		input         string
		wantMatch     bool
	}{
		{"plain match", "cat", false, false, "my cat sleeps", true},
		{"substring match allowed", "cat", false, false, "category", true},
		{"exact blocks substring", "cat", true, false, "category", false},
		{"exact matches whole word", "cat", true, false, "a cat here", true},
		{"case insensitive by default", "Go", false, false, "let's go", true},
		{"case sensitive respected", "Go", false, true, "let's go", false},
		{"case sensitive match", "Go", false, true, "use Go daily", true},
		{"metacharacters quoted", "C++ (lang)", false, false, "I like C++ (lang) a lot", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := regexp.Compile(PatternExpr(tt.term, tt.exact, tt.caseSensitive))
			require.NoError(t, err)

			matched := false
			for _, m := range re.FindAllStringSubmatchIndex(tt.input, -1) {
				if m[2] >= 0 {
					matched = true
				}
			}
			assert.Equal(t, tt.wantMatch, matched)
		})
	}
}

func TestPatternExprSkipsExistingAnchors(t *testing.T) {
	re, err := regexp.Compile(PatternExpr("Donec", false, false))
	require.NoError(t, err)

	input := `<a href="/x">Donec</a> and Donec again`

	var termMatches []string
	for _, m := range re.FindAllStringSubmatchIndex(input, -1) {
		if m[2] >= 0 {
			termMatches = append(termMatches, input[m[2]:m[3]])
		}
	}

	require.Len(t, termMatches, 1, "the anchor-wrapped occurrence is skipped")
	assert.Equal(t, "Donec", termMatches[0])
}

func TestPatternExprSkipsAttributeText(t *testing.T) {
	re, err := regexp.Compile(PatternExpr("Donec", false, false))
	require.NoError(t, err)

	input := `<img alt="Donec"> Donec`

	count := 0
	for _, m := range re.FindAllStringSubmatchIndex(input, -1) {
		if m[2] >= 0 {
			count++
		}
	}
	assert.Equal(t, 1, count, "text inside tags never matches")
}

func TestCompileSkipsInvalidPattern(t *testing.T) {
	specs := []types.RuleSpec{
		{SourceText: "ok", PatternExpr: `(ok)`, Replacement: "<a>ok</a>"},
		{SourceText: "broken", PatternExpr: `((`, Replacement: "<a>broken</a>"},
	}

	reg := Compile(specs, logging.NewTestLogger())

	require.Len(t, reg.Rules, 1, "the uncompilable rule is skipped, not fatal")
	assert.Equal(t, "ok", reg.Rules[0].SourceText)
	assert.NotNil(t, reg.Rules[0].Pattern)
}

func TestCompilePreservesOrder(t *testing.T) {
	b := newTestBuilder(nil)
	specs := b.Build(context.Background(), []types.TermEntry{
		{Text: "Donec vitae", Link: "https://example.com/a"},
		{Text: "Donec", Link: "https://example.com/b"},
	})

	reg := Compile(specs, logging.NewTestLogger())
	require.Len(t, reg.Rules, 2)
	assert.Equal(t, "Donec vitae", reg.Rules[0].SourceText)
	assert.Equal(t, "Donec", reg.Rules[1].SourceText)
}
