// Package store supplies glossary term rows and document path lookups
// to the substitution engine. The engine only sees the two interfaces;
// the YAML-backed store is what the CLI wires in, and the static store
// serves tests and embedding callers.
package store

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"

	"github.com/glosslink/glosslink/internal/types"
)

// TermStore queries raw glossary rows for a locale/site. Implementations
// must return rows matching (language == locale OR language empty) AND
// (site == siteID OR site empty), ordered by descending character length
// of the term text.
type TermStore interface {
	Query(ctx context.Context, locale, siteID string) ([]types.TermEntry, error)
}

// DocumentResolver resolves an internal document id to its full path.
type DocumentResolver interface {
	ResolvePath(id string) (path string, ok bool)
}

// StaticStore is an in-memory TermStore over a fixed set of entries.
type StaticStore struct {
	entries []types.TermEntry
}

// NewStaticStore creates a store over the given entries.
func NewStaticStore(entries ...types.TermEntry) *StaticStore {
	return &StaticStore{entries: entries}
}

// Query filters and orders the fixed entries for the locale/site.
func (s *StaticStore) Query(_ context.Context, locale, siteID string) ([]types.TermEntry, error) {
	return filterAndOrder(s.entries, locale, siteID), nil
}

// StaticResolver is a DocumentResolver over a fixed id-to-path map.
type StaticResolver map[string]string

// ResolvePath looks the id up in the map.
func (r StaticResolver) ResolvePath(id string) (string, bool) {
	path, ok := r[id]
	return path, ok
}

// filterAndOrder applies the locale/site row filter and the
// descending-length ordering every TermStore must provide.
func filterAndOrder(entries []types.TermEntry, locale, siteID string) []types.TermEntry {
	out := make([]types.TermEntry, 0, len(entries))
	for _, e := range entries {
		if !localeMatches(e.Language, locale) {
			continue
		}
		if e.Site != "" && e.Site != siteID {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i].Text) > utf8.RuneCountInString(out[j].Text)
	})

	return out
}

// localeMatches reports whether a row tagged rowLang applies to the
// request locale. Untagged rows apply everywhere; tagged rows match on
// the exact tag or on a shared base language ("en" rows match "en-US").
func localeMatches(rowLang, locale string) bool {
	if rowLang == "" {
		return true
	}
	if strings.EqualFold(rowLang, locale) {
		return true
	}

	rowTag, err := language.Parse(rowLang)
	if err != nil {
		return false
	}
	localeTag, err := language.Parse(locale)
	if err != nil {
		return false
	}

	rowBase, rowConf := rowTag.Base()
	localeBase, localeConf := localeTag.Base()
	if rowConf == language.No || localeConf == language.No {
		return false
	}
	return rowBase == localeBase
}
