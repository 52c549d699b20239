package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/glosslink/glosslink/internal/logging"
	"github.com/glosslink/glosslink/internal/store"
	"github.com/glosslink/glosslink/internal/types"
)

// propWords is a vocabulary disjoint from the registered terms, so
// sentences built from it must never be rewritten.
var propWords = []string{"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing", "elit"}

func propEngine() *Engine {
	return New(
		store.NewStaticStore(
			types.TermEntry{Text: "Donec vitae", Link: "https://example.com/long"},
			types.TermEntry{Text: "Donec", Link: "https://example.com/short"},
		),
		nil,
		nil,
		Config{},
		logging.NewTestLogger(),
	)
}

func genSentence() gopter.Gen {
	return gen.SliceOfN(8, gen.OneConstOf(
		"lorem", "ipsum", "dolor", "sit", "amet", "Donec", "Donec vitae", "elit",
	)).Map(func(words []string) string {
		return strings.Join(words, " ")
	})
}

func genNeutralSentence() gopter.Gen {
	return gen.SliceOfN(8, gen.OneConstOf(
		propWords[0], propWords[1], propWords[2], propWords[3],
		propWords[4], propWords[5], propWords[6], propWords[7],
	)).Map(func(words []string) string {
		return strings.Join(words, " ")
	})
}

func TestProcessProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("empty registry passes any content through unchanged", prop.ForAll(
		func(sentence string) bool {
			e := New(store.NewStaticStore(), nil, nil, Config{}, logging.NewTestLogger())
			content := "<p>" + sentence + "</p>"
			return e.Process(context.Background(), content, enPage(), DefaultOptions()) == content
		},
		genSentence(),
	))

	properties.Property("edit mode passes any content through unchanged", prop.ForAll(
		func(sentence string) bool {
			e := propEngine()
			page := enPage()
			page.EditMode = true
			content := "<p>" + sentence + "</p>"
			return e.Process(context.Background(), content, page, DefaultOptions()) == content
		},
		genSentence(),
	))

	properties.Property("content without registered terms is structurally preserved", prop.ForAll(
		func(sentence string) bool {
			e := propEngine()
			content := "<p>" + sentence + "</p>"
			got := e.Process(context.Background(), content, enPage(), DefaultOptions())
			return !strings.Contains(got, "<a ")
		},
		genNeutralSentence(),
	))

	properties.Property("processing is idempotent in unlimited mode", prop.ForAll(
		func(sentence string) bool {
			e := propEngine()
			content := "<p>" + sentence + "</p>"
			once := e.Process(context.Background(), content, enPage(), DefaultOptions())
			twice := e.Process(context.Background(), once, enPage(), DefaultOptions())
			return once == twice
		},
		genSentence(),
	))

	properties.Property("blocked elements are never modified", prop.ForAll(
		func(sentence string) bool {
			e := propEngine()
			content := "<pre>" + sentence + "</pre>"
			return e.Process(context.Background(), content, enPage(), DefaultOptions()) == content
		},
		genSentence(),
	))

	properties.TestingRun(t)
}
