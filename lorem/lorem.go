// Package lorem produces placeholder prose for the REST and MCP surfaces.
//
// Two call patterns exist and are kept apart on purpose. Paragraph builds one
// paragraph sentence by sentence, so every paragraph gets its own shape;
// Text builds a whole block in a single call where every paragraph shares the
// same sentence and word counts. The REST surface returns a list of
// Paragraph results while the tool surface returns Paragraph for a count of
// one and Text otherwise, so the two surfaces are not byte-compatible for the
// same count.
package lorem

import (
	"fmt"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"

	apperrors "github.com/sweetpotato0/lorem-mcp/errors"
)

// ErrInvalidCount is returned for counts the requested call pattern cannot honour.
var ErrInvalidCount = fmt.Errorf("%w: invalid paragraph count", apperrors.ErrInvalidInput)

// Shape bounds used when generating paragraphs.
const (
	MinSentences = 4
	MaxSentences = 8
	MinWords     = 5
	MaxWords     = 12
)

// BlockSeparator joins the paragraphs of a Text block.
const BlockSeparator = "\n\n"

// Option configures a Generator.
type Option func(*Generator)

// WithSeed makes the generated text reproducible. A zero seed picks a random one.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.faker = gofakeit.New(seed)
	}
}

// Generator is safe for concurrent use. Unseeded generators draw a fresh
// faker per call and share no state; a seeded generator serializes access to
// its faker one paragraph at a time.
type Generator struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

// NewGenerator creates a generator. Without WithSeed every call is
// independently and randomly seeded.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// with runs fn against a faker. Unseeded generators never take the lock.
func (g *Generator) with(f *gofakeit.Faker, fn func(*gofakeit.Faker)) {
	if f != nil {
		fn(f)
		return
	}
	if g.faker == nil {
		fn(gofakeit.New(0))
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	fn(g.faker)
}

// callFaker is the faker a multi-paragraph call may hold for its whole
// duration: a private one, or nil to go through the shared seeded faker.
func (g *Generator) callFaker() *gofakeit.Faker {
	if g.faker == nil {
		return gofakeit.New(0)
	}
	return nil
}

// Paragraph returns one paragraph with an independently drawn sentence count
// and sentence lengths.
func (g *Generator) Paragraph() string {
	var p string
	g.with(nil, func(f *gofakeit.Faker) { p = paragraph(f) })
	return p
}

func paragraph(f *gofakeit.Faker) string {
	n := f.Number(MinSentences, MaxSentences)
	sentences := make([]string, n)
	for i := range sentences {
		sentences[i] = f.LoremIpsumSentence(f.Number(MinWords, MaxWords))
	}
	return strings.Join(sentences, " ")
}

// Text returns a block of n paragraphs separated by a blank line. All
// paragraphs in the block share one sentence count and sentence length.
// Text returns an empty string when n is not positive.
func (g *Generator) Text(n int) string {
	if n <= 0 {
		return ""
	}
	var text string
	g.with(nil, func(f *gofakeit.Faker) {
		sentences := f.Number(MinSentences, MaxSentences)
		words := f.Number(MinWords, MaxWords)
		text = f.LoremIpsumParagraph(n, sentences, words, BlockSeparator)
	})
	return text
}

// Paragraphs returns n independently generated paragraphs. Zero yields an
// empty, non-nil slice; a negative n is rejected.
func (g *Generator) Paragraphs(n int) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: must not be negative, got %d", ErrInvalidCount, n)
	}
	out := make([]string, n)
	own := g.callFaker()
	for i := range out {
		g.with(own, func(f *gofakeit.Faker) { out[i] = paragraph(f) })
	}
	return out, nil
}

// Generate serves the tool call pattern: one paragraph for n == 1, a Text
// block for n > 1.
func (g *Generator) Generate(n int) (string, error) {
	switch {
	case n < 1:
		return "", fmt.Errorf("%w: must be at least 1, got %d", ErrInvalidCount, n)
	case n == 1:
		return g.Paragraph(), nil
	default:
		return g.Text(n), nil
	}
}
