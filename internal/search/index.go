// Package search ranks short passages of text (sleep-hygiene tips) against a
// free-text topic. The index is built once, is read-only afterwards, and is
// safe for concurrent use.
//
// Scoring is Jaccard similarity between the query token set and each
// passage's token set: score = |Q ∩ P| / |Q ∪ P|. With light stemming on,
// "gadgets" and "gadget" produce the same token.
package search

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Result is a ranked passage with its similarity score.
type Result struct {
	Snippet string  `json:"text"`
	Score   float64 `json:"score"`
}

// Index ranks passages for a query.
type Index interface {
	TopK(query string, k int) []Result
	Passages() []string
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minParagraphRunes int
	stopwords         map[string]struct{}
	maxDocs           int
	stem              bool
}

func defaultConfig() config {
	return config{minParagraphRunes: 20}
}

// WithMinParagraphRunes drops passages shorter than n runes. n < 0 is ignored.
func WithMinParagraphRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minParagraphRunes = n
		}
	}
}

// WithStopwords removes the given words from passages and queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMaxDocs keeps at most n passages. n <= 0 is ignored.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// WithLightStemming folds common English plural and verb suffixes.
func WithLightStemming() Option {
	return func(c *config) { c.stem = true }
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	text   string
	tokens map[string]struct{}
	tLen   int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndexFromMarkdown builds an Index from the passages of the markdown file
// at path (see PrepareMarkdownInMemory).
func NewIndexFromMarkdown(path string, opts ...Option) (Index, error) {
	b, err := PrepareMarkdownInMemory(path)
	if err != nil {
		return nil, err
	}
	return NewIndexFromReader(bytes.NewReader(b), opts...)
}

// NewIndexFromReader builds an Index from UTF-8 text provided by r.
// The reader is fully consumed; passages are split on blank lines.
func NewIndexFromReader(r io.Reader, opts ...Option) (Index, error) {
	all, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return buildIndex(splitParasFromBytes(all), applyOptions(opts)), nil
}

// NewIndexFromStrings builds an Index directly from a slice of passages.
func NewIndexFromStrings(paragraphs []string, opts ...Option) Index {
	return buildIndex(paragraphs, applyOptions(opts))
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

func buildIndex(paragraphs []string, cfg config) *index {
	docs := make([]doc, 0, len(paragraphs))
	for _, raw := range paragraphs {
		t := strings.TrimSpace(normalizeWhitespace(raw))
		if t == "" {
			continue
		}
		if cfg.minParagraphRunes > 0 && utf8.RuneCountInString(t) < cfg.minParagraphRunes {
			continue
		}
		toks := tokenize(t, cfg)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{text: t, tokens: toks, tLen: len(toks)})
		if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

// Passages returns every indexed passage in input order.
func (i *index) Passages() []string {
	out := make([]string, len(i.docs))
	for n, d := range i.docs {
		out[n] = d.text
	}
	return out
}

// TopK returns up to k best-matching passages. k <= 0 means 3.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 3
	}
	qTokens := tokenize(q, i.cfg)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		Result
		pos int
	}

	var buf []scored
	for pos, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := qLen + d.tLen - over
		buf = append(buf, scored{
			Result: Result{Snippet: d.text, Score: float64(over) / float64(union)},
			pos:    pos,
		})
	}
	if len(buf) == 0 {
		return nil
	}

	// Ties keep the author's order.
	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].Score != buf[b].Score {
			return buf[a].Score > buf[b].Score
		}
		return buf[a].pos < buf[b].pos
	})

	if k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for n := range out {
		out[n] = buf[n].Result
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*|\p{N}+`)

func tokenize(s string, cfg config) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := cfg.stopwords[w]; skip {
			continue
		}
		if cfg.stem {
			w = stem(w)
		}
		out[w] = struct{}{}
	}
	return out
}

// stem strips one common suffix ("ing", "ies", "s"), keeping at least three
// runes of stem. Words ending in "ss" are left alone.
func stem(w string) string {
	switch {
	case strings.HasSuffix(w, "ss"):
		return w
	case strings.HasSuffix(w, "ing") && utf8.RuneCountInString(w) >= 6:
		return strings.TrimSuffix(w, "ing")
	case strings.HasSuffix(w, "ies") && utf8.RuneCountInString(w) >= 6:
		return strings.TrimSuffix(w, "ies") + "y"
	case strings.HasSuffix(w, "s") && utf8.RuneCountInString(w) >= 4:
		return strings.TrimSuffix(w, "s")
	}
	return w
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

var paraSplitRE = regexp.MustCompile(`\n\s*\n`)

func splitParasFromBytes(all []byte) []string {
	chunks := paraSplitRE.Split(string(all), -1)
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if t := strings.TrimSpace(c); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// readFile is a seam for tests.
var readFile = os.ReadFile
