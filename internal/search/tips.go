package search

import "strings"

// DefaultTips are the general sleep recommendations shown when no custom
// file is configured.
var DefaultTips = []string{
	"Try to go to bed before 22:00.",
	"Sleep at least 8 hours a day.",
	"Add a daytime nap if you slept badly or too little at night.",
	"Avoid heavy food before bed, and do not eat during the last 1.5 to 2 hours before sleep.",
	"Put gadgets like phones and laptops away at least 30 minutes before sleep.",
	"Use earplugs if you are a light sleeper.",
	"Tea with lemon balm has a mild calming and relaxing effect.",
}

// sleepStopwords are ignored when matching a topic against tips.
var sleepStopwords = []string{
	"a", "an", "and", "are", "at", "be", "before", "do", "for", "how", "i",
	"if", "in", "is", "it", "least", "like", "my", "not", "of", "or", "the",
	"to", "what", "you", "your",
}

// maxTips caps how many passages a custom tips file contributes.
const maxTips = 200

// Recommender answers "/recom [topic]": every tip when the topic is blank,
// otherwise the tips that best match it.
type Recommender struct {
	idx Index
}

// NewRecommender builds a Recommender from DefaultTips, or from the markdown
// file at path when path is non-empty.
func NewRecommender(path string) (*Recommender, error) {
	opts := []Option{
		WithMinParagraphRunes(0),
		WithStopwords(sleepStopwords),
		WithLightStemming(),
		WithMaxDocs(maxTips),
	}
	if strings.TrimSpace(path) == "" {
		return &Recommender{idx: NewIndexFromStrings(DefaultTips, opts...)}, nil
	}
	idx, err := NewIndexFromMarkdown(path, opts...)
	if err != nil {
		return nil, err
	}
	return &Recommender{idx: idx}, nil
}

// All returns every tip in order.
func (r *Recommender) All() []string { return r.idx.Passages() }

// Recommend returns up to k tips for topic, best match first. A blank topic
// returns all tips with a zero score. k <= 0 means 3 for topic searches.
func (r *Recommender) Recommend(topic string, k int) []Result {
	if strings.TrimSpace(topic) == "" {
		all := r.All()
		out := make([]Result, len(all))
		for i, t := range all {
			out[i] = Result{Snippet: t}
		}
		return out
	}
	return r.idx.TopK(topic, k)
}
