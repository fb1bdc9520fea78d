package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
	"github.com/xrash/smetrics"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/nikbrunner/bundles/internal/model"
)

// Searchable field names.
const (
	KeyName        = "name"
	KeyURLs        = "urls"
	KeyDescription = "description"
)

// TypoThreshold is the minimum Jaro-Winkler similarity for a query token to
// count as a misspelling of a field token.
const TypoThreshold = 0.88

// typoWeight scales typo matches below any subsequence match of the same field.
const typoWeight = 0.25

// Key is a searchable field and its weight in the final score.
type Key struct {
	Name   string
	Weight float64
}

// DefaultKeys returns the name/urls/description weighting.
func DefaultKeys() []Key {
	return []Key{
		{Name: KeyName, Weight: 0.7},
		{Name: KeyURLs, Weight: 0.1},
		{Name: KeyDescription, Weight: 0.2},
	}
}

// Options configures an Index.
type Options struct {
	CaseSensitive bool
	// Threshold drops results scoring below it. Zero keeps every match.
	Threshold float64
	// Keys defaults to DefaultKeys when empty.
	Keys []Key
}

// Result is a ranked match.
type Result struct {
	Bundle model.Bundle
	// Score is in (0, 1]; higher is better.
	Score float64
	// Matches holds matched byte offsets per key, into the accent-folded
	// field value. Keys matched only by typo tolerance have no offsets.
	Matches map[string][]int
}

// fieldSource implements fuzzy.Source over one key of every bundle.
type fieldSource []string

func (f fieldSource) String(i int) string {
	return f[i]
}

func (f fieldSource) Len() int {
	return len(f)
}

// Index holds bundles with their searchable fields pre-folded.
type Index struct {
	bundles     []model.Bundle
	opts        Options
	totalWeight float64
	fields      map[string]fieldSource
	tokens      map[string][][]string
}

// NewIndex builds an index over bundles. The slice is not copied.
func NewIndex(bundles []model.Bundle, opts Options) *Index {
	if len(opts.Keys) == 0 {
		opts.Keys = DefaultKeys()
	}

	idx := &Index{
		bundles: bundles,
		opts:    opts,
		fields:  make(map[string]fieldSource, len(opts.Keys)),
		tokens:  make(map[string][][]string, len(opts.Keys)),
	}

	for _, k := range opts.Keys {
		idx.totalWeight += k.Weight
		values := make(fieldSource, len(bundles))
		toks := make([][]string, len(bundles))
		for i, b := range bundles {
			values[i] = fold(fieldValue(b, k.Name))
			toks[i] = tokenize(idx.caseKey(values[i]))
		}
		idx.fields[k.Name] = values
		idx.tokens[k.Name] = toks
	}
	return idx
}

// Len returns the number of indexed bundles.
func (idx *Index) Len() int {
	return len(idx.bundles)
}

// Search ranks the indexed bundles against query, best first. Bundles with
// equal scores keep their index order. An empty query matches nothing.
func (idx *Index) Search(query string) []Result {
	if query == "" || idx.totalWeight <= 0 {
		return nil
	}

	q := fold(query)
	qTokens := tokenize(idx.caseKey(q))

	scores := make([]float64, len(idx.bundles))
	matches := make([]map[string][]int, len(idx.bundles))
	matched := make([]bool, len(idx.bundles))

	for _, k := range idx.opts.Keys {
		values := idx.fields[k.Name]
		hit := make([]bool, len(values))

		for _, m := range fuzzy.FindFrom(q, values) {
			if idx.opts.CaseSensitive && !isSubsequence(q, values[m.Index]) {
				continue
			}
			hit[m.Index] = true
			matched[m.Index] = true
			scores[m.Index] += k.Weight * normalize(m.Score)
			if matches[m.Index] == nil {
				matches[m.Index] = map[string][]int{}
			}
			matches[m.Index][k.Name] = append([]int(nil), m.MatchedIndexes...)
		}

		for i := range values {
			if hit[i] {
				continue
			}
			if sim, ok := typoMatch(qTokens, idx.tokens[k.Name][i]); ok {
				matched[i] = true
				scores[i] += k.Weight * typoWeight * sim
			}
		}
	}

	results := make([]Result, 0, len(idx.bundles))
	for i, b := range idx.bundles {
		if !matched[i] {
			continue
		}
		score := scores[i] / idx.totalWeight
		if score < idx.opts.Threshold {
			continue
		}
		results = append(results, Result{Bundle: b, Score: score, Matches: matches[i]})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// Search returns bundles ranked against query. An empty query returns
// bundles unchanged.
func Search(query string, bundles []model.Bundle, opts Options) []model.Bundle {
	if query == "" {
		return bundles
	}
	results := NewIndex(bundles, opts).Search(query)
	out := make([]model.Bundle, len(results))
	for i, r := range results {
		out[i] = r.Bundle
	}
	return out
}

func fieldValue(b model.Bundle, key string) string {
	switch key {
	case KeyName:
		return b.Name
	case KeyDescription:
		return b.Description
	case KeyURLs:
		return strings.Join(b.URLs, model.URLSeparator)
	default:
		return ""
	}
}

// fold strips diacritics so "café" and "cafe" compare equal.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func (idx *Index) caseKey(s string) string {
	if idx.opts.CaseSensitive {
		return s
	}
	return strings.ToLower(s)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalize maps a fuzzy score onto (0, 1). Non-negative scores land in
// [0.5, 1), negative ones below 0.5.
func normalize(score int) float64 {
	s := float64(score)
	if s >= 0 {
		return 1 - 0.5/(1+s/10)
	}
	return 0.5 / (1 - s/10)
}

// typoMatch reports whether every query token is close to some field token,
// returning the mean best similarity.
func typoMatch(query, field []string) (float64, bool) {
	if len(query) == 0 || len(field) == 0 {
		return 0, false
	}
	var total float64
	for _, q := range query {
		best := 0.0
		for _, f := range field {
			if strings.Contains(f, q) {
				best = 1
				break
			}
			best = max(best, smetrics.JaroWinkler(q, f, 0.7, 4))
		}
		if best < TypoThreshold {
			return 0, false
		}
		total += best
	}
	return total / float64(len(query)), true
}

// isSubsequence reports whether every rune of sub appears in s in order,
// comparing case exactly.
func isSubsequence(sub, s string) bool {
	r := []rune(sub)
	i := 0
	for _, c := range s {
		if i == len(r) {
			break
		}
		if c == r[i] {
			i++
		}
	}
	return i == len(r)
}
