// Package scorer computes 0..100 similarity scores between a query and an
// entity's names, ranks candidates and decides the auto-match flag.
package scorer

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/georecon/internal/domain/entity"
	"github.com/kailas-cloud/georecon/internal/textnorm"
)

// Defaults for Config.
const (
	DefaultAutoMatchScore = 95
	DefaultAutoMatchGap   = 10
	DefaultTieMargin      = 2
)

// Minimum token lengths for partial matches. Shared with the index so that
// every candidate the index expands to can earn a non-zero weight here.
const (
	prefixMinLen = 2
	typoMinLen   = 4
)

// Config holds the ranking thresholds.
type Config struct {
	AutoMatchScore int
	AutoMatchGap   int
	TieMargin      int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		AutoMatchScore: DefaultAutoMatchScore,
		AutoMatchGap:   DefaultAutoMatchGap,
		TieMargin:      DefaultTieMargin,
	}
}

// Result is the score of one entity.
type Result struct {
	Score    int
	BestName string
	Exact    bool
}

// Query is a query text prepared for scoring many entities.
type Query struct {
	normalized string
	tokens     []string
}

// Prepare tokenizes text once.
func Prepare(text string) Query {
	tokens := textnorm.Tokenize(text)
	return Query{tokens: textnorm.Unique(tokens), normalized: strings.Join(tokens, " ")}
}

// Score scores text against e.
func Score(text string, e *entity.Entity) Result {
	return Prepare(text).Score(e)
}

// Score returns the best score of q over all names of e.
func (q Query) Score(e *entity.Entity) Result {
	names := e.Names()
	best := Result{BestName: e.DisplayName()}
	if len(q.tokens) == 0 {
		return best
	}

	bestOverlap := -1.0
	for _, name := range names {
		if textnorm.Normalize(name) == q.normalized {
			return Result{Score: 100, BestName: name, Exact: true}
		}
		ov := Overlap(q.tokens, textnorm.Unique(textnorm.Tokenize(name)))
		if ov > bestOverlap {
			bestOverlap = ov
			best.BestName = name
		}
	}
	best.Score = clamp(int(math.Round(bestOverlap * 100)))
	return best
}

// Overlap is the soft Jaccard similarity of two distinct token sets.
// With exact matches only it equals |Q∩N| / |Q∪N|.
func Overlap(query, name []string) float64 {
	if len(query) == 0 || len(name) == 0 {
		return 0
	}
	var w float64
	for _, q := range query {
		w += bestWeight(q, name)
	}
	den := float64(len(query)+len(name)) - w
	if den <= 0 {
		return 1
	}
	return math.Min(1, w/den)
}

func bestWeight(q string, name []string) float64 {
	best := 0.0
	ql := utf8.RuneCountInString(q)
	for _, n := range name {
		if q == n {
			return 1
		}
		nl := utf8.RuneCountInString(n)
		var w float64
		switch {
		case ql >= prefixMinLen && len(n) > len(q) && n[:len(q)] == q:
			w = float64(ql) / float64(nl)
		case ql >= typoMinLen && nl >= typoMinLen && sameFirstRune(q, n) && textnorm.WithinOneEdit(q, n):
			w = 1 - 1/float64(max(ql, nl))
		}
		if w > best {
			best = w
		}
	}
	return best
}

func sameFirstRune(a, b string) bool {
	ra, _ := utf8.DecodeRuneInString(a)
	rb, _ := utf8.DecodeRuneInString(b)
	return ra == rb
}

func clamp(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
