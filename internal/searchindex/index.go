// Package searchindex maps name tokens to the entities carrying them.
// The index keeps a compact copy of id, type and population per entity so it
// can rank and filter candidates without touching the entity store.
package searchindex

import (
	"cmp"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/georecon/internal/domain/entity"
	"github.com/kailas-cloud/georecon/internal/entitystore"
	"github.com/kailas-cloud/georecon/internal/textnorm"
)

// Defaults for Options.
const (
	DefaultMaxCandidates       = 200
	DefaultMaxPrefixExpansions = 32
	DefaultMaxTypoExpansions   = 16
	PrefixMinLen               = 2
	TypoMinLen                 = 4
)

// Options tunes a lookup.
type Options struct {
	TypeFilters         []string
	MaxCandidates       int
	MaxPrefixExpansions int
	MaxTypoExpansions   int
}

func (o Options) withDefaults() Options {
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = DefaultMaxCandidates
	}
	if o.MaxPrefixExpansions <= 0 {
		o.MaxPrefixExpansions = DefaultMaxPrefixExpansions
	}
	if o.MaxTypoExpansions <= 0 {
		o.MaxTypoExpansions = DefaultMaxTypoExpansions
	}
	return o
}

// Hit is a candidate entity produced by Lookup.
type Hit struct {
	Ordinal    uint32
	ID         string
	Matched    int // distinct query tokens matched
	Exact      int // query tokens matched by equality
	Population int64
}

// Index is immutable after Build and safe for concurrent use.
type Index struct {
	dict     []string   // sorted distinct tokens
	byLen    [][]string // sorted tokens bucketed by rune length
	deletes  map[string][]uint32
	postings map[string][]uint32

	ids       []string
	typeOf    []uint16
	pops      []int64
	types     []entity.Type
	typeCount []int
}

// Build indexes every name of every entity in the store.
func Build(store *entitystore.Store) *Index {
	n := store.Len()
	idx := &Index{
		postings: make(map[string][]uint32, n),
		ids:      make([]string, n),
		typeOf:   make([]uint16, n),
		pops:     make([]int64, n),
	}
	typeIdx := make(map[string]uint16)

	for i, e := range store.Entities() {
		ord := uint32(i) //nolint:gosec // bounded by store size
		idx.ids[i] = e.ID()
		idx.pops[i] = e.Population()

		t := e.Type()
		ti, ok := typeIdx[t.ID()]
		if !ok {
			ti = uint16(len(idx.types)) //nolint:gosec // feature codes are a small closed set
			typeIdx[t.ID()] = ti
			idx.types = append(idx.types, t)
			idx.typeCount = append(idx.typeCount, 0)
		}
		idx.typeOf[i] = ti
		idx.typeCount[ti]++

		seen := make(map[string]struct{})
		for _, name := range e.Names() {
			for _, tok := range textnorm.Tokenize(name) {
				if _, dup := seen[tok]; dup {
					continue
				}
				seen[tok] = struct{}{}
				idx.postings[tok] = append(idx.postings[tok], ord)
			}
		}
	}

	idx.dict = make([]string, 0, len(idx.postings))
	for tok := range idx.postings {
		idx.dict = append(idx.dict, tok)
	}
	sort.Strings(idx.dict)
	idx.indexTokens()
	return idx
}

// indexTokens fills the length buckets and the single-deletion neighbourhood
// of every token long enough to be a typo candidate.
func (idx *Index) indexTokens() {
	idx.deletes = make(map[string][]uint32)
	for i, tok := range idx.dict {
		n := utf8.RuneCountInString(tok)
		for len(idx.byLen) <= n {
			idx.byLen = append(idx.byLen, nil)
		}
		idx.byLen[n] = append(idx.byLen[n], tok)

		if n < TypoMinLen {
			continue
		}
		d := uint32(i) //nolint:gosec // bounded by dictionary size
		for _, v := range deletions(tok) {
			list := idx.deletes[v]
			if len(list) > 0 && list[len(list)-1] == d {
				continue
			}
			idx.deletes[v] = append(list, d)
		}
	}
}

// deletions returns tok with each one of its runes removed.
func deletions(tok string) []string {
	out := make([]string, 0, len(tok))
	for i, r := range tok {
		out = append(out, tok[:i]+tok[i+utf8.RuneLen(r):])
	}
	return out
}

// Len returns the number of indexed entities.
func (idx *Index) Len() int { return len(idx.ids) }

// Tokens returns the number of distinct tokens.
func (idx *Index) Tokens() int { return len(idx.dict) }

// ID returns the entity id at ordinal o.
func (idx *Index) ID(o uint32) string { return idx.ids[o] }

// Type returns the entity type at ordinal o.
func (idx *Index) Type(o uint32) entity.Type { return idx.types[idx.typeOf[o]] }

// Population returns the population at ordinal o.
func (idx *Index) Population(o uint32) int64 { return idx.pops[o] }

type accum struct {
	matched int
	exact   int
	lastTok int
}

// Lookup returns entities sharing at least one token with text.
func (idx *Index) Lookup(text string, opts Options) []Hit {
	opts = opts.withDefaults()
	tokens := textnorm.Unique(textnorm.Tokenize(text))
	if len(tokens) == 0 {
		return nil
	}

	acc := make(map[uint32]*accum)
	for ti, q := range tokens {
		exact, fuzzy := idx.expand(q, opts)
		add := func(list []uint32, isExact bool) {
			for _, o := range list {
				a, ok := acc[o]
				if !ok {
					a = &accum{lastTok: -1}
					acc[o] = a
				}
				if a.lastTok == ti {
					continue
				}
				a.lastTok = ti
				a.matched++
				if isExact {
					a.exact++
				}
			}
		}
		if exact != nil {
			add(exact, true)
		}
		for _, tok := range fuzzy {
			add(idx.postings[tok], false)
		}
	}

	hits := make([]Hit, 0, len(acc))
	for o, a := range acc {
		if len(opts.TypeFilters) > 0 && !idx.Type(o).MatchesAny(opts.TypeFilters) {
			continue
		}
		hits = append(hits, Hit{
			Ordinal:    o,
			ID:         idx.ids[o],
			Matched:    a.matched,
			Exact:      a.exact,
			Population: idx.pops[o],
		})
	}

	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(b.Matched, a.Matched); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Exact, a.Exact); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Population, a.Population); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if len(hits) > opts.MaxCandidates {
		hits = hits[:opts.MaxCandidates]
	}
	return hits
}

// expand returns the exact posting list of q and the index tokens reached
// through prefix and typo expansion.
func (idx *Index) expand(q string, opts Options) ([]uint32, []string) {
	exact := idx.postings[q]
	qLen := utf8.RuneCountInString(q)

	var fuzzy []string
	if qLen >= PrefixMinLen {
		fuzzy = append(fuzzy, idx.shortestWithPrefix(q, qLen+1, opts.MaxPrefixExpansions)...)
	}
	if qLen >= TypoMinLen {
		fuzzy = append(fuzzy, idx.typos(q, qLen, opts.MaxTypoExpansions)...)
	}
	return exact, fuzzy
}

// shortestWithPrefix returns up to limit tokens starting with p that are at
// least minLen runes long, shortest first and sorted within a length.
func (idx *Index) shortestWithPrefix(p string, minLen, limit int) []string {
	var out []string
	for n := minLen; n < len(idx.byLen) && len(out) < limit; n++ {
		for _, tok := range prefixRange(idx.byLen[n], p) {
			if len(out) == limit {
				break
			}
			out = append(out, tok)
		}
	}
	return out
}

// typos returns up to limit tokens within one edit of q that share its first
// rune and are not already prefix expansions. Candidates come from the
// deletion neighbourhood of q, so the cost does not depend on dictionary size.
func (idx *Index) typos(q string, qLen, limit int) []string {
	seen := make(map[uint32]struct{})
	collect := func(list []uint32) {
		for _, d := range list {
			seen[d] = struct{}{}
		}
	}
	collect(idx.deletes[q])
	for _, v := range deletions(q) {
		collect(idx.deletes[v])
		if qLen-1 >= TypoMinLen {
			if i, ok := slices.BinarySearch(idx.dict, v); ok {
				seen[uint32(i)] = struct{}{} //nolint:gosec // bounded by dictionary size
			}
		}
	}

	first, _ := utf8.DecodeRuneInString(q)
	var out []string
	for d := range seen {
		tok := idx.dict[d]
		if tok == q || strings.HasPrefix(tok, q) {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(tok); r != first {
			continue
		}
		if textnorm.WithinOneEdit(q, tok) {
			out = append(out, tok)
		}
	}
	slices.Sort(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// prefixRange returns the range of sorted whose tokens start with p.
func prefixRange(sorted []string, p string) []string {
	lo := sort.SearchStrings(sorted, p)
	hi := lo + sort.Search(len(sorted)-lo, func(i int) bool {
		return !strings.HasPrefix(sorted[lo+i], p)
	})
	return sorted[lo:hi]
}
