package searchindex

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/georecon/internal/domain/entity"
	"github.com/kailas-cloud/georecon/internal/textnorm"
)

// maxSuggestExpansions bounds the tokens a suggest prefix may expand to.
const maxSuggestExpansions = 256

// TypeCount is a type with the number of indexed entities carrying it.
type TypeCount struct {
	Type  entity.Type
	Count int
}

// SuggestEntities returns ordinals for autocomplete: every token but the last
// must match exactly, the last is matched as a prefix.
func (idx *Index) SuggestEntities(prefix string, typeFilters []string, limit int) []uint32 {
	tokens := textnorm.Tokenize(prefix)
	if len(tokens) == 0 || limit <= 0 {
		return nil
	}

	last := tokens[len(tokens)-1]
	expansions := idx.shortestWithPrefix(last, utf8.RuneCountInString(last), maxSuggestExpansions)
	set := make(map[uint32]struct{})
	for _, tok := range expansions {
		for _, o := range idx.postings[tok] {
			set[o] = struct{}{}
		}
	}

	for _, tok := range tokens[:len(tokens)-1] {
		if len(set) == 0 {
			return nil
		}
		keep := make(map[uint32]struct{}, len(set))
		for _, o := range idx.postings[tok] {
			if _, ok := set[o]; ok {
				keep[o] = struct{}{}
			}
		}
		set = keep
	}

	out := make([]uint32, 0, len(set))
	for o := range set {
		if len(typeFilters) > 0 && !idx.Type(o).MatchesAny(typeFilters) {
			continue
		}
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b uint32) int {
		if c := cmp.Compare(idx.pops[b], idx.pops[a]); c != 0 {
			return c
		}
		return strings.Compare(idx.ids[a], idx.ids[b])
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SuggestTypes returns types whose id or name starts with prefix, ignoring case.
// An empty prefix returns the most frequent types.
func (idx *Index) SuggestTypes(prefix string, limit int) []TypeCount {
	p := textnorm.Fold(strings.TrimSpace(prefix))
	var out []TypeCount
	for _, tc := range idx.TypeCounts() {
		if p == "" ||
			strings.HasPrefix(strings.ToLower(tc.Type.ID()), p) ||
			strings.HasPrefix(strings.ToLower(tc.Type.Code()), p) ||
			strings.HasPrefix(textnorm.Fold(tc.Type.Class().Name()), p) {
			out = append(out, tc)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TypeCounts returns every indexed type ranked by frequency desc, id asc.
func (idx *Index) TypeCounts() []TypeCount {
	out := make([]TypeCount, len(idx.types))
	for i, t := range idx.types {
		out[i] = TypeCount{Type: t, Count: idx.typeCount[i]}
	}
	slices.SortFunc(out, func(a, b TypeCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return strings.Compare(a.Type.ID(), b.Type.ID())
	})
	return out
}

// ClassCounts returns the entity count per feature class.
func (idx *Index) ClassCounts() map[entity.FeatureClass]int {
	out := make(map[entity.FeatureClass]int)
	for i, t := range idx.types {
		out[t.Class()] += idx.typeCount[i]
	}
	return out
}
