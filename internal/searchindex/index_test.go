package searchindex

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/georecon/internal/domain/entity"
	"github.com/kailas-cloud/georecon/internal/entitystore"
)

type place struct {
	id, name, class, code, alts string
	pop                         string
}

func buildIndex(t *testing.T, places ...place) *Index {
	t.Helper()
	b := entitystore.NewBuilder(len(places))
	for _, p := range places {
		ok := b.Add(entity.RawRow{
			entity.ColID:             p.id,
			entity.ColName:           p.name,
			entity.ColFeatureClass:   p.class,
			entity.ColFeatureCode:    p.code,
			entity.ColAlternateNames: p.alts,
			entity.ColPopulation:     p.pop,
		})
		require.Truef(t, ok, "row %s rejected", p.id)
	}
	s, _, err := b.Finish()
	require.NoError(t, err)
	return Build(s)
}

func gazetteer(t *testing.T) *Index {
	return buildIndex(t,
		place{id: "2643743", name: "London", class: "P", code: "PPLC", pop: "7556900"},
		place{id: "6058560", name: "London", class: "P", code: "PPL", pop: "346765"},
		place{id: "2988507", name: "Paris", class: "P", code: "PPLC", alts: "Lutetia,Parigi", pop: "2138551"},
		place{id: "4717560", name: "Paris", class: "P", code: "PPL", pop: "25171"},
		place{id: "2990474", name: "Seine", class: "H", code: "STM"},
		place{id: "2643741", name: "City of London", class: "A", code: "ADM2", pop: "8071"},
		place{id: "3448439", name: "São Paulo", class: "P", code: "PPLA", pop: "10021295"},
		place{id: "1", name: "Parisot", class: "P", code: "PPL", pop: "500"},
	)
}

func ids(hits []Hit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.ID
	}
	return out
}

func TestBuild_Metadata(t *testing.T) {
	idx := gazetteer(t)
	assert.Equal(t, 8, idx.Len())
	assert.Equal(t, "2643743", idx.ID(0))
	assert.Equal(t, "P.PPLC", idx.Type(0).ID())
	assert.Equal(t, int64(7556900), idx.Population(0))
	assert.Positive(t, idx.Tokens())
}

func TestLookup_ExactOrdersByPopulation(t *testing.T) {
	idx := gazetteer(t)
	hits := idx.Lookup("London", Options{})
	require.NotEmpty(t, hits)
	assert.Equal(t, []string{"2643743", "6058560", "2643741"}, ids(hits))
	assert.Equal(t, 1, hits[0].Matched)
	assert.Equal(t, 1, hits[0].Exact)
}

func TestLookup_MoreTokensFirst(t *testing.T) {
	idx := gazetteer(t)
	hits := idx.Lookup("city of london", Options{})
	require.NotEmpty(t, hits)
	assert.Equal(t, "2643741", hits[0].ID)
	assert.Equal(t, 3, hits[0].Matched)
}

func TestLookup_TypeFilterIsHardPrefilter(t *testing.T) {
	idx := gazetteer(t)
	hits := idx.Lookup("London", Options{TypeFilters: []string{"A"}})
	assert.Equal(t, []string{"2643741"}, ids(hits))

	hits = idx.Lookup("London", Options{TypeFilters: []string{"P.PPLC"}, MaxCandidates: 1})
	assert.Equal(t, []string{"2643743"}, ids(hits))

	assert.Empty(t, idx.Lookup("London", Options{TypeFilters: []string{"H"}}))
}

func TestLookup_PrefixExpansion(t *testing.T) {
	idx := gazetteer(t)
	hits := idx.Lookup("pari", Options{})
	got := ids(hits)
	assert.Contains(t, got, "2988507")
	assert.Contains(t, got, "1")
	for _, h := range hits {
		assert.Zero(t, h.Exact)
	}

	// one-letter tokens never expand
	assert.Empty(t, idx.Lookup("p", Options{}))
}

func TestLookup_TypoExpansion(t *testing.T) {
	idx := gazetteer(t)
	hits := idx.Lookup("Pariss", Options{})
	got := ids(hits)
	assert.Contains(t, got, "2988507")
	assert.Contains(t, got, "4717560")

	// different first letter is not a typo candidate
	assert.Empty(t, idx.Lookup("Xaris", Options{}))
}

func TestLookup_AlternateNamesAndFolding(t *testing.T) {
	idx := gazetteer(t)
	assert.Equal(t, []string{"2988507"}, ids(idx.Lookup("lutetia", Options{})))
	assert.Equal(t, []string{"3448439"}, ids(idx.Lookup("SAO PAULO", Options{})))
}

func TestLookup_EmptyQuery(t *testing.T) {
	idx := gazetteer(t)
	assert.Empty(t, idx.Lookup("", Options{}))
	assert.Empty(t, idx.Lookup(" -- ", Options{}))
}

func TestLookup_DuplicateTokensCountOnce(t *testing.T) {
	idx := buildIndex(t, place{id: "a", name: "Baden-Baden", class: "P", alts: "Baden"})
	hits := idx.Lookup("baden baden", Options{})
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Matched)
}

func TestLookup_Truncation(t *testing.T) {
	idx := gazetteer(t)
	hits := idx.Lookup("london paris", Options{MaxCandidates: 2})
	assert.Len(t, hits, 2)
}

func TestSuggestEntities(t *testing.T) {
	idx := gazetteer(t)

	got := idx.SuggestEntities("par", nil, 10)
	require.Len(t, got, 3)
	assert.Equal(t, "2988507", idx.ID(got[0]))
	assert.Equal(t, "4717560", idx.ID(got[1]))
	assert.Equal(t, "1", idx.ID(got[2]))

	got = idx.SuggestEntities("city of lon", nil, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "2643741", idx.ID(got[0]))

	got = idx.SuggestEntities("lon", []string{"P.PPLC"}, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "2643743", idx.ID(got[0]))

	assert.Empty(t, idx.SuggestEntities("", nil, 10))
	assert.Empty(t, idx.SuggestEntities("nowhere at", nil, 10))
	assert.Len(t, idx.SuggestEntities("par", nil, 1), 1)
}

func TestTypeCountsAndSuggestTypes(t *testing.T) {
	idx := gazetteer(t)

	counts := idx.TypeCounts()
	require.NotEmpty(t, counts)
	assert.Equal(t, "P.PPL", counts[0].Type.ID())
	assert.Equal(t, 3, counts[0].Count)

	classes := idx.ClassCounts()
	assert.Equal(t, 6, classes[entity.ClassPopulated])
	assert.Equal(t, 1, classes[entity.ClassHydrographic])

	got := idx.SuggestTypes("p.pplc", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "P.PPLC", got[0].Type.ID())

	got = idx.SuggestTypes("stream", 10)
	require.Len(t, got, 1)
	assert.Equal(t, "H.STM", got[0].Type.ID())

	assert.Len(t, idx.SuggestTypes("", 2), 2)
}

func TestLookup_TypoKinds(t *testing.T) {
	idx := buildIndex(t,
		place{id: "ins", name: "Limassol", class: "P"},
		place{id: "sub", name: "Larnaca", class: "P"},
		place{id: "swap", name: "Lefkara", class: "P"},
		place{id: "far", name: "Lakatamia", class: "P"},
	)
	tests := []struct {
		query string
		want  string
	}{
		{"Limasol", "ins"},    // deletion in the query
		{"Limasssol", "ins"},  // insertion in the query
		{"Larnaka", "sub"},    // substitution
		{"Lefkraa", "swap"},   // adjacent transposition
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, []string{tt.want}, ids(idx.Lookup(tt.query, Options{})))
		})
	}

	assert.Empty(t, idx.Lookup("Lakatamiaxx", Options{}))
}

func TestLookup_TypoCapKeepsLexicalOrder(t *testing.T) {
	idx := buildIndex(t,
		place{id: "1", name: "Kato", class: "P"},
		place{id: "2", name: "Kata", class: "P"},
		place{id: "3", name: "Kati", class: "P"},
	)
	exact, fuzzy := idx.expand("katu", Options{}.withDefaults())
	assert.Nil(t, exact)
	assert.Equal(t, []string{"kata", "kati", "kato"}, fuzzy)

	_, fuzzy = idx.expand("katu", Options{MaxTypoExpansions: 2}.withDefaults())
	assert.Equal(t, []string{"kata", "kati"}, fuzzy)
}

func TestLookup_PrefixExpansionShortestByRunes(t *testing.T) {
	// "моabcdefg" is shorter in bytes but longer in runes than "москва".
	idx := buildIndex(t,
		place{id: "cyr", name: "Москва", class: "P"},
		place{id: "mix", name: "моabcdefg", class: "P"},
	)
	_, fuzzy := idx.expand("мо", Options{MaxPrefixExpansions: 1}.withDefaults())
	assert.Equal(t, []string{"москва"}, fuzzy)

	_, fuzzy = idx.expand("мо", Options{}.withDefaults())
	assert.Equal(t, []string{"москва", "моabcdefg"}, fuzzy)
}

func TestLookup_TypoIgnoresUnrelatedTokensSharingFirstLetter(t *testing.T) {
	places := make([]place, 0, 5000)
	for i := range 5000 {
		places = append(places, place{id: fmt.Sprintf("s%d", i), name: fmt.Sprintf("s%05dzz", i), class: "P"})
	}
	places = append(places, place{id: "hit", name: "szzzzqqq", class: "P"})
	idx := buildIndex(t, places...)

	_, fuzzy := idx.expand("szzzzqqx", Options{}.withDefaults())
	assert.Equal(t, []string{"szzzzqqq"}, fuzzy)
	assert.Equal(t, []string{"hit"}, ids(idx.Lookup("szzzzqqx", Options{})))
}

func BenchmarkLookup_Typo(b *testing.B) {
	bld := entitystore.NewBuilder(200000)
	rng := rand.New(rand.NewPCG(1, 2))
	letters := []byte("abcdefghijklmnopqrstuvwxyz")
	for i := range 200000 {
		name := []byte("s")
		for range 7 {
			name = append(name, letters[rng.IntN(len(letters))])
		}
		bld.Add(entity.RawRow{
			entity.ColID:           strconv.Itoa(i),
			entity.ColName:         string(name),
			entity.ColFeatureClass: "P",
		})
	}
	s, _, err := bld.Finish()
	if err != nil {
		b.Fatal(err)
	}
	idx := Build(s)

	b.ResetTimer()
	for range b.N {
		idx.Lookup("szzzzqqq", Options{})
	}
}
