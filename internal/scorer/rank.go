package scorer

import (
	"cmp"
	"slices"
	"strings"

	"github.com/kailas-cloud/georecon/internal/domain/candidate"
)

// Rank orders candidates by score desc, population desc, id asc, then lets
// population decide among candidates whose scores are within TieMargin of
// their band leader.
func (c Config) Rank(cands []candidate.Candidate) {
	slices.SortFunc(cands, func(a, b candidate.Candidate) int {
		if r := cmp.Compare(b.Score(), a.Score()); r != 0 {
			return r
		}
		return byPopulation(a, b)
	})
	if c.TieMargin <= 0 {
		return
	}
	for i := 0; i < len(cands); {
		leader := cands[i].Score()
		j := i + 1
		for j < len(cands) && leader-cands[j].Score() <= c.TieMargin {
			j++
		}
		if j-i > 1 {
			slices.SortStableFunc(cands[i:j], byPopulation)
		}
		i = j
	}
}

func byPopulation(a, b candidate.Candidate) int {
	if r := cmp.Compare(b.Population(), a.Population()); r != 0 {
		return r
	}
	return strings.Compare(a.EntityID(), b.EntityID())
}

// ApplyMatchFlag marks at most the first candidate as an auto-match: its score
// must reach AutoMatchScore and lead the runner-up by at least AutoMatchGap.
func (c Config) ApplyMatchFlag(cands []candidate.Candidate) {
	for i := range cands {
		cands[i].SetMatch(false)
	}
	if len(cands) == 0 || cands[0].Score() < c.AutoMatchScore {
		return
	}
	if len(cands) > 1 && cands[0].Score()-cands[1].Score() < c.AutoMatchGap {
		return
	}
	cands[0].SetMatch(true)
}
