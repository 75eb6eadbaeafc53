package usecase

import (
	"math"
	"sort"

	"ragbench/internal/domain"
)

// AggregateDocuments groups retrieved fragments by document and ranks
// the documents.
//
// A document's score is the sum of its retrieved fragments' similarity
// scores divided by sqrt(n), where n is the number of retrieved
// fragments for that document. Several independently relevant fragments
// raise the score; the square root damps a win by sheer volume.
//
// Output is ordered by score descending; ties break on the best member
// fragment score, then on doc id ascending. Member fragments inside
// each rank are ordered by score descending (stable on ties). Fragments
// without a doc id group under domain.UnknownDocID and rank normally.
func AggregateDocuments(retrieved []domain.RetrievedFragment) []domain.DocumentRank {
	if len(retrieved) == 0 {
		return nil
	}

	groups := make(map[string][]domain.RetrievedFragment)
	for _, rf := range retrieved {
		docID := rf.Fragment.DocID
		if docID == "" {
			docID = domain.UnknownDocID
		}
		groups[docID] = append(groups[docID], rf)
	}

	ranks := make([]domain.DocumentRank, 0, len(groups))
	for docID, members := range groups {
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Score > members[j].Score
		})

		var sum float64
		for _, m := range members {
			sum += m.Score
		}

		ranks = append(ranks, domain.DocumentRank{
			DocID:     docID,
			Score:     sum / math.Sqrt(float64(len(members))),
			Fragments: members,
		})
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Score != ranks[j].Score {
			return ranks[i].Score > ranks[j].Score
		}
		// Members are sorted, so [0] is each document's best fragment.
		bi, bj := ranks[i].Fragments[0].Score, ranks[j].Fragments[0].Score
		if bi != bj {
			return bi > bj
		}
		return ranks[i].DocID < ranks[j].DocID
	})

	return ranks
}
