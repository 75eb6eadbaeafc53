package usecase

import (
	"strings"

	"ragbench/internal/domain"
)

const (
	docHeaderPrefix   = "--- Document: "
	docHeaderSuffix   = " ---"
	fragmentSeparator = "\n\n"
)

// AssembleContext concatenates fragment texts from the top-ranked
// documents into a bounded context string.
//
// The first topDocs ranks are taken in order; for each, at most
// fragmentsPerDoc member fragments in score order. Every document
// section starts with a header naming its doc id so the downstream
// consumer keeps provenance. Headers and separators count against
// maxChars, and truncation only ever happens at a fragment boundary: on
// the first fragment that would push the total past maxChars, assembly
// stops entirely. A later, shorter fragment is never packed in its
// place, keeping the per-document ordering predictable.
//
// An empty ranking, topDocs <= 0, or a ceiling too small for the first
// header and fragment all yield an empty context and nil included list.
func AssembleContext(ranks []domain.DocumentRank, topDocs, fragmentsPerDoc, maxChars int) (string, []domain.RetrievedFragment) {
	if len(ranks) == 0 || topDocs <= 0 || fragmentsPerDoc <= 0 || maxChars <= 0 {
		return "", nil
	}
	if topDocs > len(ranks) {
		topDocs = len(ranks)
	}

	var b strings.Builder
	var included []domain.RetrievedFragment
	total := 0

	for _, rank := range ranks[:topDocs] {
		members := rank.Fragments
		if len(members) > fragmentsPerDoc {
			members = members[:fragmentsPerDoc]
		}

		header := docHeaderPrefix + rank.DocID + docHeaderSuffix
		headerEmitted := false

		for _, rf := range members {
			need := len(fragmentSeparator) + len(rf.Fragment.Text)
			if !headerEmitted {
				need += len(header)
				if total > 0 {
					need += len(fragmentSeparator) // gap before the header
				}
			}
			if total+need > maxChars {
				return b.String(), included
			}

			if !headerEmitted {
				if total > 0 {
					b.WriteString(fragmentSeparator)
				}
				b.WriteString(header)
				headerEmitted = true
			}
			b.WriteString(fragmentSeparator)
			b.WriteString(rf.Fragment.Text)
			total += need
			included = append(included, rf)
		}
	}

	return b.String(), included
}
