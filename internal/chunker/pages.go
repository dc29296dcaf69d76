package chunker

import "github.com/halcyon-labs/nextfind/internal/core/domain"

// AssignPages sets each chunk's page number to the page it overlaps
// most, measured in bytes of the original content. Chunks that overlap
// no page, or an empty boundary list, are left untouched.
func AssignPages(chunks []domain.ChunkWithPosition, pages []domain.PageBoundary) {
	if len(pages) == 0 {
		return
	}

	for i := range chunks {
		best := 0
		bestOverlap := 0

		for _, p := range pages {
			o := overlap(chunks[i].StartOffset, chunks[i].EndOffset, p.StartOffset, p.EndOffset)
			if o > bestOverlap {
				bestOverlap = o
				best = p.Number
			}
		}

		if bestOverlap > 0 {
			chunks[i].PageNumber = best
		}
	}
}

// overlap returns the length of the intersection of [aStart,aEnd) and
// [bStart,bEnd), or zero if they are disjoint.
func overlap(aStart, aEnd, bStart, bEnd int) int {
	lo := aStart
	if bStart > lo {
		lo = bStart
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}
