package chunker

// EstimatePage maps a chunk's character span onto a 1-based page number by
// the position of its midpoint within the document:
//
//	page = floor(midpoint/totalChars * totalPages) + 1, capped at totalPages
//
// This is a deterministic positional approximation, not an exact layout
// mapping; consumers needing precise page numbers must not rely on it.
// Single-page documents and degenerate inputs always map to page 1.
func EstimatePage(start, end, totalChars, totalPages int) int {
	if totalChars <= 0 || totalPages <= 1 {
		return 1
	}
	ratio := (float64(start) + float64(end)) / 2 / float64(totalChars)
	page := int(ratio*float64(totalPages)) + 1
	if page > totalPages {
		return totalPages
	}
	return page
}
