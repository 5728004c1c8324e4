package domain

// GroundingElement is a page/bounding-box hint for one parsed element,
// keyed by the parser's element id.
type GroundingElement struct {
	// Page is the 1-based page the element appears on.
	Page int

	// Box is an optional serialized bounding box ("x1,y1,x2,y2" or similar,
	// passed through opaquely from the parser).
	Box string
}

// Grounding maps parser element ids to their page/box hints.
type Grounding map[string]GroundingElement

// TotalPages returns the highest page number observed in the hints,
// or 1 when there are no hints. Per-chunk pages are always estimated
// from character position, never looked up by element id; the hints
// contribute only this page total.
func (g Grounding) TotalPages() int {
	total := 1
	for _, el := range g {
		if el.Page > total {
			total = el.Page
		}
	}
	return total
}
