package pagination

import (
	"encoding/json"
	"strconv"
)

// visiblePages is how many page numbers a pager shows before collapsing.
const visiblePages = 5

// Marker is one entry of a pager: a page number or an ellipsis.
type Marker struct {
	Page     int
	Ellipsis bool
}

// MarshalJSON renders page numbers as numbers and ellipses as "...".
func (m Marker) MarshalJSON() ([]byte, error) {
	if m.Ellipsis {
		return json.Marshal("...")
	}
	return json.Marshal(m.Page)
}

func (m Marker) String() string {
	if m.Ellipsis {
		return "..."
	}
	return strconv.Itoa(m.Page)
}

// PageNumbers builds the pager for current out of total pages. Nothing is
// shown for a single page. Up to five pages are listed in full; beyond that
// the first and last page are always present, the current page keeps one
// neighbour on each side (shifted inward at the edges), and each skipped run
// collapses into one ellipsis.
func PageNumbers(current, total int) []Marker {
	if total <= 1 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > total {
		current = total
	}

	if total <= visiblePages {
		out := make([]Marker, 0, total)
		for p := 1; p <= total; p++ {
			out = append(out, Marker{Page: p})
		}
		return out
	}

	// middle window of three pages between first and last
	lo, hi := current-1, current+1
	if lo < 2 {
		lo, hi = 2, 4
	}
	if hi > total-1 {
		lo, hi = total-3, total-1
	}

	out := make([]Marker, 0, visiblePages+2)
	out = append(out, Marker{Page: 1})
	if lo > 2 {
		out = append(out, Marker{Ellipsis: true})
	}
	for p := lo; p <= hi; p++ {
		out = append(out, Marker{Page: p})
	}
	if hi < total-1 {
		out = append(out, Marker{Ellipsis: true})
	}
	out = append(out, Marker{Page: total})
	return out
}
