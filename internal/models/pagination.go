package models

// Page is one slice of an ordered listing plus what the pagination nav needs.
type Page[T any] struct {
	Items   []T
	Page    int
	PerPage int
	Total   int64
}

// Pages is the total number of pages. An empty listing still has zero pages.
func (p Page[T]) Pages() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 0
	}
	return int((p.Total + int64(p.PerPage) - 1) / int64(p.PerPage))
}

func (p Page[T]) HasPrev() bool { return p.Page > 1 }

func (p Page[T]) HasNext() bool { return p.Page < p.Pages() }

func (p Page[T]) PrevNum() int {
	if !p.HasPrev() {
		return 0
	}
	return p.Page - 1
}

func (p Page[T]) NextNum() int {
	if !p.HasNext() {
		return 0
	}
	return p.Page + 1
}

// IterPages yields the page numbers to show in the nav. A 0 marks a gap that
// the template renders as an ellipsis. The edges are counted the same way as
// the classic SQLAlchemy paginator: leftEdge pages at the start, leftCurrent
// before the current page, rightCurrent from the current page on, and
// rightEdge pages at the end.
func (p Page[T]) IterPages(leftEdge, leftCurrent, rightCurrent, rightEdge int) []int {
	pages := p.Pages()
	out := make([]int, 0, pages)
	last := 0
	for num := 1; num <= pages; num++ {
		if num <= leftEdge ||
			(num > p.Page-leftCurrent-1 && num < p.Page+rightCurrent) ||
			num > pages-rightEdge {
			if last+1 != num {
				out = append(out, 0)
			}
			out = append(out, num)
			last = num
		}
	}
	return out
}

// Nav is IterPages with the edges the templates use.
func (p Page[T]) Nav() []int {
	return p.IterPages(1, 1, 2, 1)
}

// Offset is the row offset of the first item on the page.
func Offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
