// Package pagination computes the page window for table listings: which
// page is actually shown, the row offset it starts at, and which navigation
// links a page should render.
package pagination

import (
	"strconv"
	"strings"
)

// DefaultMaxJump is how far the quick jump links move from the current page.
const DefaultMaxJump = 5

// Page describes one resolved listing window. Requested keeps the page
// number the client asked for; Number is the page actually served after
// clamping into range. The prev/next flags derive from the requested page,
// so an out-of-range request keeps the link pointing back toward the range.
type Page struct {
	Requested  int
	Number     int
	Size       int
	TotalRows  int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	MaxJump    int
}

// Compute clamps the requested page against the total row count. A listing
// with no rows still serves page one rather than page zero.
func Compute(requested, size, totalRows int) Page {
	if size < 1 {
		size = 1
	}

	totalPages := (totalRows + size - 1) / size

	number := requested
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}
	if number < 1 {
		number = 1
	}

	return Page{
		Requested:  requested,
		Number:     number,
		Size:       size,
		TotalRows:  totalRows,
		TotalPages: totalPages,
		HasPrev:    requested > 1,
		HasNext:    requested < totalPages,
		MaxJump:    DefaultMaxJump,
	}
}

// ParsePage reads a page number from a query parameter. Anything that does
// not parse as an integer means page one; range clamping is Compute's job.
func ParsePage(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 1
	}
	return n
}

// Offset is the zero-based row offset where the served page starts.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Clamped reports whether the served page differs from the requested one,
// which is the signal to redirect the client onto the real page.
func (p Page) Clamped() bool {
	return p.Requested != p.Number
}

// PrevPage and NextPage are the targets for the step links, already clamped.
func (p Page) PrevPage() int {
	if p.Number > 1 {
		return p.Number - 1
	}
	return p.Number
}

func (p Page) NextPage() int {
	if p.Number < p.TotalPages {
		return p.Number + 1
	}
	return p.Number
}

// JumpBack and JumpForward are the targets for the quick jump links.
func (p Page) JumpBack() int {
	n := p.Number - p.MaxJump
	if n < 1 {
		return 1
	}
	return n
}

func (p Page) JumpForward() int {
	n := p.Number + p.MaxJump
	if n > p.TotalPages {
		return p.TotalPages
	}
	if n < 1 {
		return 1
	}
	return n
}

// Links lists the page numbers to render as direct links: a window of at
// most MaxJump pages on either side of the served page. An empty listing
// renders no links.
func (p Page) Links() []int {
	if p.TotalPages == 0 {
		return nil
	}

	lo := p.Number - p.MaxJump
	if lo < 1 {
		lo = 1
	}
	hi := p.Number + p.MaxJump
	if hi > p.TotalPages {
		hi = p.TotalPages
	}

	links := make([]int, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		links = append(links, n)
	}
	return links
}
