// Package pagination splits ordered result sets into numbered pages.
//
// Page numbers come from untrusted query input and never produce an error:
// a missing or non-numeric value selects the first page and a value outside
// the valid range selects the last page.
package pagination

import (
	"strconv"
	"strings"
)

// PostsPerPage is the fixed page size of every post listing.
const PostsPerPage = 10

// Paginator describes a result set of Total items split into pages of PerPage.
type Paginator struct {
	Total   int64
	PerPage int
}

// New returns a Paginator. Non-positive page sizes fall back to PostsPerPage.
func New(total int64, perPage int) Paginator {
	if perPage <= 0 {
		perPage = PostsPerPage
	}
	if total < 0 {
		total = 0
	}
	return Paginator{Total: total, PerPage: perPage}
}

// NumPages returns the number of pages. An empty set still has one page.
func (p Paginator) NumPages() int {
	if p.Total == 0 {
		return 1
	}
	per := int64(p.PerPage)
	return int((p.Total + per - 1) / per)
}

// Resolve turns raw query input into a valid page number.
func (p Paginator) Resolve(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	if n < 1 || n > p.NumPages() {
		return p.NumPages()
	}
	return n
}

// Offset returns the index of the first item on page n.
func (p Paginator) Offset(n int) int {
	if n < 1 {
		n = 1
	}
	return (n - 1) * p.PerPage
}

// Page is one page of items plus navigation metadata.
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Total    int64
}

// NewPage wraps items already fetched for page number of p.
func NewPage[T any](items []T, number int, p Paginator) Page[T] {
	return Page[T]{Items: items, Number: number, NumPages: p.NumPages(), Total: p.Total}
}

// Slice paginates an in-memory ordered sequence.
func Slice[T any](items []T, raw string, perPage int) Page[T] {
	p := New(int64(len(items)), perPage)
	n := p.Resolve(raw)
	start := p.Offset(n)
	end := start + p.PerPage
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return NewPage(items[start:end], n, p)
}

func (pg Page[T]) HasNext() bool {
	return pg.Number < pg.NumPages
}

func (pg Page[T]) HasPrevious() bool {
	return pg.Number > 1
}

func (pg Page[T]) HasOtherPages() bool {
	return pg.HasNext() || pg.HasPrevious()
}

func (pg Page[T]) NextNumber() int {
	if pg.HasNext() {
		return pg.Number + 1
	}
	return pg.Number
}

func (pg Page[T]) PreviousNumber() int {
	if pg.HasPrevious() {
		return pg.Number - 1
	}
	return pg.Number
}

// Numbers lists every page number, for rendering navigation links.
func (pg Page[T]) Numbers() []int {
	nums := make([]int, pg.NumPages)
	for i := range nums {
		nums[i] = i + 1
	}
	return nums
}
