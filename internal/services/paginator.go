package services

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// PostsPerPage is the page size of every timeline.
const PostsPerPage = 12

// Source is a countable, sliceable result set.
type Source[T any] interface {
	Count(ctx context.Context) (int64, error)
	Slice(ctx context.Context, offset, limit int) ([]T, error)
}

// Page is one page of a paginated result set. Number is 1-based.
type Page[T any] struct {
	Items    []T
	Number   int
	NumPages int
	Count    int64
	PerPage  int
}

func (p *Page[T]) HasNext() bool {
	return p.Number < p.NumPages
}

func (p *Page[T]) HasPrevious() bool {
	return p.Number > 1
}

func (p *Page[T]) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p *Page[T]) NextPageNumber() int {
	return p.Number + 1
}

func (p *Page[T]) PreviousPageNumber() int {
	return p.Number - 1
}

// PageRange lists every page number, 1..NumPages.
func (p *Page[T]) PageRange() []int {
	pages := make([]int, p.NumPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// NumPagesFor returns ceil(count/perPage), never less than 1.
func NumPagesFor(count int64, perPage int) int {
	if count <= 0 || perPage <= 0 {
		return 1
	}
	return int(math.Ceil(float64(count) / float64(perPage)))
}

// ResolvePage turns the raw ?page= value into a valid page number.
// Missing or non-integer input gives page 1; numbers below 1 or past the
// end give the last page.
func ResolvePage(raw string, numPages int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 1
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}

	if n < 1 || n > numPages {
		return numPages
	}
	return n
}

// Paginate counts src, resolves rawPage against it and fetches that page.
func Paginate[T any](ctx context.Context, src Source[T], rawPage string, perPage int) (*Page[T], error) {
	count, err := src.Count(ctx)
	if err != nil {
		return nil, err
	}

	numPages := NumPagesFor(count, perPage)
	number := ResolvePage(rawPage, numPages)

	items, err := src.Slice(ctx, (number-1)*perPage, perPage)
	if err != nil {
		return nil, err
	}

	return &Page[T]{
		Items:    items,
		Number:   number,
		NumPages: numPages,
		Count:    count,
		PerPage:  perPage,
	}, nil
}
