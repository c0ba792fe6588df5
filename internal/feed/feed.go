// Package feed derives the visible page of a question or answer collection.
//
// Every function here is pure: inputs are never mutated and no I/O happens.
// The pipeline order is fixed:
//
//	Paginate(ApplySort(ApplyFilter(ApplySearch(items, text), filter), sort), size, page)
//
// Search and filter only remove items, so they commute. Sorting must see the
// reduced set, and pagination must come last.
package feed

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Item is the read-only view of a record the feed operates on.
type Item interface {
	FeedID() string
	FeedText() string
	FeedCreatedAt() time.Time
	FeedVotes() int
	FeedAnswerCount() int
}

// Filter names a categorical filter.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterUnanswered Filter = "unanswered"
)

// Sort names an ordering.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortMostVoted Sort = "most_voted"
)

var (
	// ErrInvalidFilter is returned for an unrecognized filter name.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidSort is returned for an unrecognized sort key.
	ErrInvalidSort = errors.New("invalid sort")
)

// ParseFilter maps user input to a Filter. Matching ignores case, spaces,
// dashes and underscores. Empty input selects FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch canonical(s) {
	case "", "all":
		return FilterAll, nil
	case "unanswered":
		return FilterUnanswered, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidFilter, s)
	}
}

// ParseSort maps user input to a Sort. "MostVoted", "most_voted" and
// "Most Voted" are equivalent. Empty input selects SortNewest.
func ParseSort(s string) (Sort, error) {
	switch canonical(s) {
	case "", "newest":
		return SortNewest, nil
	case "mostvoted":
		return SortMostVoted, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
	}
}

func canonical(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '\t':
			return -1
		}
		return r
	}, strings.ToLower(s))
}

// ApplySearch keeps items whose text contains text, compared with Unicode
// case folding. Empty or whitespace-only text keeps every item in order.
func ApplySearch[T Item](items []T, text string) []T {
	out := make([]T, 0, len(items))
	if strings.TrimSpace(text) == "" {
		return append(out, items...)
	}

	fold := cases.Fold()
	needle := fold.String(text)
	for _, it := range items {
		if strings.Contains(fold.String(it.FeedText()), needle) {
			out = append(out, it)
		}
	}
	return out
}

// ApplyFilter applies a named filter. Unknown names fail with
// ErrInvalidFilter instead of falling back to FilterAll.
func ApplyFilter[T Item](items []T, filter Filter) ([]T, error) {
	switch filter {
	case FilterAll:
		return append(make([]T, 0, len(items)), items...), nil
	case FilterUnanswered:
		out := make([]T, 0, len(items))
		for _, it := range items {
			if it.FeedAnswerCount() == 0 {
				out = append(out, it)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, filter)
	}
}

// ApplySort returns a sorted copy. Ties on the sort key are broken by
// identifier ascending so the order is fully deterministic.
func ApplySort[T Item](items []T, key Sort) ([]T, error) {
	var primary func(a, b T) int
	switch key {
	case SortNewest:
		primary = func(a, b T) int { return b.FeedCreatedAt().Compare(a.FeedCreatedAt()) }
	case SortMostVoted:
		primary = func(a, b T) int { return cmp.Compare(b.FeedVotes(), a.FeedVotes()) }
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSort, key)
	}

	out := slices.Clone(items)
	slices.SortFunc(out, func(a, b T) int {
		if c := primary(a, b); c != 0 {
			return c
		}
		return cmp.Compare(a.FeedID(), b.FeedID())
	})
	return out, nil
}

// Paginate returns page (1-based) of size pageSize:
// items[(page-1)*pageSize : min(len, page*pageSize)].
//
// A page past the end yields an empty slice, never an error. Paginate does not
// clamp page; callers that want clamping use ClampPage first. A non-positive
// page or pageSize yields an empty slice.
func Paginate[T any](items []T, pageSize, page int) []T {
	if pageSize < 1 || page < 1 {
		return []T{}
	}
	// Compare page counts before multiplying so huge pages cannot overflow.
	if len(items) == 0 || page-1 > (len(items)-1)/pageSize {
		return []T{}
	}
	start := (page - 1) * pageSize
	end := start + min(pageSize, len(items)-start)
	return slices.Clone(items[start:end])
}

// TotalPages returns ceil(total/pageSize), never less than 1.
func TotalPages(total, pageSize int) int {
	if pageSize < 1 || total <= 0 {
		return 1
	}
	return (total-1)/pageSize + 1
}

// ClampPage clamps page into [1, TotalPages(total, pageSize)].
func ClampPage(page, total, pageSize int) int {
	return max(1, min(page, TotalPages(total, pageSize)))
}

// Query is the full set of view inputs.
type Query struct {
	Search   string
	Filter   Filter
	Sort     Sort
	PageSize int
	Page     int
	// Clamp moves an out-of-range Page into range before paginating.
	Clamp bool
}

// Result is one page of a feed.
type Result[T any] struct {
	Items      []T
	Total      int // items left after search and filter
	Page       int // page actually served
	PageSize   int
	TotalPages int
}

// Run executes the pipeline in its fixed order.
func Run[T Item](items []T, q Query) (Result[T], error) {
	filtered, err := ApplyFilter(ApplySearch(items, q.Search), q.Filter)
	if err != nil {
		return Result[T]{}, err
	}
	sorted, err := ApplySort(filtered, q.Sort)
	if err != nil {
		return Result[T]{}, err
	}

	page := q.Page
	if q.Clamp {
		page = ClampPage(page, len(sorted), q.PageSize)
	}

	return Result[T]{
		Items:      Paginate(sorted, q.PageSize, page),
		Total:      len(sorted),
		Page:       page,
		PageSize:   q.PageSize,
		TotalPages: TotalPages(len(sorted), q.PageSize),
	}, nil
}
