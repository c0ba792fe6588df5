package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/askboard/askboard-server/internal/util"
)

// Sort orders for search results.
const (
	SortRelevance = "relevance"
	SortRecent    = "recent"
	SortVotes     = "votes"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string // User's search query

	// Filters
	Tags           []string // Tag slugs; a question matches if it has any
	UnansweredOnly bool

	// Pagination
	Limit  int
	Offset int

	SortBy string // "relevance", "recent", "votes"

	// Options
	IncludeFacets bool // Include tag facet counts in results
	Highlight     bool // Include title highlighting
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		SortBy:        SortRelevance,
		IncludeFacets: true,
		Highlight:     true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Tags   []FacetCount `json:"tags,omitempty"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID          string            `json:"id"`
	Type        DocType           `json:"type"`
	Score       float64           `json:"score"`
	Title       string            `json:"title"`
	Author      string            `json:"author,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Votes       int               `json:"votes"`
	AnswerCount int               `json:"answer_count"`
	Highlights  map[string]string `json:"highlights,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(searchRequest, params)

	if params.IncludeFacets {
		searchRequest.AddFacet("tags", bleve.NewFacetRequest("tags", 20))
	}
	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
	}

	searchRequest.Fields = []string{"type", "title", "author", "tags", "votes", "answer_count"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		if t, ok := hit.Fields["type"].(string); ok {
			searchHit.Type = DocType(t)
		}
		if t, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = t
		}
		if a, ok := hit.Fields["author"].(string); ok {
			searchHit.Author = a
		}
		searchHit.Tags = storedStrings(hit.Fields["tags"])
		if v, ok := hit.Fields["votes"].(float64); ok {
			searchHit.Votes = int(v)
		}
		if n, ok := hit.Fields["answer_count"].(float64); ok {
			searchHit.AnswerCount = int(n)
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	if facet, ok := searchResult.Facets["tags"]; ok && facet.Terms != nil {
		for _, term := range facet.Terms.Terms() {
			result.Tags = append(result.Tags, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	return result, nil
}

// storedStrings reads a stored multi-value field. Bleve returns a plain
// string when the field held a single value.
func storedStrings(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// buildSearchQuery constructs the Bleve query from params.
//
// Text matches are OR-ed: title (boost 3), tag slug (boost 2), description
// (boost 1), a fuzzy title match for typos and a title prefix for
// search-as-you-type. Filters are AND-ed on top.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	text := strings.TrimSpace(params.Query)
	if text != "" {
		textQueries := []query.Query{}

		titleMatch := bleve.NewMatchQuery(text)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)
		textQueries = append(textQueries, titleMatch)

		if slug := util.NormalizeTagSlug(text); slug != "" {
			tagMatch := bleve.NewTermQuery(slug)
			tagMatch.SetField("tags")
			tagMatch.SetBoost(2.0)
			textQueries = append(textQueries, tagMatch)
		}

		descMatch := bleve.NewMatchQuery(text)
		descMatch.SetField("description")
		descMatch.SetBoost(1.0)
		textQueries = append(textQueries, descMatch)

		fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(text))
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars)
		if len(text) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(text))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.Tags) > 0 {
		tagQueries := make([]query.Query, 0, len(params.Tags))
		for _, tag := range params.Tags {
			tq := bleve.NewTermQuery(util.NormalizeTagSlug(tag))
			tq.SetField("tags")
			tagQueries = append(tagQueries, tq)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(tagQueries...))
	}

	if params.UnansweredOnly {
		zero := 0.0
		inclusive := true
		rangeQuery := bleve.NewNumericRangeInclusiveQuery(&zero, &zero, &inclusive, &inclusive)
		rangeQuery.SetField("answer_count")
		queries = append(queries, rangeQuery)
	}

	if len(queries) == 0 {
		return bleve.NewMatchAllQuery()
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order. Ties fall back to score, then id.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case SortRecent:
		req.SortBy([]string{"-created_at", "_id"})
	case SortVotes:
		req.SortBy([]string{"-votes", "-_score", "_id"})
	default:
		req.SortBy([]string{"-_score", "_id"})
	}
}
