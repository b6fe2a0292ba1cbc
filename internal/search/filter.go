package search

import (
	"fmt"
	"strings"

	"github.com/meilisearch/meilisearch-go"

	"github.com/sss97133/nuke-sub012/internal/models"
)

type FilterParams struct {
	Query      string
	MinYear    *int
	MaxYear    *int
	Makes      []string
	UserID     string
	PublicOnly bool
	SortBy     string
	Limit      int64
}

// buildFilterExpression assembles the Meilisearch filter string
func buildFilterExpression(params FilterParams) string {
	var filters []string

	if params.MinYear != nil {
		filters = append(filters, fmt.Sprintf("year >= %d", *params.MinYear))
	}
	if params.MaxYear != nil {
		filters = append(filters, fmt.Sprintf("year <= %d", *params.MaxYear))
	}

	if len(params.Makes) > 0 {
		makeFilters := make([]string, len(params.Makes))
		for i, make := range params.Makes {
			makeFilters[i] = fmt.Sprintf("make = '%s'", make)
		}
		filters = append(filters, fmt.Sprintf("(%s)", strings.Join(makeFilters, " OR ")))
	}

	if params.UserID != "" {
		filters = append(filters, fmt.Sprintf("user_id = '%s'", params.UserID))
	}

	// Anonymous and non-owner searches only see public vehicles
	if params.PublicOnly {
		filters = append(filters, "is_public = true")
	}

	return strings.Join(filters, " AND ")
}

// buildSortExpression maps the API sort keys to index sort rules
func buildSortExpression(sortBy string) []string {
	switch sortBy {
	case "year_asc":
		return []string{"year:asc"}
	case "year_desc":
		return []string{"year:desc"}
	case "price_desc":
		return []string{"sale_price:desc"}
	case "newest":
		return []string{"created_at:desc"}
	default:
		return nil
	}
}

// FilterSearch performs vehicle search with filters
func (s *SearchClient) FilterSearch(params FilterParams) ([]models.Vehicle, error) {
	if params.Limit == 0 {
		params.Limit = 20
	}

	searchReq := &meilisearch.SearchRequest{
		Limit: params.Limit,
	}

	if filterStr := buildFilterExpression(params); filterStr != "" {
		searchReq.Filter = filterStr
	}
	if sort := buildSortExpression(params.SortBy); len(sort) > 0 {
		searchReq.Sort = sort
	}

	searchRes, err := s.client.Index(s.index).Search(params.Query, searchReq)
	if err != nil {
		return nil, err
	}

	return decodeHits(searchRes.Hits), nil
}
