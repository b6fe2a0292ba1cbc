package search

import (
	"reflect"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestBuildFilterExpression(t *testing.T) {
	tests := []struct {
		name   string
		params FilterParams
		want   string
	}{
		{
			name:   "no filters",
			params: FilterParams{},
			want:   "",
		},
		{
			name:   "public only",
			params: FilterParams{PublicOnly: true},
			want:   "is_public = true",
		},
		{
			name:   "year range",
			params: FilterParams{MinYear: intPtr(1960), MaxYear: intPtr(1970)},
			want:   "year >= 1960 AND year <= 1970",
		},
		{
			name:   "single make",
			params: FilterParams{Makes: []string{"Ferrari"}},
			want:   "(make = 'Ferrari')",
		},
		{
			name:   "multiple makes ORed",
			params: FilterParams{Makes: []string{"Ferrari", "Porsche"}},
			want:   "(make = 'Ferrari' OR make = 'Porsche')",
		},
		{
			name: "everything combined",
			params: FilterParams{
				MinYear:    intPtr(1950),
				Makes:      []string{"Jaguar"},
				UserID:     "alice",
				PublicOnly: true,
			},
			want: "year >= 1950 AND (make = 'Jaguar') AND user_id = 'alice' AND is_public = true",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildFilterExpression(tt.params); got != tt.want {
				t.Errorf("buildFilterExpression() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildSortExpression(t *testing.T) {
	tests := []struct {
		sortBy string
		want   []string
	}{
		{"year_asc", []string{"year:asc"}},
		{"year_desc", []string{"year:desc"}},
		{"price_desc", []string{"sale_price:desc"}},
		{"newest", []string{"created_at:desc"}},
		{"", nil},
		{"garbage", nil},
	}

	for _, tt := range tests {
		got := buildSortExpression(tt.sortBy)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("buildSortExpression(%q) = %v, want %v", tt.sortBy, got, tt.want)
		}
	}
}
