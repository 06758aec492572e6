package post

import (
	"reflect"
	"testing"
)

var testPosts = []Summary{
	{Slug: "go-caching", Title: "Caching in Go", Excerpt: "TTL maps and friends", Categories: []string{"Go", "backend"}},
	{Slug: "attention", Title: "Visualizing Attention", Excerpt: "Transformers, drawn", Categories: []string{"ml"}},
	{Slug: "notes", Title: "Notes", Excerpt: "Miscellany"},
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		category string
		want     []string
	}{
		{"no filter", "", "", []string{"go-caching", "attention", "notes"}},
		{"title query", "caching", "", []string{"go-caching"}},
		{"excerpt query is case insensitive", "TRANSFORMERS", "", []string{"attention"}},
		{"category", "", "go", []string{"go-caching"}},
		{"category with padding", "", "  ML ", []string{"attention"}},
		{"query and category", "notes", "ml", nil},
		{"no match", "rust", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, p := range Filter(testPosts, tt.query, tt.category) {
				got = append(got, p.Slug)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter(%q, %q) = %v, want %v", tt.query, tt.category, got, tt.want)
			}
		})
	}
}

func TestCategories(t *testing.T) {
	got := Categories(testPosts)
	want := []string{"backend", "go", "ml"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Categories = %v, want %v", got, want)
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := CategoryLabel("machine-learning"); got != "Machine Learning" {
		t.Errorf("CategoryLabel = %q, want %q", got, "Machine Learning")
	}
}

func TestDetailSummary(t *testing.T) {
	d := Detail{Slug: "a", Title: "A", Date: "2024-01-02", Excerpt: "x", Categories: []string{"go"}, Content: "body"}
	want := Summary{Slug: "a", Title: "A", Date: "2024-01-02", Excerpt: "x", Categories: []string{"go"}}
	if got := d.Summary(); !reflect.DeepEqual(got, want) {
		t.Errorf("Summary() = %+v, want %+v", got, want)
	}
}
