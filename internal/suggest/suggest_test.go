package suggest

import (
	"testing"

	"github.com/hyperjump/synergy/internal/models"
)

func newChampionSuggester(t *testing.T) *Suggester {
	t.Helper()
	s := New()
	ids := []string{"Teemo", "Jarvan IV", "Ahri", "Aatrox", "Miss Fortune", "Kai'Sa"}
	if err := s.Index(models.CategoryChampions, ids); err != nil {
		t.Fatalf("Index: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestSuggest(t *testing.T) {
	s := newChampionSuggester(t)
	tests := []struct {
		input string
		want  string
	}{
		{"Temo", "Teemo"},
		{"teemo", "Teemo"},
		{"jarvan", "Jarvan IV"},
		{"Ahrii", "Ahri"},
		{"miss fortun", "Miss Fortune"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := s.Suggest(models.CategoryChampions, tt.input)
			if len(got) == 0 || got[0] != tt.want {
				t.Errorf("Suggest(%q) = %v, want %q first", tt.input, got, tt.want)
			}
		})
	}
}

func TestSuggest_Limits(t *testing.T) {
	s := newChampionSuggester(t)
	if got := s.Suggest(models.CategoryChampions, "a"); len(got) > 3 {
		t.Errorf("expected at most 3 suggestions, got %v", got)
	}
	if got := s.Suggest(models.CategoryChampions, "zzzzzzzz"); len(got) != 0 {
		t.Errorf("expected no suggestions, got %v", got)
	}
	if got := s.Suggest(models.CategoryChampions, "   "); got != nil {
		t.Errorf("blank input: got %v", got)
	}
	if got := s.Suggest(models.CategoryItems, "Teemo"); got != nil {
		t.Errorf("category without index: got %v", got)
	}
}

func TestSuggest_WithMaxSuggestions(t *testing.T) {
	s := New(WithMaxSuggestions(1))
	defer s.Close()
	if err := s.Index(models.CategoryItems, []string{"Sword", "Swords Edge", "Bow"}); err != nil {
		t.Fatal(err)
	}
	got := s.Suggest(models.CategoryItems, "swrd")
	if len(got) != 1 || got[0] != "Sword" {
		t.Errorf("got %v", got)
	}
}

func TestSuggest_Reindex(t *testing.T) {
	s := newChampionSuggester(t)
	if err := s.Index(models.CategoryChampions, []string{"Zed"}); err != nil {
		t.Fatal(err)
	}
	if got := s.Suggest(models.CategoryChampions, "Temo"); contains(got, "Teemo") {
		t.Errorf("old names should be gone after reindex, got %v", got)
	}
}

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"Teemo", "teemo", 0},
		{"Temo", "Teemo", 1},
		{"ab", "ba", 1},
		{"kitten", "sitting", 3},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := editDistance(tt.b, tt.a); got != tt.want {
			t.Errorf("editDistance not symmetric for %q, %q", tt.a, tt.b)
		}
	}
}
