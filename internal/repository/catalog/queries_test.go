package catalog

import (
	"strings"
	"testing"

	"github.com/moviemind/moviemind/internal/domain/movie"
)

func TestBuildFilter_Empty(t *testing.T) {
	where, args := buildFilter(movie.Filter{})
	if where != "1=1" {
		t.Errorf("where = %q, want 1=1", where)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestBuildFilter_AllConditions(t *testing.T) {
	where, args := buildFilter(movie.Filter{
		Genre:     "科幻",
		YearStart: 1990,
		YearEnd:   2010,
		MinRating: 8.5,
	})

	for i, frag := range []string{"g.name = $1", "m.year >= $2", "m.year <= $3", "m.rating >= $4"} {
		if !strings.Contains(where, frag) {
			t.Errorf("condition %d: %q missing from %q", i, frag, where)
		}
	}
	if strings.Count(where, " AND ") < 3 {
		t.Errorf("expected conditions joined with AND, got %q", where)
	}

	want := []any{"科幻", 1990, 2010, 8.5}
	if len(args) != len(want) {
		t.Fatalf("args = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %v, want %v", i, args[i], want[i])
		}
	}
}

func TestBuildFilter_PlaceholdersFollowArgs(t *testing.T) {
	where, args := buildFilter(movie.Filter{YearEnd: 2000, MinRating: 9})
	if !strings.Contains(where, "m.year <= $1") || !strings.Contains(where, "m.rating >= $2") {
		t.Errorf("unexpected placeholders: %q", where)
	}
	if len(args) != 2 {
		t.Errorf("expected 2 args, got %d", len(args))
	}
}

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"海", "%海%"},
		{"100%", `%100\%%`},
		{"a_b", `%a\_b%`},
		{`c:\dir`, `%c:\\dir%`},
	}
	for _, tc := range tests {
		if got := containsPattern(tc.in); got != tc.want {
			t.Errorf("containsPattern(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
