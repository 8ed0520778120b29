package catalog

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"bonjourarcade/pkg/logx"
)

func testCatalog(titles map[string]string) *Catalog {
	ids := make([]string, 0, len(titles))
	for id := range titles {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	c := &Catalog{}
	for _, id := range ids {
		c.games = append(c.games, GameRecord{ID: id, Title: titles[id]})
	}
	return c
}

func TestResolveExact(t *testing.T) {
	t.Parallel()
	c := testCatalog(map[string]string{"pacman": "Pac-Man", "galaga": "Galaga"})
	g, err := c.Resolve("Pac-Man", logx.Nop())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if g.ID != "pacman" {
		t.Fatalf("id = %s, want pacman", g.ID)
	}
}

func TestResolveExactBeatsFuzzy(t *testing.T) {
	t.Parallel()
	// Both titles would pass the fuzzy tier; exact equality must win even
	// though the fuzzy candidate comes first in iteration order.
	c := &Catalog{games: []GameRecord{
		{ID: "pacman-plus", Title: "Pac-Man Plus"},
		{ID: "pacman", Title: "Pac-Man"},
	}}
	g, err := c.Resolve("Pac-Man", logx.Nop())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if g.ID != "pacman" {
		t.Fatalf("id = %s, want pacman", g.ID)
	}
}

func TestResolveCaseInsensitive(t *testing.T) {
	t.Parallel()
	c := testCatalog(map[string]string{"galaga": "Galaga"})
	g, err := c.Resolve("GALAGA", logx.Nop())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if g.ID != "galaga" {
		t.Fatalf("id = %s, want galaga", g.ID)
	}
}

func TestResolveSingleWordContainment(t *testing.T) {
	t.Parallel()
	c := testCatalog(map[string]string{"zelda": "The Legend of Zelda (NES)"})
	g, err := c.Resolve("Zelda", logx.Nop())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if g.ID != "zelda" {
		t.Fatalf("id = %s, want zelda", g.ID)
	}
}

func TestResolveShortWordGuard(t *testing.T) {
	t.Parallel()
	c := testCatalog(map[string]string{"gorf": "Gorf"})
	_, err := c.Resolve("Go", logx.Nop())
	if !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestResolveMultiWordTokens(t *testing.T) {
	t.Parallel()
	c := testCatalog(map[string]string{
		"mslug3": "Metal Slug 3 (Arcade)",
		"bf":     "Balloon Fight",
	})

	// Two of three tokens appear in the candidate title.
	g, err := c.Resolve("Metal Slug X", logx.Nop())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if g.ID != "mslug3" {
		t.Fatalf("id = %s, want mslug3", g.ID)
	}

	// Only one token matches: not enough.
	if _, err := c.Resolve("Balloon Kid", logx.Nop()); !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
}

func TestResolveNotFoundCarriesTitle(t *testing.T) {
	t.Parallel()
	c := testCatalog(map[string]string{"galaga": "Galaga"})
	_, err := c.Resolve("Q*bert", logx.Nop())
	if !errors.Is(err, ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "Q*bert") {
		t.Fatalf("error should name the searched title: %q", got)
	}
}
