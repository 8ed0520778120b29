package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bonjourarcade/internal/config"
	"bonjourarcade/internal/dispatch"
	"bonjourarcade/internal/message"
	"bonjourarcade/pkg/logx"
)

// fixedNow is a Monday in ISO week 33 of 2025.
var fixedNow = time.Date(2025, 8, 11, 9, 0, 0, 0, time.UTC)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Paths.Predictions = filepath.Join(root, "predictions.yaml")
	cfg.Paths.Gamelist = filepath.Join(root, "gamelist.json")
	cfg.Paths.GamesDir = filepath.Join(root, "games")
	cfg.Paths.WebhookMap = filepath.Join(root, "webhook_map.json")

	writeTestFile(t, cfg.Paths.Predictions, `
202532: "Galaga"
202533: "Pac-Man"
202534:
  title: "Metal Slug X"
  game_id: mslugx
202540: "Bubble Bobble"
`)
	writeTestFile(t, cfg.Paths.Gamelist, `{
		"gameOfTheWeek": {"id": "galaga", "title": "Galaga"},
		"previousGames": [
			{"id": "pacman", "title": "Pac-Man (Arcade)"},
			{"id": "bbobble", "title": "Bubble Bobble"}
		]
	}`)
	writeTestFile(t, filepath.Join(cfg.Paths.GamesDir, "pacman", "metadata.yaml"),
		"title: Pac-Man (Arcade)\ndeveloper: Namco\nyear: 1980\ngenre: Labyrinthe\n")

	p := New(cfg, logx.Nop())
	p.Now = func() time.Time { return fixedNow }
	return p
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWeekSeed(t *testing.T) {
	t.Parallel()
	p := testPipeline(t)

	sd, err := p.WeekSeed("")
	if err != nil {
		t.Fatalf("WeekSeed: %v", err)
	}
	if sd.String() != "202533" {
		t.Fatalf("current seed = %s", sd)
	}

	sd, err = p.WeekSeed("202409")
	if err != nil || sd.String() != "202409" {
		t.Fatalf("override seed = %s, %v", sd, err)
	}

	if _, err := p.WeekSeed("garbage"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestResolveByTitle(t *testing.T) {
	t.Parallel()
	p := testPipeline(t)
	sd, _ := p.WeekSeed("202533")
	sel, err := p.Resolve(sd)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sel.Game.ID != "pacman" {
		t.Fatalf("game id = %q", sel.Game.ID)
	}
	// Full metadata loaded from the games directory.
	if sel.Game.Developer != "Namco" {
		t.Fatalf("metadata not loaded: %+v", sel.Game)
	}
}

func TestResolveByExplicitGameID(t *testing.T) {
	t.Parallel()
	p := testPipeline(t)
	sd, _ := p.WeekSeed("202534")
	sel, err := p.Resolve(sd)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// No metadata dir for mslugx; the id and scheduled title stand in.
	if sel.Game.ID != "mslugx" || sel.Game.Title != "Metal Slug X" {
		t.Fatalf("selection: %+v", sel.Game)
	}
}

func TestResolveMissingPrediction(t *testing.T) {
	t.Parallel()
	p := testPipeline(t)
	sd, _ := p.WeekSeed("209901")
	if _, err := p.Resolve(sd); !errors.Is(err, ErrNoPrediction) {
		t.Fatalf("expected ErrNoPrediction, got %v", err)
	}
}

func TestTitleStatus(t *testing.T) {
	t.Parallel()
	p := testPipeline(t)
	cases := []struct {
		title, want string
	}{
		{"Pac-Man", "SHOW_GAME"},      // current week
		{"Galaga", "SHOW_GAME"},       // past week
		{"Bubble Bobble", "HIDE_GAME"}, // future week
		{"Tetris", "NOT_IN_PREDICTIONS"},
	}
	for _, tc := range cases {
		got, err := p.TitleStatus(tc.title)
		if err != nil {
			t.Fatalf("TitleStatus(%q): %v", tc.title, err)
		}
		if got != tc.want {
			t.Fatalf("TitleStatus(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestAnnounceDryRun(t *testing.T) {
	p := testPipeline(t)
	t.Setenv("CONVERTKIT_API_SECRET", "sk-test")

	rep, err := p.Announce(context.Background(), AnnounceOptions{
		DryRun: true,
		Intro:  message.Static("Bonne rentrée !"),
	})
	if err != nil {
		t.Fatalf("Announce: %v", err)
	}
	if rep.Sent() != 1 || rep.EmailFailed() {
		t.Fatalf("report: %+v", rep.Outcomes)
	}
}

func TestAnnouncePropagatesAbort(t *testing.T) {
	p := testPipeline(t)

	abort := providerFunc(func(context.Context) (string, error) {
		return "", message.ErrAborted
	})
	_, err := p.Announce(context.Background(), AnnounceOptions{DryRun: true, Intro: abort})
	if !errors.Is(err, message.ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestAnnounceMailOnlyFilter(t *testing.T) {
	p := testPipeline(t)
	t.Setenv("CONVERTKIT_API_SECRET", "sk-test")
	writeTestFile(t, p.Cfg.Paths.WebhookMap, `{"Discord": {"env": "D_HOOK", "type": "discord"}}`)
	t.Setenv("D_HOOK", "http://127.0.0.1:1/hook")

	rep, err := p.Announce(context.Background(), AnnounceOptions{
		DryRun: true,
		Filter: dispatch.Filter{MailOnly: true},
	})
	if err != nil {
		t.Fatalf("Announce: %v", err)
	}
	if len(rep.Outcomes) != 1 || rep.Outcomes[0].Type != dispatch.TypeEmail {
		t.Fatalf("filter leaked non-email channels: %+v", rep.Outcomes)
	}
}

type providerFunc func(ctx context.Context) (string, error)

func (f providerFunc) Message(ctx context.Context) (string, error) { return f(ctx) }
