package announce

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	yaml "go.yaml.in/yaml/v3"

	"bonjourarcade/internal/catalog"
	"bonjourarcade/pkg/logx"
)

var testGame = catalog.GameRecord{
	ID:        "pacman",
	Title:     "Pac-Man",
	Developer: "Namco",
	Year:      "1980",
	Genre:     "Labyrinthe",
	System:    "Arcade",
}

func TestPrompt(t *testing.T) {
	t.Parallel()
	p := Prompt(testGame)
	for _, want := range []string{
		"Titre : Pac-Man",
		"Développeur : Namco",
		"Année : 1980",
		"Genre : Labyrinthe",
		"Système : Arcade",
		"Maximum 4 phrases",
		"Génère maintenant l'annonce pour Pac-Man :",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestPromptMissingFields(t *testing.T) {
	t.Parallel()
	p := Prompt(catalog.GameRecord{ID: "mystery"})
	if !strings.Contains(p, "Titre : mystery") {
		t.Fatalf("id should stand in for a missing title:\n%s", p)
	}
	if !strings.Contains(p, "Développeur : Unknown") {
		t.Fatalf("missing fields should read Unknown:\n%s", p)
	}
}

func TestClean(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in, want string
	}{
		{`"Découvrez Pac-Man !"`, "Découvrez Pac-Man !"},
		{"'Une annonce'", "Une annonce"},
		{"Ligne un.\n\nLigne deux.", "Ligne un. Ligne deux."},
		{"  déjà propre  ", "déjà propre"},
	}
	for _, tc := range cases {
		if got := Clean(tc.in); got != tc.want {
			t.Fatalf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()
	text := "Une. Deux. Trois. Quatre. Cinq. Six."
	got := Truncate(text, 4)
	if got != "Une. Deux. Trois. Quatre." {
		t.Fatalf("Truncate = %q", got)
	}
	short := "Une. Deux."
	if got := Truncate(short, 4); got != short {
		t.Fatalf("short text should pass through, got %q", got)
	}
}

type fakeGenerator struct {
	reply string
	err   error
	got   string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.got = prompt
	return f.reply, f.err
}

func (f *fakeGenerator) Name() string { return "fake" }

func TestGenerateTruncatesLongReply(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{reply: "\"Une. Deux. Trois. Quatre. Cinq.\""}
	got, err := Generate(context.Background(), gen, testGame, logx.Nop())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "Une. Deux. Trois. Quatre." {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(gen.got, "Pac-Man") {
		t.Fatalf("prompt not forwarded: %q", gen.got)
	}
}

func TestGenerateErrors(t *testing.T) {
	t.Parallel()
	gen := &fakeGenerator{err: errors.New("backend down")}
	if _, err := Generate(context.Background(), gen, testGame, logx.Nop()); err == nil {
		t.Fatal("expected error")
	}
	gen = &fakeGenerator{reply: "  \n "}
	if _, err := Generate(context.Background(), gen, testGame, logx.Nop()); err == nil {
		t.Fatal("expected error for empty reply")
	}
}

func TestNewGenerator(t *testing.T) {
	t.Parallel()
	for _, svc := range []string{"openai", "claude", "Anthropic"} {
		g, err := NewGenerator(svc, "key")
		if err != nil {
			t.Fatalf("NewGenerator(%q): %v", svc, err)
		}
		if g.Name() == "" {
			t.Fatalf("generator %q has no name", svc)
		}
	}
	if _, err := NewGenerator("bard", "key"); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("expected ErrNoBackend, got %v", err)
	}
}

func TestUpdateMetadata(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "metadata.yaml")
	original := "title: Pac-Man\ndeveloper: Namco\nyear: 1980\n"
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := UpdateMetadata(path, "Découvrez Pac-Man, le classique de Namco !"); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		t.Fatalf("rewritten file is not valid yaml: %v", err)
	}
	if m["announcement_message"] != "Découvrez Pac-Man, le classique de Namco !" {
		t.Fatalf("announcement not written: %v", m)
	}
	if m["title"] != "Pac-Man" || m["developer"] != "Namco" {
		t.Fatalf("existing keys lost: %v", m)
	}
	// Key order survives the node-tree rewrite.
	text := string(b)
	if strings.Index(text, "title:") > strings.Index(text, "developer:") {
		t.Fatalf("key order not preserved:\n%s", text)
	}
}

func TestUpdateMetadataReplacesExisting(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "metadata.yaml")
	original := "title: Pac-Man\nannouncement_message: ancien texte\ngenre: Labyrinthe\n"
	if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := UpdateMetadata(path, "nouveau texte"); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	b, _ := os.ReadFile(path)
	var m map[string]any
	if err := yaml.Unmarshal(b, &m); err != nil {
		t.Fatal(err)
	}
	if m["announcement_message"] != "nouveau texte" {
		t.Fatalf("announcement not replaced: %v", m)
	}
	if m["genre"] != "Labyrinthe" {
		t.Fatalf("other keys lost: %v", m)
	}
}
