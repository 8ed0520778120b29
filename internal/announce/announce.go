// Package announce generates the French announcement paragraph for a
// game through a hosted language model, and can write it back into the
// game's metadata file.
package announce

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"bonjourarcade/internal/catalog"
	"bonjourarcade/pkg/logx"
)

// MaxSentences caps the generated announcement length.
const MaxSentences = 4

var ErrNoBackend = errors.New("unknown ai service")

// Generator produces the announcement text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}

// Prompt builds the generation request for a game. The examples anchor
// the register and length the newsletter expects.
func Prompt(g catalog.GameRecord) string {
	title := g.Title
	if title == "" {
		title = g.ID
	}
	var b strings.Builder
	b.WriteString("Tu es un expert en jeux vidéo rétro qui écrit des annonces pour une newsletter hebdomadaire en français invitant les joueurs à tester ce jeu.\n\n")
	b.WriteString("Voici les informations sur le jeu de la semaine :\n\n")
	fmt.Fprintf(&b, "Titre : %s\n", title)
	fmt.Fprintf(&b, "Développeur : %s\n", orUnknown(g.Developer))
	fmt.Fprintf(&b, "Année : %s\n", orUnknown(g.Year))
	fmt.Fprintf(&b, "Genre : %s\n", orUnknown(g.Genre))
	fmt.Fprintf(&b, "Système : %s\n\n", orUnknown(g.System))
	b.WriteString("Ta tâche : Écrire une annonce en français qui décrit ce jeu de manière attrayante et engageante.\n\n")
	b.WriteString("RÈGLES STRICTES :\n")
	fmt.Fprintf(&b, "- Maximum %d phrases complètes\n", MaxSentences)
	b.WriteString("- Ton enthousiaste et positif, adressé à la deuxième personne du pluriel.\n")
	b.WriteString("- Décris pourquoi ce jeu est spécial ou amusant\n")
	b.WriteString("- Mentionne un aspect unique ou intéressant\n")
	b.WriteString("- Évite les clichés génériques\n")
	b.WriteString("- Écris en français naturel et fluide\n\n")
	fmt.Fprintf(&b, "Génère maintenant l'annonce pour %s :", title)
	return b.String()
}

func orUnknown(v string) string {
	if strings.TrimSpace(v) == "" {
		return "Unknown"
	}
	return v
}

var (
	surroundingQuotes = regexp.MustCompile(`^["']|["']$`)
	newlineRuns       = regexp.MustCompile(`\n+`)
)

// Clean normalizes a model response: surrounding quotes stripped,
// newlines flattened to spaces.
func Clean(raw string) string {
	s := strings.TrimSpace(raw)
	s = surroundingQuotes.ReplaceAllString(s, "")
	s = newlineRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Truncate keeps at most max sentences, re-terminated with a period.
func Truncate(text string, max int) string {
	var sentences []string
	for _, s := range strings.Split(text, ".") {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) <= max {
		return text
	}
	return strings.Join(sentences[:max], ". ") + "."
}

// SentenceCount counts non-empty period-delimited segments.
func SentenceCount(text string) int {
	n := 0
	for _, s := range strings.Split(text, ".") {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	return n
}

// Generate runs the full prompt/generate/clean/truncate pipeline.
func Generate(ctx context.Context, gen Generator, g catalog.GameRecord, log logx.Logger) (string, error) {
	prompt := Prompt(g)
	raw, err := gen.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate announcement: %w", err)
	}
	text := Clean(raw)
	if text == "" {
		return "", errors.New("model returned an empty announcement")
	}
	if n := SentenceCount(text); n > MaxSentences {
		log.Warn("announcement too long, truncating",
			logx.Int("sentences", n), logx.Int("max", MaxSentences))
		text = Truncate(text, MaxSentences)
	}
	return text, nil
}

// NewGenerator selects a backend by name. Service names follow the CLI
// flag values: "openai" or "claude".
func NewGenerator(service, apiKey string) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(service)) {
	case "openai":
		return &openAIGenerator{apiKey: apiKey}, nil
	case "claude", "anthropic":
		return &claudeGenerator{apiKey: apiKey}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoBackend, service)
	}
}
