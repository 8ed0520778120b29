// Package compose renders the weekly announcement content from a game
// record: an HTML email body and a plain-text body shared by every chat
// channel.
//
// Rendering is a pure function of its inputs. The plain body carries a
// neutral {b} bold placeholder; each channel substitutes its own markup
// at send time, so no channel syntax leaks into the template.
package compose

import (
	"fmt"
	"regexp"
	"strings"

	"bonjourarcade/internal/catalog"
	"bonjourarcade/internal/seed"
)

// Content is produced once per run and shared read-only across channels.
type Content struct {
	Subject     string
	Description string
	HTMLBody    string
	PlainBody   string
}

// Links are the public URLs the announcement points at.
type Links struct {
	Play        string
	Cover       string
	Leaderboard string
	Plinko      string
}

// Options parameterizes one rendering.
type Options struct {
	Links       Links
	CustomIntro string
}

const (
	joystickGlyph = "🕹️"
	buttonGlyph   = "🔴"

	// French placeholder values matching the site's tone.
	unknownDeveloper = "Inconnu"
	unknownYear      = "Inconnue"
	unknownGenre     = "Non spécifié"
)

var digitGlyphs = []string{"1️⃣", "2️⃣", "3️⃣", "4️⃣", "5️⃣", "6️⃣", "7️⃣", "8️⃣", "9️⃣", "0️⃣"}

var parenthetical = regexp.MustCompile(`\s*\([^)]*\)`)

// CleanTitle strips parenthetical annotations for display contexts. The
// raw title stays untouched for lookups.
func CleanTitle(title string) string {
	return strings.TrimSpace(parenthetical.ReplaceAllString(title, ""))
}

// SummarizeControls collapses a controls list into a compact glyph
// string: the leading glyph of each line, digit-in-box glyphs mapped to a
// generic button. Two or more joystick lines collapse the whole summary
// to a fixed two-joystick string.
func SummarizeControls(controls []string) string {
	joysticks := 0
	for _, line := range controls {
		if strings.HasPrefix(strings.TrimSpace(line), joystickGlyph) {
			joysticks++
		}
	}
	if joysticks >= 2 {
		return joystickGlyph + joystickGlyph
	}

	parts := make([]string, 0, len(controls))
	for _, line := range controls {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		first := strings.Fields(line)[0]
		for _, d := range digitGlyphs {
			if first == d {
				first = buttonGlyph
				break
			}
		}
		parts = append(parts, first)
	}
	return strings.Join(parts, " ")
}

// GameLinks derives the announcement URLs from the site bases, the game
// id and the weekly seed.
func GameLinks(baseURL, playBase, leaderboardBase, plinkoBase, gameID string, s seed.Seed) Links {
	return Links{
		Play:        fmt.Sprintf("%s/%s", playBase, gameID),
		Cover:       fmt.Sprintf("%s/games/%s/cover.png", baseURL, gameID),
		Leaderboard: fmt.Sprintf("%s/%s", leaderboardBase, gameID),
		Plinko:      fmt.Sprintf("%s/%s", plinkoBase, s),
	}
}

// Render produces the announcement content for a game.
func Render(g catalog.GameRecord, opts Options) Content {
	title := g.Title
	if title == "" {
		title = g.ID
	}
	clean := CleanTitle(title)

	developer := orDefault(g.Developer, unknownDeveloper)
	year := orDefault(g.Year, unknownYear)
	genre := orDefault(g.Genre, unknownGenre)
	controls := SummarizeControls(g.Controls)

	return Content{
		Subject:     "🕹️ Jeu de la semaine - " + title,
		Description: clean,
		HTMLBody:    renderHTML(clean, developer, year, genre, controls, opts),
		PlainBody:   renderPlain(title, developer, year, genre, controls, opts),
	}
}

func renderHTML(clean, developer, year, genre, controls string, opts Options) string {
	var b strings.Builder
	b.WriteString("<html><body>\n")
	if opts.CustomIntro != "" {
		fmt.Fprintf(&b, "<div style=\"margin-bottom:18px;font-size:1.1em;\">%s</div>\n", opts.CustomIntro)
	}
	b.WriteString("<ul>\n")
	fmt.Fprintf(&b, "<li><b>Titre :</b> %s</li>\n", clean)
	fmt.Fprintf(&b, "<li><b>Développeur :</b> %s</li>\n", developer)
	fmt.Fprintf(&b, "<li><b>Année :</b> %s</li>\n", year)
	fmt.Fprintf(&b, "<li><b>Genre :</b> %s</li>\n", genre)
	fmt.Fprintf(&b, "<li><b>Contrôles :</b> %s</li>\n", controls)
	b.WriteString("</ul>\n")
	b.WriteString("<div style=\"text-align:center;margin:24px 0;\">\n")
	fmt.Fprintf(&b, "<a href=\"%s\" style=\"display:inline-block;background:#fffd37;color:#111;padding:18px 36px;border-radius:6px;text-decoration:none;font-weight:bold;font-size:1.3em;margin-right:18px;\">🕹️ Jouer maintenant</a>\n", opts.Links.Play)
	fmt.Fprintf(&b, "<a href=\"%s\" style=\"display:inline-block;background:#007bff;color:#fff;padding:18px 36px;border-radius:6px;text-decoration:none;font-weight:bold;font-size:1.3em;\">🏆 Classements</a>\n", opts.Links.Leaderboard)
	b.WriteString("</div>\n")
	fmt.Fprintf(&b, "<img src=\"%s\" alt=\"Couverture de %s\" style=\"max-width:320px;width:100%%;border-radius:8px;display:block;margin:0 auto 16px auto;\">\n", opts.Links.Cover, clean)
	b.WriteString("<div style=\"text-align:center;margin:8px 0 24px 0;font-size:1em;\">\n")
	fmt.Fprintf(&b, "<a href=\"%s\" style=\"color:#007bff;text-decoration:underline;\">🎲 Voir le tirage plinko</a>\n", opts.Links.Plinko)
	b.WriteString("</div>\n</body></html>")
	return b.String()
}

func renderPlain(title, developer, year, genre, controls string, opts Options) string {
	var b strings.Builder
	if opts.CustomIntro != "" {
		b.WriteString(opts.CustomIntro)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "{b}Jeu de la semaine :{b} %s\n", title)
	fmt.Fprintf(&b, "{b}Développeur :{b} %s\n", developer)
	fmt.Fprintf(&b, "{b}Année :{b} %s\n", year)
	fmt.Fprintf(&b, "{b}Genre :{b} %s\n", genre)
	fmt.Fprintf(&b, "{b}Contrôles :{b} %s\n", controls)
	fmt.Fprintf(&b, "{b}Image :{b} %s\n", opts.Links.Cover)
	fmt.Fprintf(&b, "🎲 {b}Tirage Plinko :{b} %s\n\n", opts.Links.Plinko)
	fmt.Fprintf(&b, "🕹️ {b}Faites-en l'essai :{b} %s\n", opts.Links.Play)
	fmt.Fprintf(&b, "🏆 {b}Classements :{b} %s\n\n", opts.Links.Leaderboard)
	b.WriteString("Bonne semaine ! ☀️")
	return b.String()
}

// WithBold substitutes the neutral bold placeholder with a channel's
// markup convention.
func WithBold(plain, bold string) string {
	return strings.ReplaceAll(plain, "{b}", bold)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
