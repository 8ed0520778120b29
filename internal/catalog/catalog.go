// Package catalog loads game records and resolves scheduled titles to
// concrete game ids.
//
// Two catalog shapes exist: the generated gamelist.json (id + title per
// entry) and the games directory holding one metadata.yaml per game.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	yaml "go.yaml.in/yaml/v3"

	"bonjourarcade/pkg/logx"
)

// GameRecord is one catalog entry. Directory-sourced records carry full
// metadata; gamelist-sourced records only have ID and Title.
type GameRecord struct {
	ID           string
	Title        string
	Developer    string
	Year         string
	Genre        string
	System       string
	Controls     []string
	Announcement string
}

// Catalog is an ordered list of game records. Order matters: fuzzy
// resolution returns the first match in iteration order.
type Catalog struct {
	games []GameRecord
}

func (c *Catalog) Games() []GameRecord { return c.games }
func (c *Catalog) Len() int            { return len(c.games) }

// gamelistDoc mirrors the generated gamelist.json.
type gamelistDoc struct {
	GameOfTheWeek *gamelistEntry  `json:"gameOfTheWeek"`
	PreviousGames []gamelistEntry `json:"previousGames"`
}

type gamelistEntry struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// LoadGamelist reads the consolidated gamelist document. The
// game-of-the-week entry comes first, then previous games in document
// order, matching how the site generator emits them.
func LoadGamelist(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read gamelist: %w", err)
	}
	// Not strict: the generated document carries presentation fields
	// (cover paths, dates) this tool has no use for.
	var doc gamelistDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse gamelist: %w", err)
	}

	c := &Catalog{}
	if doc.GameOfTheWeek != nil && doc.GameOfTheWeek.ID != "" {
		c.games = append(c.games, GameRecord{ID: doc.GameOfTheWeek.ID, Title: doc.GameOfTheWeek.Title})
	}
	for _, e := range doc.PreviousGames {
		c.games = append(c.games, GameRecord{ID: e.ID, Title: e.Title})
	}
	return c, nil
}

// LoadGamesDir builds a catalog from a directory of per-game metadata
// files. Entries iterate in sorted id order so resolution is
// reproducible regardless of filesystem ordering.
func LoadGamesDir(dir string, log logx.Logger) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read games dir: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)

	c := &Catalog{}
	for _, id := range ids {
		g, err := LoadGame(dir, id)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			log.Warn("skipping unreadable game metadata",
				logx.String("game_id", id), logx.Err(err))
			continue
		}
		c.games = append(c.games, g)
	}
	return c, nil
}

// metadataDoc mirrors public/games/<id>/metadata.yaml. Year is
// frequently authored as a bare integer, so it decodes through flexString.
type metadataDoc struct {
	Title        string     `yaml:"title"`
	Developer    string     `yaml:"developer"`
	Year         flexString `yaml:"year"`
	Genre        string     `yaml:"genre"`
	System       string     `yaml:"system"`
	Controls     []string   `yaml:"controls"`
	Announcement string     `yaml:"announcement_message"`
}

// LoadGame reads one game's metadata file.
func LoadGame(dir, id string) (GameRecord, error) {
	path := filepath.Join(dir, id, "metadata.yaml")
	b, err := os.ReadFile(path)
	if err != nil {
		return GameRecord{}, err
	}
	var m metadataDoc
	if err := yaml.Unmarshal(b, &m); err != nil {
		return GameRecord{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return GameRecord{
		ID:           id,
		Title:        m.Title,
		Developer:    m.Developer,
		Year:         string(m.Year),
		Genre:        m.Genre,
		System:       m.System,
		Controls:     m.Controls,
		Announcement: m.Announcement,
	}, nil
}

// flexString accepts any scalar (string, int, float) as its text form.
type flexString string

func (f *flexString) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected scalar, got %v", n.Kind)
	}
	*f = flexString(n.Value)
	return nil
}

// MetadataPath returns the on-disk path of a game's metadata file.
func MetadataPath(dir, id string) string {
	return filepath.Join(dir, id, "metadata.yaml")
}
