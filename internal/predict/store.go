// Package predict loads the plinko prediction file: a YAML mapping from
// weekly seed to the scheduled game.
package predict

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	yaml "go.yaml.in/yaml/v3"

	"bonjourarcade/internal/seed"
	"bonjourarcade/pkg/logx"
)

// ErrMalformed reports a prediction entry whose value is neither a bare
// title string nor a {title, game_id} record.
var ErrMalformed = errors.New("malformed prediction entry")

// Prediction is the normalized form of both on-disk value shapes.
// GameID is empty for legacy bare-title entries.
type Prediction struct {
	Title  string
	GameID string
}

// Store holds the loaded predictions keyed by seed string.
//
// YAML parses unquoted numeric keys as integers; keys are normalized to
// their decimal string form at load time, so lookups tolerate both
// integer-keyed and string-keyed documents.
type Store struct {
	entries   map[string]Prediction
	malformed map[string]error
}

// Load reads the prediction file. A missing file or an empty document is
// a normal outcome ("no predictions configured") and yields an empty
// store. Malformed entries are kept aside: looking them up returns
// ErrMalformed, and every other seed still resolves.
func Load(path string, log logx.Logger) (*Store, error) {
	st := &Store{
		entries:   map[string]Prediction{},
		malformed: map[string]error{},
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("prediction file absent", logx.String("path", path))
			return st, nil
		}
		return nil, fmt.Errorf("read predictions: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse predictions: %w", err)
	}
	if len(doc.Content) == 0 {
		log.Debug("prediction file empty", logx.String("path", path))
		return st, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse predictions: document is not a mapping")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := normalizeKey(root.Content[i].Value)
		val := root.Content[i+1]

		p, err := decodeEntry(val)
		if err != nil {
			log.Warn("skipping prediction entry",
				logx.String("seed", key), logx.Err(err))
			st.malformed[key] = err
			continue
		}
		st.entries[key] = p
	}
	return st, nil
}

func decodeEntry(n *yaml.Node) (Prediction, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Value == "" || n.Tag == "!!null" {
			return Prediction{}, fmt.Errorf("%w: empty value", ErrMalformed)
		}
		return Prediction{Title: n.Value}, nil
	case yaml.MappingNode:
		var rec struct {
			Title  string `yaml:"title"`
			GameID string `yaml:"game_id"`
		}
		if err := n.Decode(&rec); err != nil {
			return Prediction{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if rec.Title == "" {
			return Prediction{}, fmt.Errorf("%w: record missing title", ErrMalformed)
		}
		return Prediction{Title: rec.Title, GameID: rec.GameID}, nil
	default:
		return Prediction{}, fmt.Errorf("%w: unsupported node kind", ErrMalformed)
	}
}

// normalizeKey renders integer-looking keys in canonical decimal form so
// that 202533 and "202533" land on the same entry.
func normalizeKey(raw string) string {
	if n, err := strconv.Atoi(raw); err == nil {
		return strconv.Itoa(n)
	}
	return raw
}

// Len reports the number of well-formed entries.
func (s *Store) Len() int { return len(s.entries) }

// Lookup returns the prediction for a seed. The second return is false
// when no entry exists; ErrMalformed is returned when an entry exists but
// could not be normalized.
func (s *Store) Lookup(sd seed.Seed) (Prediction, bool, error) {
	key := normalizeKey(sd.String())
	if p, ok := s.entries[key]; ok {
		return p, true, nil
	}
	if err, ok := s.malformed[key]; ok {
		return Prediction{}, false, err
	}
	return Prediction{}, false, nil
}

// FindTitle searches all entries for an exact title match and returns the
// seed key it is scheduled under. Used by the site generator to decide
// whether a game page should be visible yet.
func (s *Store) FindTitle(title string) (string, bool) {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s.entries[k].Title == title {
			return k, true
		}
	}
	return "", false
}
