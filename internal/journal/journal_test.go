package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bonjourarcade/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	j, err := Open(Config{}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if j != nil {
		t.Fatal("expected nil journal when disabled")
	}
	j, err = Open(Config{Driver: "none"}, logx.Nop())
	if err != nil || j != nil {
		t.Fatalf("Open(none) = %v, %v", j, err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "redis"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileJournalAppend(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sends.jsonl")
	j, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	entries := []Entry{
		{Seed: "202533", GameID: "pacman", Channel: "email", Type: "email", State: "sent", Subject: "🕹️ Jeu de la semaine - Pac-Man"},
		{Seed: "202533", GameID: "pacman", Channel: "Discord BonjourArcade", Type: "discord", State: "failed", Error: "status 500"},
	}
	for _, e := range entries {
		if err := j.Append(context.Background(), e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var got []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad journal line: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	if got[0].State != "sent" || got[1].State != "failed" {
		t.Fatalf("unexpected states: %+v", got)
	}
	if got[0].At.IsZero() {
		t.Fatal("Append should stamp entries missing a timestamp")
	}
	if got[1].Error != "status 500" {
		t.Fatalf("error not recorded: %+v", got[1])
	}
}

func TestFileJournalAppendAfterClose(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sends.jsonl")
	j, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := j.Append(context.Background(), Entry{At: time.Now()}); err == nil {
		t.Fatal("expected error appending to a closed journal")
	}
}
