package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

func TestLoadTriggeredSetMissingFileIsEmpty(t *testing.T) {
	set := LoadTriggeredSet(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if len(set.Entries) != 0 {
		t.Errorf("expected empty entries, got %v", set.Entries)
	}
}

func TestLoadTriggeredSetCorruptedFileFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not valid json"), 0o644); err != nil {
		t.Fatal(err)
	}
	set := LoadTriggeredSet(path)
	if len(set.Entries) != 0 {
		t.Errorf("expected fail-open to empty entries, got %v", set.Entries)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	set := model.TriggeredSet{Entries: map[string]time.Time{"123": now}, LastCheck: now}

	if err := SaveTriggeredSet(path, set); err != nil {
		t.Fatalf("SaveTriggeredSet: %v", err)
	}
	loaded := LoadTriggeredSet(path)
	if !IsTriggered(loaded, "123") {
		t.Error("expected entry 123 to survive the round trip")
	}
}

func TestGCPreservesExactly24HourBoundary(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	set := model.TriggeredSet{Entries: map[string]time.Time{
		"exactly-24h": now.Add(-24 * time.Hour),
		"over-24h":    now.Add(-24*time.Hour - time.Second),
		"fresh":       now.Add(-time.Hour),
	}}

	got := GC(set, now)

	if !IsTriggered(got, "exactly-24h") {
		t.Error("expected an entry exactly 24h old to be preserved")
	}
	if IsTriggered(got, "over-24h") {
		t.Error("expected an entry older than 24h to be removed")
	}
	if !IsTriggered(got, "fresh") {
		t.Error("expected a fresh entry to be preserved")
	}
}

func TestGCIsIdempotent(t *testing.T) {
	now := time.Now()
	set := model.TriggeredSet{Entries: map[string]time.Time{
		"a": now.Add(-time.Hour),
		"b": now.Add(-48 * time.Hour),
	}}
	once := GC(set, now)
	twice := GC(once, now)

	if len(once.Entries) != len(twice.Entries) {
		t.Fatalf("GC not idempotent: %v vs %v", once.Entries, twice.Entries)
	}
	for k := range once.Entries {
		if _, ok := twice.Entries[k]; !ok {
			t.Errorf("entry %q dropped on second GC pass", k)
		}
	}
}

func TestMarkThenIsTriggered(t *testing.T) {
	set := model.TriggeredSet{}
	set = Mark(set, "456", time.Now())
	if !IsTriggered(set, "456") {
		t.Error("expected 456 to be triggered after Mark")
	}
	if IsTriggered(set, "789") {
		t.Error("expected 789 to remain untriggered")
	}
}
