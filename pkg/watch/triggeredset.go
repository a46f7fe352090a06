package watch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/constants"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

var triggeredLog = logger.New("watch:triggeredset")

// triggeredSetTTL is how long a dedupe entry survives before garbage
// collection (§4.10, §8: "entries at exactly 24 hours old are preserved").
const triggeredSetTTL = time.Duration(constants.TriggeredSetTTLHours) * time.Hour

// LoadTriggeredSet reads the persisted dedupe state. A missing or corrupted
// file is treated as empty per §9's documented fail-open behavior — the
// shell source this was distilled from does this without logging; dsr logs
// it at debug level instead, which doesn't change the fail-open outcome.
func LoadTriggeredSet(path string) model.TriggeredSet {
	empty := model.TriggeredSet{Entries: map[string]time.Time{}}

	raw, err := os.ReadFile(path)
	if err != nil {
		return empty
	}
	var set model.TriggeredSet
	if err := json.Unmarshal(raw, &set); err != nil {
		triggeredLog.Printf("triggered-set file at %s is corrupted, treating as empty: %v", path, err)
		return empty
	}
	if set.Entries == nil {
		set.Entries = map[string]time.Time{}
	}
	return set
}

// SaveTriggeredSet persists the set via atomic file replacement (§5 "Reads
// and writes are atomic via file replacement").
func SaveTriggeredSet(path string, set model.TriggeredSet) error {
	raw, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".triggeredset-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// GC removes entries older than triggeredSetTTL relative to now, idempotent
// per §8 ("running it twice in succession leaves the same surviving set").
func GC(set model.TriggeredSet, now time.Time) model.TriggeredSet {
	out := model.TriggeredSet{Entries: map[string]time.Time{}, LastCheck: now}
	for runID, firedAt := range set.Entries {
		if now.Sub(firedAt) <= triggeredSetTTL {
			out.Entries[runID] = firedAt
		}
	}
	return out
}

// IsTriggered reports whether runID has already fired a build.
func IsTriggered(set model.TriggeredSet, runID string) bool {
	_, ok := set.Entries[runID]
	return ok
}

// Mark records runID as triggered at t, returning the updated set.
func Mark(set model.TriggeredSet, runID string, t time.Time) model.TriggeredSet {
	if set.Entries == nil {
		set.Entries = map[string]time.Time{}
	}
	set.Entries[runID] = t
	return set
}
