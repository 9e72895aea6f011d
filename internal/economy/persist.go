package economy

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// ledgerFile is the on-disk layout of the persisted ledger state.
type ledgerFile struct {
	Players   map[string]int64  `json:"players"`
	LastDaily map[string]string `json:"last_daily"`
	Streaks   map[string]int    `json:"streaks"`
}

// SaveIfDirty persists the ledger state when there are unsaved changes.
// The write is crash-safe: the current file is kept as a rolling backup,
// the new state goes to a temporary file that is atomically renamed over
// the primary, and a failed write restores the backup. On failure the
// dirty flag stays set so the next periodic cycle retries.
func (l *Ledger) SaveIfDirty() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.dirty {
		return nil
	}
	if err := l.save(); err != nil {
		return err
	}
	l.dirty = false
	log.Info().Str("file", l.dataFile).Msg("Ledger saved")
	return nil
}

// save writes the current state to disk. Callers must hold l.mu.
func (l *Ledger) save() error {
	state := ledgerFile{
		Players:   make(map[string]int64, len(l.players)),
		LastDaily: make(map[string]string, len(l.lastDaily)),
		Streaks:   make(map[string]int, len(l.streaks)),
	}
	for id, bal := range l.players {
		state.Players[strconv.FormatInt(id, 10)] = bal
	}
	for id, t := range l.lastDaily {
		state.LastDaily[strconv.FormatInt(id, 10)] = t.Format(time.RFC3339Nano)
	}
	for id, streak := range l.streaks {
		state.Streaks[strconv.FormatInt(id, 10)] = streak
	}

	data, err := json.MarshalIndent(&state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.dataFile), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	// Keep the previous good state as a rolling backup.
	backedUp := false
	if _, err := os.Stat(l.dataFile); err == nil {
		if err := os.Rename(l.dataFile, l.backupFile); err != nil {
			return fmt.Errorf("failed to back up ledger file: %w", err)
		}
		backedUp = true
	}

	if err := l.writeAndRename(data); err != nil {
		// Restore the backup so the previous good state stays primary.
		if backedUp {
			if rerr := os.Rename(l.backupFile, l.dataFile); rerr != nil {
				log.Error().Err(rerr).Msg("Failed to restore ledger backup after save failure")
			}
		}
		return err
	}

	if backedUp {
		if err := os.Remove(l.backupFile); err != nil {
			log.Warn().Err(err).Msg("Failed to remove old ledger backup")
		}
	}
	return nil
}

// writeAndRename writes data to a temporary sibling of the primary file
// and atomically renames it into place.
func (l *Ledger) writeAndRename(data []byte) error {
	tmp := l.dataFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary ledger file: %w", err)
	}
	if err := os.Rename(tmp, l.dataFile); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temporary ledger file: %w", err)
	}
	return nil
}

// load reads persisted state from the primary file, falling back to the
// backup file once if the primary is missing or corrupt. A missing file
// is not an error; the ledger simply starts empty.
func (l *Ledger) load() error {
	if ok, err := l.loadFile(l.dataFile); ok || err != nil {
		return err
	}

	// Primary unreadable or corrupt; try the backup once.
	if ok, err := l.loadFile(l.backupFile); err != nil {
		return err
	} else if ok {
		log.Warn().Str("file", l.backupFile).Msg("Loaded ledger state from backup file")
	}
	return nil
}

// loadFile loads one candidate file. It returns (false, nil) when the
// file is missing or unparsable so the caller can fall back; only I/O
// errors other than non-existence abort the load.
func (l *Ledger) loadFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read ledger file: %w", err)
	}

	var state ledgerFile
	if err := json.Unmarshal(data, &state); err != nil {
		log.Error().Err(err).Str("file", path).Msg("Ledger file is corrupt")
		return false, nil
	}

	now := l.now()
	dropped := 0

	for idStr, bal := range state.Players {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || bal < 0 {
			dropped++
			continue
		}
		l.players[id] = bal
	}
	for idStr, timeStr := range state.LastDaily {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			dropped++
			continue
		}
		claim, err := time.Parse(time.RFC3339Nano, timeStr)
		if err != nil || claim.After(now) {
			dropped++
			continue
		}
		l.lastDaily[id] = claim
	}
	for idStr, streak := range state.Streaks {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil || streak < 0 {
			dropped++
			continue
		}
		l.streaks[id] = streak
	}

	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Str("file", path).Msg("Dropped invalid ledger records during load")
	}
	log.Info().
		Int("players", len(l.players)).
		Str("file", path).
		Msg("Ledger loaded")
	return true, nil
}
