// Package bugs stores player-filed bug reports in a JSON file.
package bugs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Status is the triage state of a report.
type Status string

const (
	StatusOpen          Status = "open"
	StatusInvestigating Status = "investigating"
	StatusFixed         Status = "fixed"
	StatusClosed        Status = "closed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInvestigating, StatusFixed, StatusClosed:
		return true
	}
	return false
}

var (
	ErrNotFound         = errors.New("bug report not found")
	ErrInvalidStatus    = errors.New("invalid bug status")
	ErrEmptyDescription = errors.New("bug description cannot be empty")
)

// Report is one filed bug. GameState captures whatever the reporter's
// active game looked like at filing time, so reports stay useful after
// the session is gone.
type Report struct {
	ID          string         `json:"id"`
	UserID      int64          `json:"user_id"`
	GameType    string         `json:"game_type"`
	Description string         `json:"description"`
	GameState   map[string]any `json:"game_state,omitempty"`
	Status      Status         `json:"status"`
	AdminNotes  []string       `json:"admin_notes,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Tracker keeps bug reports in memory and mirrors every change to disk.
type Tracker struct {
	mu      sync.Mutex
	path    string
	reports map[string]*Report
	now     func() time.Time
}

// Open loads the tracker from path, starting empty when the file does
// not exist yet.
func Open(path string) (*Tracker, error) {
	t := &Tracker{
		path:    path,
		reports: make(map[string]*Report),
		now:     time.Now,
	}
	if err := t.load(); err != nil {
		return nil, err
	}
	return t, nil
}

// Create files a new report and persists it.
func (t *Tracker) Create(userID int64, gameType, description string, gameState map[string]any) (*Report, error) {
	if description == "" {
		return nil, ErrEmptyDescription
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	r := &Report{
		ID:          uuid.NewString(),
		UserID:      userID,
		GameType:    gameType,
		Description: description,
		GameState:   gameState,
		Status:      StatusOpen,
		CreatedAt:   t.now().UTC(),
	}
	t.reports[r.ID] = r

	if err := t.save(); err != nil {
		delete(t.reports, r.ID)
		return nil, err
	}

	log.Info().Str("report_id", r.ID).Int64("user_id", userID).Str("game", gameType).Msg("Bug report filed")
	return copyReport(r), nil
}

// Get returns the report with the given ID.
func (t *Tracker) Get(id string) (*Report, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyReport(r), nil
}

// List returns reports newest first. An empty status returns everything.
func (t *Tracker) List(status Status) []*Report {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Report, 0, len(t.reports))
	for _, r := range t.reports {
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, copyReport(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// SetStatus moves a report to a new triage state.
func (t *Tracker) SetStatus(id string, status Status) (*Report, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.reports[id]
	if !ok {
		return nil, ErrNotFound
	}

	prev := r.Status
	r.Status = status
	if err := t.save(); err != nil {
		r.Status = prev
		return nil, err
	}
	return copyReport(r), nil
}

// AddNote appends an admin note to a report.
func (t *Tracker) AddNote(id, note string) (*Report, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r, ok := t.reports[id]
	if !ok {
		return nil, ErrNotFound
	}

	r.AdminNotes = append(r.AdminNotes, note)
	if err := t.save(); err != nil {
		r.AdminNotes = r.AdminNotes[:len(r.AdminNotes)-1]
		return nil, err
	}
	return copyReport(r), nil
}

// Count returns the number of reports in the given state, or all
// reports for an empty status.
func (t *Tracker) Count(status Status) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if status == "" {
		return len(t.reports)
	}
	n := 0
	for _, r := range t.reports {
		if r.Status == status {
			n++
		}
	}
	return n
}

type trackerFile struct {
	Reports []*Report `json:"reports"`
}

// save writes all reports to disk via a temp file and atomic rename.
// Callers must hold t.mu.
func (t *Tracker) save() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("create bug report directory: %w", err)
	}

	file := trackerFile{Reports: make([]*Report, 0, len(t.reports))}
	for _, r := range t.reports {
		file.Reports = append(file.Reports, r)
	}
	sort.Slice(file.Reports, func(i, j int) bool {
		return file.Reports[i].CreatedAt.Before(file.Reports[j].CreatedAt)
	})

	data, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bug reports: %w", err)
	}

	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write bug reports: %w", err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace bug reports: %w", err)
	}
	return nil
}

func (t *Tracker) load() error {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read bug reports: %w", err)
	}

	var file trackerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode bug reports: %w", err)
	}

	for _, r := range file.Reports {
		if r.ID == "" || !r.Status.Valid() {
			log.Warn().Str("report_id", r.ID).Msg("Dropping invalid bug report record")
			continue
		}
		t.reports[r.ID] = r
	}
	return nil
}

func copyReport(r *Report) *Report {
	out := *r
	if r.GameState != nil {
		out.GameState = make(map[string]any, len(r.GameState))
		for k, v := range r.GameState {
			out.GameState[k] = v
		}
	}
	out.AdminNotes = append([]string(nil), r.AdminNotes...)
	return &out
}
