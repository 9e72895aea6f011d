package bugs

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) (*Tracker, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bug_reports.json")
	tr, err := Open(path)
	require.NoError(t, err)
	return tr, path
}

func TestCreateAndGet(t *testing.T) {
	tr, _ := newTestTracker(t)

	state := map[string]any{"hand": "8♠ 8♥", "bet": int64(100)}
	r, err := tr.Create(42, "blackjack", "split paid the wrong amount", state)
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, StatusOpen, r.Status)
	assert.Equal(t, int64(42), r.UserID)
	assert.WithinDuration(t, time.Now(), r.CreatedAt, time.Minute)

	got, err := tr.Get(r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.Description, got.Description)
	assert.Equal(t, "8♠ 8♥", got.GameState["hand"])
}

func TestCreateRejectsEmptyDescription(t *testing.T) {
	tr, _ := newTestTracker(t)

	_, err := tr.Create(42, "roulette", "", nil)
	assert.ErrorIs(t, err, ErrEmptyDescription)
	assert.Equal(t, 0, tr.Count(""))
}

func TestGetUnknownID(t *testing.T) {
	tr, _ := newTestTracker(t)

	_, err := tr.Get("no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersByStatus(t *testing.T) {
	tr, _ := newTestTracker(t)

	a, err := tr.Create(1, "blackjack", "first", nil)
	require.NoError(t, err)
	b, err := tr.Create(2, "roulette", "second", nil)
	require.NoError(t, err)

	_, err = tr.SetStatus(a.ID, StatusFixed)
	require.NoError(t, err)

	open := tr.List(StatusOpen)
	require.Len(t, open, 1)
	assert.Equal(t, b.ID, open[0].ID)

	all := tr.List("")
	assert.Len(t, all, 2)

	assert.Equal(t, 1, tr.Count(StatusOpen))
	assert.Equal(t, 1, tr.Count(StatusFixed))
}

func TestSetStatusValidation(t *testing.T) {
	tr, _ := newTestTracker(t)

	r, err := tr.Create(1, "blackjack", "bug", nil)
	require.NoError(t, err)

	_, err = tr.SetStatus(r.ID, Status("wontfix"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = tr.SetStatus("missing", StatusClosed)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := tr.SetStatus(r.ID, StatusInvestigating)
	require.NoError(t, err)
	assert.Equal(t, StatusInvestigating, got.Status)
}

func TestAddNote(t *testing.T) {
	tr, _ := newTestTracker(t)

	r, err := tr.Create(1, "roulette", "payout looks off", nil)
	require.NoError(t, err)

	got, err := tr.AddNote(r.ID, "reproduced with a green bet")
	require.NoError(t, err)
	assert.Equal(t, []string{"reproduced with a green bet"}, got.AdminNotes)

	_, err = tr.AddNote("missing", "note")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPersistsAcrossReopen(t *testing.T) {
	tr, path := newTestTracker(t)

	r, err := tr.Create(7, "blackjack", "dealer drew twice", map[string]any{"round": "abc"})
	require.NoError(t, err)
	_, err = tr.SetStatus(r.ID, StatusInvestigating)
	require.NoError(t, err)
	_, err = tr.AddNote(r.ID, "checking the deck order")
	require.NoError(t, err)

	reopened, err := Open(path)
	require.NoError(t, err)

	got, err := reopened.Get(r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusInvestigating, got.Status)
	assert.Equal(t, "dealer drew twice", got.Description)
	assert.Equal(t, []string{"checking the deck order"}, got.AdminNotes)
	assert.True(t, r.CreatedAt.Equal(got.CreatedAt))
}

func TestListOrdersNewestFirst(t *testing.T) {
	tr, _ := newTestTracker(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	step := 0
	tr.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Minute)
	}

	first, err := tr.Create(1, "blackjack", "oldest", nil)
	require.NoError(t, err)
	second, err := tr.Create(1, "blackjack", "newest", nil)
	require.NoError(t, err)

	all := tr.List("")
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
}
