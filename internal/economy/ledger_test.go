package economy

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jmcasavant/StrawberryBot/internal/config"
)

func testConfig(t *testing.T) *config.EconomyConfig {
	t.Helper()
	return &config.EconomyConfig{
		DataFile:        filepath.Join(t.TempDir(), "strawberry_data.json"),
		StartingBalance: 10,
		DailyReward:     10,
		StreakBonus:     2,
		MaxStreakBonus:  10,
		SaveInterval:    time.Minute,
		LeaderboardTTL:  5 * time.Minute,
	}
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(testConfig(t))
	require.NoError(t, err)
	return l
}

func TestBalanceDefaultsWithoutCreating(t *testing.T) {
	l := newTestLedger(t)

	assert.Equal(t, int64(10), l.Balance(1))
	assert.False(t, l.Known(1), "reading a balance should not create a record")

	assert.Equal(t, int64(10), l.GetOrCreate(1))
	assert.True(t, l.Known(1))
}

func TestCredit(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		want    int64
		wantErr error
	}{
		{"positive amount", 50, 60, nil},
		{"zero amount", 0, 0, ErrInvalidAmount},
		{"negative amount", -5, 0, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t)
			got, err := l.Credit(1, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, int64(10), l.Balance(1))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDebit(t *testing.T) {
	tests := []struct {
		name    string
		balance int64
		amount  int64
		wantOK  bool
		wantBal int64
		wantErr error
	}{
		{"sufficient funds", 100, 40, true, 60, nil},
		{"exact balance", 100, 100, true, 0, nil},
		{"insufficient funds", 5, 10, false, 5, nil},
		{"zero amount", 100, 0, false, 100, ErrInvalidAmount},
		{"negative amount", 100, -1, false, 100, ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t)
			require.NoError(t, l.SetBalance(1, tt.balance))

			ok, err := l.Debit(1, tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBal, l.Balance(1))
		})
	}
}

func TestSetBalance(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.SetBalance(1, 0))
	assert.Equal(t, int64(0), l.Balance(1))

	require.NoError(t, l.SetBalance(1, 12345))
	assert.Equal(t, int64(12345), l.Balance(1))

	assert.ErrorIs(t, l.SetBalance(1, -1), ErrInvalidAmount)
	assert.Equal(t, int64(12345), l.Balance(1))
}

func TestTransfer(t *testing.T) {
	t.Run("successful transfer conserves total", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.SetBalance(1, 100))
		require.NoError(t, l.SetBalance(2, 20))

		ok, err := l.Transfer(1, 2, 30)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(70), l.Balance(1))
		assert.Equal(t, int64(50), l.Balance(2))
	})

	t.Run("insufficient funds leaves both unchanged", func(t *testing.T) {
		l := newTestLedger(t)
		require.NoError(t, l.SetBalance(1, 5))
		require.NoError(t, l.SetBalance(2, 20))

		ok, err := l.Transfer(1, 2, 10)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, int64(5), l.Balance(1))
		assert.Equal(t, int64(20), l.Balance(2))
	})

	t.Run("self transfer rejected", func(t *testing.T) {
		l := newTestLedger(t)
		_, err := l.Transfer(1, 1, 10)
		assert.ErrorIs(t, err, ErrSelfTransfer)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		l := newTestLedger(t)
		_, err := l.Transfer(1, 2, 0)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestClaimDailyCycle(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.SetBalance(1, 500))

	// First ever claim: base reward, streak becomes 1.
	reward := l.ClaimDaily(1)
	assert.Equal(t, int64(10), reward)
	assert.Equal(t, int64(510), l.Balance(1))
	assert.Equal(t, 1, l.Streak(1))

	// Immediate second claim is a no-op.
	assert.Equal(t, int64(0), l.ClaimDaily(1))
	assert.Equal(t, int64(510), l.Balance(1))
	assert.Equal(t, 1, l.Streak(1))

	ok, remaining := l.CanClaimDaily(1)
	assert.False(t, ok)
	assert.Greater(t, remaining, 23*time.Hour)
}

func TestClaimDailyStreaks(t *testing.T) {
	tests := []struct {
		name       string
		sinceLast  time.Duration
		prevStreak int
		wantReward int64
		wantStreak int
	}{
		{"within window increments", 25 * time.Hour, 1, 12, 2}, // 10 + 1*2
		{"late claim resets streak", 49 * time.Hour, 5, 10, 1},
		{"bonus capped", 25 * time.Hour, 9, 20, 10}, // 10 + min(9*2, 10)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(t)
			now := time.Now()
			l.now = func() time.Time { return now }

			l.streaks[1] = tt.prevStreak
			l.lastDaily[1] = now.Add(-tt.sinceLast)

			assert.Equal(t, tt.wantReward, l.ClaimDaily(1))
			assert.Equal(t, tt.wantStreak, l.Streak(1))
		})
	}
}

func TestClaimDailyBeforeCooldownDoesNotMutate(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now()
	l.now = func() time.Time { return now }

	l.streaks[1] = 3
	l.lastDaily[1] = now.Add(-2 * time.Hour)
	require.NoError(t, l.SetBalance(1, 100))

	assert.Equal(t, int64(0), l.ClaimDaily(1))
	assert.Equal(t, 3, l.Streak(1))
	assert.Equal(t, int64(100), l.Balance(1))
}

func TestRank(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.SetBalance(1, 100))
	require.NoError(t, l.SetBalance(2, 300))
	require.NoError(t, l.SetBalance(3, 200))
	require.NoError(t, l.SetBalance(4, 200))

	rank, ok := l.Rank(2)
	require.True(t, ok)
	assert.Equal(t, 1, rank)

	// Ties: both 200-balance players rank above the 100-balance player.
	rank, ok = l.Rank(3)
	require.True(t, ok)
	assert.Equal(t, 2, rank)
	rank, ok = l.Rank(4)
	require.True(t, ok)
	assert.Equal(t, 2, rank)

	rank, ok = l.Rank(1)
	require.True(t, ok)
	assert.Equal(t, 4, rank)

	_, ok = l.Rank(99)
	assert.False(t, ok)
}

func TestLeaderboardOrdering(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.SetBalance(5, 200))
	require.NoError(t, l.SetBalance(3, 200))
	require.NoError(t, l.SetBalance(1, 500))
	require.NoError(t, l.SetBalance(9, 50))

	board := l.Leaderboard(10)
	require.Len(t, board, 4)
	assert.Equal(t, []Entry{
		{UserID: 1, Strawberries: 500},
		{UserID: 3, Strawberries: 200}, // tie broken by ascending ID
		{UserID: 5, Strawberries: 200},
		{UserID: 9, Strawberries: 50},
	}, board)

	// Limit truncates.
	assert.Len(t, l.Leaderboard(2), 2)
}

func TestLeaderboardCacheInvalidatedOnMutation(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.SetBalance(1, 100))
	require.NoError(t, l.SetBalance(2, 50))

	board := l.Leaderboard(10)
	assert.Equal(t, int64(1), board[0].UserID)

	// A mutation must invalidate the cache immediately, not after the TTL.
	require.NoError(t, l.SetBalance(2, 5000))
	board = l.Leaderboard(10)
	assert.Equal(t, int64(2), board[0].UserID)
}

func TestCleanupInactive(t *testing.T) {
	l := newTestLedger(t)
	now := time.Now()
	l.now = func() time.Time { return now }

	// Inactive at the starting default: removed.
	l.players[1] = 10
	l.lastDaily[1] = now.Add(-40 * 24 * time.Hour)
	l.streaks[1] = 1

	// Inactive but balance grew: kept.
	l.players[2] = 500
	l.lastDaily[2] = now.Add(-40 * 24 * time.Hour)

	// Recent claim: kept.
	l.players[3] = 10
	l.lastDaily[3] = now.Add(-1 * 24 * time.Hour)

	removed := l.CleanupInactive(30)
	assert.Equal(t, []int64{1}, removed)
	assert.False(t, l.Known(1))
	assert.True(t, l.Known(2))
	assert.True(t, l.Known(3))
	assert.Equal(t, 0, l.Streak(1))
}
