// Package economy implements the strawberry ledger: per-player balances,
// daily-reward streaks, leaderboard ranking, and durable persistence.
package economy

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Jmcasavant/StrawberryBot/internal/config"
)

// Common errors for ledger operations.
var (
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrSelfTransfer  = errors.New("cannot transfer to self")
)

const (
	dailyCooldown = 24 * time.Hour
	streakWindow  = 48 * time.Hour
)

// Entry is one leaderboard row.
type Entry struct {
	UserID       int64
	Strawberries int64
}

// Ledger owns all player balance records. All balance mutations are
// serialized through a single mutex so a debit's sufficiency check and
// its subtraction can never be interleaved by another mutation.
type Ledger struct {
	mu        sync.Mutex
	players   map[int64]int64
	lastDaily map[int64]time.Time
	streaks   map[int64]int

	dirty        bool
	board        []Entry
	boardExpires time.Time

	dataFile   string
	backupFile string

	startingBalance int64
	dailyReward     int64
	streakBonus     int64
	maxStreakBonus  int64
	saveInterval    time.Duration
	leaderboardTTL  time.Duration

	now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// Open creates a Ledger and loads any previously persisted state.
// A corrupt primary file falls back to the backup file once; individual
// invalid records are dropped rather than failing the whole load.
func Open(cfg *config.EconomyConfig) (*Ledger, error) {
	l := &Ledger{
		players:         make(map[int64]int64),
		lastDaily:       make(map[int64]time.Time),
		streaks:         make(map[int64]int),
		dataFile:        cfg.DataFile,
		backupFile:      cfg.DataFile + ".backup",
		startingBalance: cfg.StartingBalance,
		dailyReward:     cfg.DailyReward,
		streakBonus:     cfg.StreakBonus,
		maxStreakBonus:  cfg.MaxStreakBonus,
		saveInterval:    cfg.SaveInterval,
		leaderboardTTL:  cfg.LeaderboardTTL,
		now:             time.Now,
	}

	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// Start begins the periodic auto-save loop. Dirty state is flushed to
// disk every save interval; a failed save is retried on the next cycle.
func (l *Ledger) Start() {
	if l.stopCh != nil {
		return
	}
	l.stopCh = make(chan struct{})
	l.doneCh = make(chan struct{})

	go func() {
		defer close(l.doneCh)
		ticker := time.NewTicker(l.saveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := l.SaveIfDirty(); err != nil {
					log.Error().Err(err).Msg("Periodic ledger save failed")
				}
			case <-l.stopCh:
				return
			}
		}
	}()
	log.Info().Dur("interval", l.saveInterval).Msg("Started ledger auto-save loop")
}

// Stop ends the auto-save loop and flushes any pending changes.
func (l *Ledger) Stop() {
	if l.stopCh == nil {
		return
	}
	close(l.stopCh)
	<-l.doneCh
	l.stopCh = nil

	if err := l.SaveIfDirty(); err != nil {
		log.Error().Err(err).Msg("Final ledger save failed")
	}
	log.Info().Msg("Stopped ledger auto-save loop")
}

// markDirty flags unsaved changes and invalidates the leaderboard cache.
// Callers must hold l.mu.
func (l *Ledger) markDirty() {
	l.dirty = true
	l.board = nil
}

// getOrCreate returns the player's balance, lazily creating the record
// at the starting default. Callers must hold l.mu.
func (l *Ledger) getOrCreate(userID int64) int64 {
	bal, ok := l.players[userID]
	if !ok {
		bal = l.startingBalance
		l.players[userID] = bal
	}
	return bal
}

// Balance returns the player's current balance. Players that have never
// been seen report the starting default without a record being created.
func (l *Ledger) Balance(userID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if bal, ok := l.players[userID]; ok {
		return bal
	}
	return l.startingBalance
}

// GetOrCreate returns the player's balance, creating the record at the
// starting default on first access. Creation alone does not mark the
// ledger dirty; no persistence write happens until a mutation occurs.
func (l *Ledger) GetOrCreate(userID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.getOrCreate(userID)
}

// Known reports whether a record exists for the player.
func (l *Ledger) Known(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.players[userID]
	return ok
}

// Credit adds strawberries to the player's balance and returns the new
// balance. The amount must be positive.
func (l *Ledger) Credit(userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal := l.getOrCreate(userID) + amount
	l.players[userID] = bal
	l.markDirty()

	log.Info().Int64("user_id", userID).Int64("amount", amount).Msg("Credited strawberries")
	return bal, nil
}

// Debit removes strawberries from the player's balance. It returns false
// without mutating anything when the balance is insufficient, so a
// balance can never go negative through this path.
func (l *Ledger) Debit(userID int64, amount int64) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bal := l.getOrCreate(userID)
	if bal < amount {
		return false, nil
	}
	l.players[userID] = bal - amount
	l.markDirty()

	log.Info().Int64("user_id", userID).Int64("amount", amount).Msg("Debited strawberries")
	return true, nil
}

// SetBalance overrides the player's balance. Administrative use only.
func (l *Ledger) SetBalance(userID int64, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.players[userID] = amount
	l.markDirty()

	log.Info().Int64("user_id", userID).Int64("amount", amount).Msg("Set strawberry balance")
	return nil
}

// Transfer moves strawberries between two players atomically. It returns
// false when the sender's balance is insufficient; neither balance
// changes in that case.
func (l *Ledger) Transfer(fromID, toID int64, amount int64) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}
	if fromID == toID {
		return false, ErrSelfTransfer
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fromBal := l.getOrCreate(fromID)
	if fromBal < amount {
		return false, nil
	}
	l.players[fromID] = fromBal - amount
	l.players[toID] = l.getOrCreate(toID) + amount
	l.markDirty()

	log.Info().
		Int64("from", fromID).
		Int64("to", toID).
		Int64("amount", amount).
		Msg("Transferred strawberries")
	return true, nil
}

// Streak returns the player's current daily-claim streak.
func (l *Ledger) Streak(userID int64) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.streaks[userID]
}

// CanClaimDaily reports whether the player may claim the daily reward.
// When not eligible, the returned duration is the time remaining until
// the next claim.
func (l *Ledger) CanClaimDaily(userID int64) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.canClaimDaily(userID)
}

// canClaimDaily is the lock-free variant. Callers must hold l.mu.
func (l *Ledger) canClaimDaily(userID int64) (bool, time.Duration) {
	last, ok := l.lastDaily[userID]
	if !ok {
		return true, 0
	}

	elapsed := l.now().Sub(last)
	if elapsed >= dailyCooldown {
		return true, 0
	}
	return false, dailyCooldown - elapsed
}

// ClaimDaily claims the daily reward and returns the amount credited, or
// 0 if the player is not yet eligible. Claims more than 48 hours after
// the previous one reset the streak before incrementing; the claim
// itself is never forfeited by a late arrival.
func (l *Ledger) ClaimDaily(userID int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ok, _ := l.canClaimDaily(userID); !ok {
		return 0
	}

	now := l.now()
	streak := l.streaks[userID]
	if last, ok := l.lastDaily[userID]; ok && now.Sub(last) > streakWindow {
		streak = 0
	}
	streak++
	l.streaks[userID] = streak

	bonus := int64(streak-1) * l.streakBonus
	if bonus > l.maxStreakBonus {
		bonus = l.maxStreakBonus
	}
	reward := l.dailyReward + bonus

	l.players[userID] = l.getOrCreate(userID) + reward
	l.lastDaily[userID] = now
	l.markDirty()

	log.Info().
		Int64("user_id", userID).
		Int64("reward", reward).
		Int("streak", streak).
		Msg("Daily reward claimed")
	return reward
}

// Rank returns the player's 1-based leaderboard rank: the count of
// players with a strictly greater balance, plus one. The second return
// is false for players with no record.
func (l *Ledger) Rank(userID int64) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	bal, ok := l.players[userID]
	if !ok {
		return 0, false
	}

	rank := 1
	for _, other := range l.players {
		if other > bal {
			rank++
		}
	}
	return rank, true
}

// Leaderboard returns up to limit players sorted by balance descending,
// ties broken by ascending user ID. The sorted board is cached for the
// configured TTL and invalidated by any balance mutation.
func (l *Ledger) Leaderboard(limit int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.board == nil || now.After(l.boardExpires) {
		board := make([]Entry, 0, len(l.players))
		for id, bal := range l.players {
			board = append(board, Entry{UserID: id, Strawberries: bal})
		}
		sort.Slice(board, func(i, j int) bool {
			if board[i].Strawberries != board[j].Strawberries {
				return board[i].Strawberries > board[j].Strawberries
			}
			return board[i].UserID < board[j].UserID
		})
		l.board = board
		l.boardExpires = now.Add(l.leaderboardTTL)
	}

	if limit > len(l.board) {
		limit = len(l.board)
	}
	out := make([]Entry, limit)
	copy(out, l.board[:limit])
	return out
}

// CleanupInactive removes records for players whose last daily claim is
// older than the given number of days and whose balance never grew past
// the starting default. It returns the removed user IDs.
func (l *Ledger) CleanupInactive(days int) []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-time.Duration(days) * 24 * time.Hour)

	var removed []int64
	for userID, last := range l.lastDaily {
		if last.Before(cutoff) && l.players[userID] == l.startingBalance {
			removed = append(removed, userID)
		}
	}
	for _, userID := range removed {
		delete(l.players, userID)
		delete(l.lastDaily, userID)
		delete(l.streaks, userID)
	}

	if len(removed) > 0 {
		l.markDirty()
		log.Info().Int("count", len(removed)).Msg("Cleaned up inactive players")
	}
	return removed
}
