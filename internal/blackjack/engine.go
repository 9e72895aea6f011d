package blackjack

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Jmcasavant/StrawberryBot/internal/config"
)

// Common errors for blackjack operations.
var (
	ErrSessionInProgress = errors.New("a blackjack round is already in progress")
	ErrNoSession         = errors.New("no active blackjack round")
	ErrInvalidBet        = errors.New("bet must be positive")
	ErrBetTooLarge       = errors.New("bet exceeds the maximum")
	ErrInsufficientFunds = errors.New("insufficient strawberries for the stake")
	ErrInvalidDecision   = errors.New("decision is not valid right now")
	ErrDecisionTimeout   = errors.New("decision window expired")
)

// Wallet is the narrow slice of the ledger the engine needs. All
// currency movement for a round funnels through it: the bet is debited
// when the round starts and payouts are credited at resolution.
type Wallet interface {
	Credit(userID int64, amount int64) (int64, error)
	Debit(userID int64, amount int64) (bool, error)
}

// Snapshot is a read-only view of a round handed to the chat layer.
type Snapshot struct {
	PlayerID    int64
	State       State
	Bet         int64
	Main        []Card
	Split       []Card
	MainValue   int
	SplitValue  int
	CurrentHand HandID
	DealerUp    Card
	Result      *RoundResult
}

// Engine owns the active-session registry and drives rounds against the
// wallet. At most one session per player exists at a time.
type Engine struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	wallet   Wallet
	rng      *rand.Rand

	minBet  int64
	maxBet  int64
	timeout time.Duration
	now     func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewEngine creates a blackjack engine backed by the given wallet.
func NewEngine(wallet Wallet, cfg *config.BlackjackConfig) *Engine {
	timeout := cfg.DecisionTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Engine{
		sessions: make(map[int64]*Session),
		wallet:   wallet,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		minBet:   cfg.MinBet,
		maxBet:   cfg.MaxBet,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Start launches the janitor that expires sessions whose player never
// responded. Timed-out rounds are cancelled without a refund.
func (e *Engine) Start() {
	if e.stopCh != nil {
		return
	}
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})

	go func() {
		defer close(e.doneCh)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.sweepExpired()
			case <-e.stopCh:
				return
			}
		}
	}()
}

// Stop halts the janitor. Active sessions are left in the registry; the
// hosting process is shutting down and their stakes were already taken.
func (e *Engine) Stop() {
	if e.stopCh == nil {
		return
	}
	close(e.stopCh)
	<-e.doneCh
	e.stopCh = nil
}

// sweepExpired cancels and removes every session past its deadline.
func (e *Engine) sweepExpired() {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	for playerID, s := range e.sessions {
		if now.After(s.deadline) {
			delete(e.sessions, playerID)
			log.Info().
				Int64("user_id", playerID).
				Int64("bet", s.bet).
				Msg("Blackjack round timed out, cancelled without refund")
		}
	}
}

// StartRound debits the bet and deals a new round for the player.
// Starting while a round is active fails rather than queuing.
func (e *Engine) StartRound(playerID, bet int64) (*Snapshot, error) {
	if bet <= 0 || bet < e.minBet {
		return nil, ErrInvalidBet
	}
	if e.maxBet > 0 && bet > e.maxBet {
		return nil, ErrBetTooLarge
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if s, ok := e.sessions[playerID]; ok {
		if !e.now().After(s.deadline) {
			return nil, ErrSessionInProgress
		}
		// Stale session the janitor has not swept yet.
		delete(e.sessions, playerID)
	}

	ok, err := e.wallet.Debit(playerID, bet)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientFunds
	}

	s := newSession(playerID, bet, NewDeck(e.rng))
	s.deadline = e.now().Add(e.timeout)
	s.dealInitial()
	e.sessions[playerID] = s

	log.Info().Int64("user_id", playerID).Int64("bet", bet).Msg("Blackjack round started")

	if s.state == StateResolved {
		return e.finish(s), nil
	}
	return e.snapshot(s), nil
}

// Apply executes one player decision against their active round.
func (e *Engine) Apply(playerID int64, d Decision) (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[playerID]
	if !ok {
		return nil, ErrNoSession
	}
	if e.now().After(s.deadline) {
		delete(e.sessions, playerID)
		result := s.cancel()
		log.Info().Int64("user_id", playerID).Msg("Blackjack decision arrived after deadline")
		snap := e.snapshot(s)
		snap.Result = result
		return snap, ErrDecisionTimeout
	}

	switch d {
	case DecisionInsurance:
		if s.state != StateInsurance {
			return nil, ErrInvalidDecision
		}
		stake := s.bet / 2
		if stake > 0 {
			ok, err := e.wallet.Debit(playerID, stake)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, ErrInsufficientFunds
			}
		}
		s.insuranceStake = stake
		s.afterInsurance()

	case DecisionDeclineInsurance:
		if s.state != StateInsurance {
			return nil, ErrInvalidDecision
		}
		s.afterInsurance()

	case DecisionHit:
		if s.state != StatePlayerTurn {
			return nil, ErrInvalidDecision
		}
		s.hit()

	case DecisionStand:
		if s.state != StatePlayerTurn {
			return nil, ErrInvalidDecision
		}
		s.stand()

	case DecisionDouble:
		if s.state != StatePlayerTurn || !s.canDouble() {
			return nil, ErrInvalidDecision
		}
		ok, err := e.wallet.Debit(playerID, s.bet)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInsufficientFunds
		}
		s.doubleDown()

	case DecisionSplit:
		if s.state != StatePlayerTurn || !s.canSplit() {
			return nil, ErrInvalidDecision
		}
		ok, err := e.wallet.Debit(playerID, s.bet)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInsufficientFunds
		}
		s.splitHand()

	default:
		return nil, ErrInvalidDecision
	}

	s.deadline = e.now().Add(e.timeout)

	if s.state == StateDealerTurn {
		s.playDealer()
	}
	if s.state == StateResolved {
		return e.finish(s), nil
	}
	return e.snapshot(s), nil
}

// Snapshot returns the player's current round state without mutating it.
func (e *Engine) Snapshot(playerID int64) (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[playerID]
	if !ok {
		return nil, ErrNoSession
	}
	return e.snapshot(s), nil
}

// Active reports whether the player has a round in progress.
func (e *Engine) Active(playerID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[playerID]
	return ok
}

// finish resolves the round, credits the payout, and destroys the
// session. Callers must hold e.mu.
func (e *Engine) finish(s *Session) *Snapshot {
	result := s.resolve()
	delete(e.sessions, s.playerID)

	if result.TotalPayout > 0 {
		if _, err := e.wallet.Credit(s.playerID, result.TotalPayout); err != nil {
			log.Error().Err(err).
				Int64("user_id", s.playerID).
				Int64("payout", result.TotalPayout).
				Msg("Failed to credit blackjack payout")
		}
	}

	log.Info().
		Int64("user_id", s.playerID).
		Int64("bet", s.bet).
		Int64("payout", result.TotalPayout).
		Msg("Blackjack round resolved")

	snap := e.snapshot(s)
	snap.Result = result
	return snap
}

// snapshot builds a read-only copy of the session. Callers must hold e.mu.
func (e *Engine) snapshot(s *Session) *Snapshot {
	snap := &Snapshot{
		PlayerID:    s.playerID,
		State:       s.state,
		Bet:         s.bet,
		Main:        append([]Card(nil), s.main...),
		MainValue:   HandValue(s.main),
		CurrentHand: s.current,
	}
	if s.splitUsed {
		snap.Split = append([]Card(nil), s.split...)
		snap.SplitValue = HandValue(s.split)
	}
	if len(s.dealer) > 0 {
		snap.DealerUp = s.dealer[0]
	}
	return snap
}
