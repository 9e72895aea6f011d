package blackjack

import (
	"time"
)

// State identifies where a round is in its lifecycle.
type State int

const (
	StateDealing State = iota
	StateInsurance
	StatePlayerTurn
	StateDealerTurn
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateDealing:
		return "dealing"
	case StateInsurance:
		return "insurance"
	case StatePlayerTurn:
		return "player_turn"
	case StateDealerTurn:
		return "dealer_turn"
	case StateResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// HandID selects the player's main or split hand.
type HandID int

const (
	MainHand HandID = iota
	SplitHand
)

// Decision is one player choice at a decision point, parsed once at the
// boundary into a single tagged value.
type Decision int

const (
	DecisionHit Decision = iota
	DecisionStand
	DecisionDouble
	DecisionSplit
	DecisionInsurance
	DecisionDeclineInsurance
)

// Outcome is the result of one player hand.
type Outcome int

const (
	OutcomeWin Outcome = iota
	OutcomeLoss
	OutcomePush
	OutcomeBlackjack
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	case OutcomePush:
		return "push"
	case OutcomeBlackjack:
		return "blackjack"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// HandResult describes how one player hand resolved. Payout is the
// amount credited back, inclusive of the returned stake; the stake was
// debited when it was placed.
type HandResult struct {
	Hand    HandID
	Cards   []Card
	Value   int
	Stake   int64
	Outcome Outcome
	Payout  int64
}

// InsuranceResult describes the side bet's resolution.
type InsuranceResult struct {
	Stake  int64
	Won    bool
	Payout int64
}

// RoundResult is the final accounting of one round.
type RoundResult struct {
	PlayerID    int64
	Hands       []HandResult
	Insurance   *InsuranceResult
	Dealer      []Card
	DealerValue int
	Cancelled   bool
	TotalPayout int64
}

// Session holds one round's transient state. Sessions are owned by the
// Engine and must only be touched while holding the engine's lock.
type Session struct {
	playerID int64
	bet      int64
	deck     *Deck

	main   []Card
	split  []Card
	dealer []Card

	mainDoubled  bool
	splitDoubled bool
	splitUsed    bool

	insuranceStake int64

	state    State
	current  HandID
	deadline time.Time
}

func newSession(playerID, bet int64, deck *Deck) *Session {
	return &Session{
		playerID: playerID,
		bet:      bet,
		deck:     deck,
		state:    StateDealing,
		current:  MainHand,
	}
}

// dealInitial deals two cards each to player and dealer and decides the
// next state: insurance is offered on a dealer up-ace before anything
// else; otherwise a natural 21 on either side ends the round at once.
func (s *Session) dealInitial() {
	s.main = append(s.main, s.deck.Draw())
	s.dealer = append(s.dealer, s.deck.Draw())
	s.main = append(s.main, s.deck.Draw())
	s.dealer = append(s.dealer, s.deck.Draw())

	if s.dealer[0].IsAce() {
		s.state = StateInsurance
		return
	}
	s.afterInsurance()
}

// afterInsurance routes the round once the insurance question is
// settled (or was never offered).
func (s *Session) afterInsurance() {
	if isNatural(s.main) || isNatural(s.dealer) {
		s.state = StateResolved
		return
	}
	s.state = StatePlayerTurn
}

// currentHand returns the hand the player is acting on.
func (s *Session) currentHand() []Card {
	if s.current == SplitHand {
		return s.split
	}
	return s.main
}

// hit draws one card for the current hand. Reaching 21 or busting
// advances to the next hand automatically.
func (s *Session) hit() {
	card := s.deck.Draw()
	if s.current == SplitHand {
		s.split = append(s.split, card)
	} else {
		s.main = append(s.main, card)
	}
	if HandValue(s.currentHand()) >= 21 {
		s.advance()
	}
}

// stand ends the current hand's turn.
func (s *Session) stand() {
	s.advance()
}

// canDouble reports double-down eligibility for the current hand.
func (s *Session) canDouble() bool {
	return len(s.currentHand()) == 2
}

// doubleDown marks the current hand doubled, deals exactly one card, and
// advances. The extra stake is debited by the engine before this runs.
func (s *Session) doubleDown() {
	if s.current == SplitHand {
		s.splitDoubled = true
		s.split = append(s.split, s.deck.Draw())
	} else {
		s.mainDoubled = true
		s.main = append(s.main, s.deck.Draw())
	}
	s.advance()
}

// canSplit reports split eligibility: exactly two cards of equal numeric
// value in the main hand, and no prior split.
func (s *Session) canSplit() bool {
	return s.current == MainHand &&
		!s.splitUsed &&
		len(s.main) == 2 &&
		s.main[0].Value() == s.main[1].Value()
}

// splitHand moves the second card into a new hand and deals one fresh
// card to each resulting hand. Play continues on the main hand.
func (s *Session) splitHand() {
	s.splitUsed = true
	s.split = []Card{s.main[1]}
	s.main = s.main[:1]
	s.main = append(s.main, s.deck.Draw())
	s.split = append(s.split, s.deck.Draw())
}

// advance moves play to the split hand if one is pending, otherwise to
// the dealer.
func (s *Session) advance() {
	if s.current == MainHand && s.splitUsed {
		s.current = SplitHand
		return
	}
	s.state = StateDealerTurn
}

// playDealer draws for the dealer: hit while under 17 or at exactly a
// soft 17. The dealer draws only when at least one player hand is live.
func (s *Session) playDealer() {
	live := HandValue(s.main) <= 21 || (s.splitUsed && HandValue(s.split) <= 21)
	if live {
		for HandValue(s.dealer) < 17 || isSoft17(s.dealer) {
			s.dealer = append(s.dealer, s.deck.Draw())
		}
	}
	s.state = StateResolved
}

// handStake returns the effective stake for a hand, folding in the
// double-down addition.
func (s *Session) handStake(id HandID) int64 {
	stake := s.bet
	if (id == MainHand && s.mainDoubled) || (id == SplitHand && s.splitDoubled) {
		stake *= 2
	}
	return stake
}

// resolve computes the round's final accounting. Insurance resolves
// first, against the dealer's two-card total only, independent of the
// main hand. A natural on either side short-circuits per-hand play.
func (s *Session) resolve() *RoundResult {
	result := &RoundResult{
		PlayerID:    s.playerID,
		Dealer:      append([]Card(nil), s.dealer...),
		DealerValue: HandValue(s.dealer),
	}

	dealerNatural := isNatural(s.dealer[:2])

	if s.insuranceStake > 0 {
		ins := &InsuranceResult{Stake: s.insuranceStake}
		if dealerNatural {
			ins.Won = true
			ins.Payout = 3 * s.insuranceStake
		}
		result.Insurance = ins
		result.TotalPayout += ins.Payout
	}

	// Natural blackjack ends the round before any player decision.
	if isNatural(s.main) || dealerNatural {
		hr := HandResult{
			Hand:  MainHand,
			Cards: append([]Card(nil), s.main...),
			Value: HandValue(s.main),
			Stake: s.bet,
		}
		switch {
		case isNatural(s.main) && dealerNatural:
			hr.Outcome = OutcomePush
			hr.Payout = s.bet
		case isNatural(s.main):
			hr.Outcome = OutcomeBlackjack
			hr.Payout = s.bet * 5 / 2
		default:
			hr.Outcome = OutcomeLoss
		}
		result.Hands = append(result.Hands, hr)
		result.TotalPayout += hr.Payout
		return result
	}

	dealerValue := HandValue(s.dealer)
	hands := []HandID{MainHand}
	if s.splitUsed {
		hands = append(hands, SplitHand)
	}
	for _, id := range hands {
		cards := s.main
		if id == SplitHand {
			cards = s.split
		}
		value := HandValue(cards)
		stake := s.handStake(id)
		hr := HandResult{
			Hand:  id,
			Cards: append([]Card(nil), cards...),
			Value: value,
			Stake: stake,
		}
		switch {
		case value > 21:
			hr.Outcome = OutcomeLoss
		case dealerValue > 21 || value > dealerValue:
			hr.Outcome = OutcomeWin
			hr.Payout = 2 * stake
		case value < dealerValue:
			hr.Outcome = OutcomeLoss
		default:
			hr.Outcome = OutcomePush
			hr.Payout = stake
		}
		result.Hands = append(result.Hands, hr)
		result.TotalPayout += hr.Payout
	}
	return result
}

// cancel produces the accounting for a timed-out round: everything
// already staked stays lost, nothing further is paid.
func (s *Session) cancel() *RoundResult {
	return &RoundResult{
		PlayerID:    s.playerID,
		Dealer:      append([]Card(nil), s.dealer...),
		DealerValue: HandValue(s.dealer),
		Cancelled:   true,
	}
}
