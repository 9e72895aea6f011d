// Package blackjack implements the authoritative rules engine for
// blackjack rounds: card dealing, hand valuation with soft-ace handling,
// split/double-down/insurance rules, dealer policy, and payouts.
package blackjack

import (
	"math/rand"
)

// Suit identifies one of the four card suits.
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

var suitSymbols = [...]string{"♠", "♥", "♦", "♣"}

func (s Suit) String() string {
	return suitSymbols[s]
}

// Rank identifies one of the thirteen card ranks.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

var rankSymbols = map[Rank]string{
	Two: "2", Three: "3", Four: "4", Five: "5", Six: "6",
	Seven: "7", Eight: "8", Nine: "9", Ten: "10",
	Jack: "J", Queen: "Q", King: "K", Ace: "A",
}

func (r Rank) String() string {
	return rankSymbols[r]
}

// Card is an immutable (suit, rank) pair.
type Card struct {
	Suit Suit
	Rank Rank
}

// Value returns the card's nominal numeric value: 2-10 for pip cards,
// 10 for face cards, 11 for an ace.
func (c Card) Value() int {
	switch {
	case c.Rank >= Jack:
		if c.Rank == Ace {
			return 11
		}
		return 10
	default:
		return int(c.Rank)
	}
}

// IsAce reports whether the card is an ace.
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Deck is an ordered, shuffled sequence of the 52 distinct cards. When
// the deck runs out a fresh shuffled deck replaces it transparently.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates a shuffled 52-card deck drawing randomness from rng.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}
	d.refill()
	return d
}

func (d *Deck) refill() {
	d.cards = make([]Card, 0, 52)
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, Card{Suit: suit, Rank: rank})
		}
	}
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card, refilling first if exhausted.
func (d *Deck) Draw() Card {
	if len(d.cards) == 0 {
		d.refill()
	}
	card := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return card
}

// Remaining returns the number of undrawn cards.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// HandValue computes a hand's total. Each ace counts as 11 unless that
// would bust the hand, in which case it drops to 1 - aces never cause an
// avoidable bust.
func HandValue(hand []Card) int {
	total := 0
	aces := 0
	for _, c := range hand {
		if c.IsAce() {
			aces++
		}
		total += c.Value()
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsSoft reports whether the hand's total counts an ace as 11.
func IsSoft(hand []Card) bool {
	hard := 0
	aces := 0
	for _, c := range hand {
		if c.IsAce() {
			aces++
			hard++
			continue
		}
		hard += c.Value()
	}
	return aces > 0 && hard+10 <= 21
}

// isSoft17 reports whether the hand is exactly a soft 17.
func isSoft17(h []Card) bool {
	return HandValue(h) == 17 && IsSoft(h)
}

// isNatural reports whether the hand is a two-card 21.
func isNatural(h []Card) bool {
	return len(h) == 2 && HandValue(h) == 21
}
