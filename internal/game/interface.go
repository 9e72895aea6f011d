// Package game defines the common interface and registry for the
// single-round casino games the bot offers.
package game

import "context"

// Result is the outcome of one round of a game.
type Result struct {
	Payout      int64          // net strawberries (positive = win, negative = loss, 0 = push)
	Description string         // human-readable summary for the channel
	Details     map[string]any // game-specific extras (winning number, color, ...)
}

// Game is implemented by every single-round game. A round takes a bet
// and optional parameters, settles immediately, and returns the result.
type Game interface {
	// Name returns the game's display name (e.g., "Roulette").
	Name() string

	// Command returns the chat command that triggers the game.
	Command() string

	// Description returns a short help line for the game.
	Description() string

	// ValidateBet checks the bet amount and parameters before any
	// strawberries change hands.
	ValidateBet(bet int64, params map[string]any) error

	// Play runs one round and returns the net payout. The caller
	// settles the result against the ledger.
	Play(ctx context.Context, userID int64, bet int64, params map[string]any) (*Result, error)

	// MaxBet returns the maximum allowed bet, or 0 for no limit.
	MaxBet() int64
}
