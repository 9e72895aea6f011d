// Package roulette implements a single-zero roulette wheel.
package roulette

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/Jmcasavant/StrawberryBot/internal/game"
)

const (
	// DefaultMaxBet is the maximum allowed bet when none is configured.
	DefaultMaxBet = 1000

	// ColorMultiplier is the net win multiplier for red/black bets.
	ColorMultiplier = 2

	// NumberMultiplier is the net win multiplier for exact-number and
	// green bets.
	NumberMultiplier = 35
)

var (
	ErrInvalidBet    = errors.New("bet amount must be positive")
	ErrBetTooHigh    = errors.New("bet exceeds maximum allowed")
	ErrMissingChoice = errors.New("a bet choice is required")
	ErrInvalidChoice = errors.New("choice must be red, black, green, or a number from 0 to 36")
)

// redNumbers holds the red pockets of a European wheel. Every other
// nonzero pocket is black; 0 is green.
var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true,
	14: true, 16: true, 18: true, 19: true, 21: true, 23: true,
	25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// pocketColor returns "green", "red", or "black" for a pocket.
func pocketColor(n int) string {
	switch {
	case n == 0:
		return "green"
	case redNumbers[n]:
		return "red"
	default:
		return "black"
	}
}

// Roulette implements game.Game for a European (single-zero) wheel.
type Roulette struct {
	maxBet int64

	mu  sync.Mutex
	rng *rand.Rand
}

// Config holds configuration for the roulette game.
type Config struct {
	MaxBet int64
	Seed   int64 // 0 seeds from the clock
}

// New creates a roulette game with the given configuration.
func New(cfg *Config) *Roulette {
	maxBet := int64(DefaultMaxBet)
	seed := time.Now().UnixNano()

	if cfg != nil {
		if cfg.MaxBet > 0 {
			maxBet = cfg.MaxBet
		}
		if cfg.Seed != 0 {
			seed = cfg.Seed
		}
	}

	return &Roulette{
		maxBet: maxBet,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Name returns the game's display name.
func (r *Roulette) Name() string {
	return "Roulette"
}

// Command returns the chat command that triggers the game.
func (r *Roulette) Command() string {
	return "roulette"
}

// Description returns a short help line for the game.
func (r *Roulette) Description() string {
	return "Spin the wheel: red/black pays 2x, green or an exact number pays 35x."
}

// MaxBet returns the maximum allowed bet.
func (r *Roulette) MaxBet() int64 {
	return r.maxBet
}

// ValidateBet checks the bet amount and the chosen pocket or color.
func (r *Roulette) ValidateBet(bet int64, params map[string]any) error {
	if bet <= 0 {
		return ErrInvalidBet
	}
	if bet > r.maxBet {
		return fmt.Errorf("%w: max bet is %d", ErrBetTooHigh, r.maxBet)
	}
	if _, err := extractChoice(params); err != nil {
		return err
	}
	return nil
}

// Play spins the wheel and settles the bet. The returned payout is the
// net change: +2x bet on a color hit, +35x on green or an exact number,
// -bet otherwise.
func (r *Roulette) Play(ctx context.Context, userID int64, bet int64, params map[string]any) (*game.Result, error) {
	if err := r.ValidateBet(bet, params); err != nil {
		return nil, err
	}

	c, err := extractChoice(params)
	if err != nil {
		return nil, err
	}

	spin := r.spin(params)
	color := pocketColor(spin)
	payout := settle(c, spin, bet)

	var description string
	switch {
	case payout > 0:
		description = fmt.Sprintf("🎡 The ball lands on %d (%s). You won %d strawberries!", spin, color, payout)
	default:
		description = fmt.Sprintf("🎡 The ball lands on %d (%s). You lost %d strawberries.", spin, color, -payout)
	}

	return &game.Result{
		Payout:      payout,
		Description: description,
		Details: map[string]any{
			"spin":   spin,
			"color":  color,
			"choice": c.label,
			"bet":    bet,
		},
	}, nil
}

// spin returns the winning pocket, honoring a rigged "spin" parameter
// when present.
func (r *Roulette) spin(params map[string]any) int {
	if params != nil {
		if v, ok := extractInt(params, "spin"); ok && v >= 0 && v <= 36 {
			return v
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(37)
}

// choice is a parsed roulette bet: either a color or an exact pocket.
type choice struct {
	label  string
	color  string // "red", "black", or "green"; empty for number bets
	number int    // valid only when color is empty
}

// settle computes the net payout for one spin.
func settle(c choice, spin int, bet int64) int64 {
	switch {
	case c.color == "green":
		if spin == 0 {
			return bet * NumberMultiplier
		}
	case c.color != "":
		if pocketColor(spin) == c.color {
			return bet * ColorMultiplier
		}
	default:
		if spin == c.number {
			return bet * NumberMultiplier
		}
	}
	return -bet
}

// extractChoice parses the "choice" parameter.
func extractChoice(params map[string]any) (choice, error) {
	if params == nil {
		return choice{}, ErrMissingChoice
	}
	raw, ok := params["choice"].(string)
	if !ok || raw == "" {
		return choice{}, ErrMissingChoice
	}

	switch raw {
	case "red", "black", "green":
		return choice{label: raw, color: raw}, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > 36 {
		return choice{}, ErrInvalidChoice
	}
	return choice{label: raw, number: n}, nil
}

// extractInt reads an integer parameter regardless of its concrete type.
func extractInt(params map[string]any, key string) (int, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	default:
		return 0, false
	}
}
