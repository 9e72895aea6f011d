package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Jmcasavant/StrawberryBot/internal/blackjack"
	"github.com/Jmcasavant/StrawberryBot/internal/economy"
	"github.com/Jmcasavant/StrawberryBot/internal/game"
	"github.com/Jmcasavant/StrawberryBot/internal/pkg/lock"
)

// GameHandler handles the single-round games and the blackjack table.
type GameHandler struct {
	ledger   *economy.Ledger
	registry *game.Registry
	engine   *blackjack.Engine
	userLock *lock.UserLock
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(ledger *economy.Ledger, registry *game.Registry, engine *blackjack.Engine, userLock *lock.UserLock) *GameHandler {
	return &GameHandler{
		ledger:   ledger,
		registry: registry,
		engine:   engine,
		userLock: userLock,
	}
}

// HandlePlay runs one round of a registry game. Arguments are
// positional: the bet first, then any game parameters.
func (h *GameHandler) HandlePlay(c *Context, command string) error {
	g, ok := h.registry.Get(command)
	if !ok {
		return c.Reply("❌ Unknown game.")
	}

	if len(c.Args) == 0 {
		return c.Reply(fmt.Sprintf("❌ Usage: %s <bet> ... — %s", g.Command(), g.Description()))
	}

	bet, ok := parseAmount(c.Args[0])
	if !ok {
		return c.Reply("❌ The bet must be a positive number of strawberries.")
	}

	params := map[string]any{}
	if len(c.Args) > 1 {
		params["choice"] = strings.ToLower(c.Args[1])
	}

	if err := g.ValidateBet(bet, params); err != nil {
		return c.Reply(fmt.Sprintf("❌ %v", err))
	}

	return h.userLock.WithLock(c.Author.ID, func() error {
		balance := h.ledger.GetOrCreate(c.Author.ID)
		if balance < bet {
			return c.Reply(fmt.Sprintf("❌ Not enough strawberries. You have %d.", balance))
		}

		result, err := g.Play(context.Background(), c.Author.ID, bet, params)
		if err != nil {
			return c.Reply(fmt.Sprintf("❌ %v", err))
		}

		if err := h.settle(c.Author.ID, result.Payout); err != nil {
			log.Error().Err(err).Int64("user_id", c.Author.ID).Str("game", command).Msg("Failed to settle game result")
			return c.Reply("❌ Something went wrong settling the round.")
		}

		return c.Reply(fmt.Sprintf("%s\n🍓 Balance: %d", result.Description, h.ledger.Balance(c.Author.ID)))
	})
}

// settle applies a net payout to the ledger.
func (h *GameHandler) settle(userID, payout int64) error {
	switch {
	case payout > 0:
		_, err := h.ledger.Credit(userID, payout)
		return err
	case payout < 0:
		ok, err := h.ledger.Debit(userID, -payout)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("debit of %d failed for user %d", -payout, userID)
		}
	}
	return nil
}

// HandleBlackjack starts a blackjack round.
func (h *GameHandler) HandleBlackjack(c *Context) error {
	if len(c.Args) == 0 {
		return c.Reply("❌ Usage: blackjack <bet>")
	}
	bet, ok := parseAmount(c.Args[0])
	if !ok {
		return c.Reply("❌ The bet must be a positive number of strawberries.")
	}

	h.ledger.GetOrCreate(c.Author.ID)

	snap, err := h.engine.StartRound(c.Author.ID, bet)
	if err != nil {
		return c.Reply(blackjackError(err, h.ledger.Balance(c.Author.ID)))
	}
	return c.Reply(h.renderRound(c.Author.ID, snap))
}

// HandleDecision applies a blackjack decision for the player.
func (h *GameHandler) HandleDecision(c *Context, d blackjack.Decision) error {
	snap, err := h.engine.Apply(c.Author.ID, d)
	if err != nil {
		if errors.Is(err, blackjack.ErrDecisionTimeout) {
			return c.Reply("⏰ Too slow! The round was cancelled and the dealer kept your bet.")
		}
		return c.Reply(blackjackError(err, h.ledger.Balance(c.Author.ID)))
	}
	return c.Reply(h.renderRound(c.Author.ID, snap))
}

func blackjackError(err error, balance int64) string {
	switch {
	case errors.Is(err, blackjack.ErrSessionInProgress):
		return "❌ You already have a round going. Finish it first!"
	case errors.Is(err, blackjack.ErrNoSession):
		return "❌ No round in progress. Start one with blackjack <bet>."
	case errors.Is(err, blackjack.ErrInvalidBet):
		return "❌ That bet is below the table minimum."
	case errors.Is(err, blackjack.ErrBetTooLarge):
		return "❌ That bet is above the table maximum."
	case errors.Is(err, blackjack.ErrInsufficientFunds):
		return fmt.Sprintf("❌ Not enough strawberries. You have %d.", balance)
	case errors.Is(err, blackjack.ErrInvalidDecision):
		return "❌ You can't do that right now."
	default:
		return "❌ Something went wrong at the table."
	}
}

// renderRound formats a snapshot, appending the final accounting when
// the round is over.
func (h *GameHandler) renderRound(userID int64, snap *blackjack.Snapshot) string {
	var b strings.Builder
	b.WriteString("🃏 Blackjack\n")

	label := "Your hand"
	if snap.Split != nil {
		label = "Hand 1"
	}
	fmt.Fprintf(&b, "%s: %s (%d)\n", label, renderCards(snap.Main), snap.MainValue)
	if snap.Split != nil {
		fmt.Fprintf(&b, "Hand 2: %s (%d)\n", renderCards(snap.Split), snap.SplitValue)
	}

	if snap.Result != nil {
		r := snap.Result
		fmt.Fprintf(&b, "Dealer: %s (%d)\n", renderCards(r.Dealer), r.DealerValue)
		for _, hand := range r.Hands {
			fmt.Fprintf(&b, "%s %s", outcomeEmoji(hand.Outcome), hand.Outcome)
			if hand.Payout > 0 {
				fmt.Fprintf(&b, " (+%d)", hand.Payout)
			}
			b.WriteString("\n")
		}
		if r.Insurance != nil {
			if r.Insurance.Won {
				fmt.Fprintf(&b, "🛡️ Insurance paid %d\n", r.Insurance.Payout)
			} else {
				b.WriteString("🛡️ Insurance lost\n")
			}
		}
		fmt.Fprintf(&b, "🍓 Balance: %d", h.ledger.Balance(userID))
		return b.String()
	}

	fmt.Fprintf(&b, "Dealer shows: %s\n", snap.DealerUp)

	switch snap.State {
	case blackjack.StateInsurance:
		b.WriteString("The dealer shows an ace. insurance or pass?")
	default:
		if snap.Split != nil {
			fmt.Fprintf(&b, "Playing hand %d. ", snap.CurrentHand+1)
		}
		b.WriteString("hit, stand, double, or split?")
	}
	return b.String()
}

func renderCards(cards []blackjack.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func outcomeEmoji(o blackjack.Outcome) string {
	switch o {
	case blackjack.OutcomeWin, blackjack.OutcomeBlackjack:
		return "🎉"
	case blackjack.OutcomePush:
		return "😐"
	default:
		return "😢"
	}
}
