package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/Jmcasavant/StrawberryBot/internal/economy"
	"github.com/Jmcasavant/StrawberryBot/internal/pkg/lock"
)

// EconomyHandler handles balance, daily, transfer, and ranking commands.
type EconomyHandler struct {
	ledger   *economy.Ledger
	userLock *lock.UserLock
}

// NewEconomyHandler creates a new EconomyHandler.
func NewEconomyHandler(ledger *economy.Ledger, userLock *lock.UserLock) *EconomyHandler {
	return &EconomyHandler{
		ledger:   ledger,
		userLock: userLock,
	}
}

// HandleBalance handles the strawberries command, creating the account
// on first use.
func (h *EconomyHandler) HandleBalance(c *Context) error {
	balance := h.ledger.GetOrCreate(c.Author.ID)
	return c.Reply(fmt.Sprintf("🍓 %s, you have %d strawberries.", c.Author.Name, balance))
}

// HandleDaily handles the daily reward claim.
func (h *EconomyHandler) HandleDaily(c *Context) error {
	h.userLock.Lock(c.Author.ID)
	defer h.userLock.Unlock(c.Author.ID)

	reward := h.ledger.ClaimDaily(c.Author.ID)
	if reward == 0 {
		_, remaining := h.ledger.CanClaimDaily(c.Author.ID)
		return c.Reply(fmt.Sprintf("⏰ Already claimed! Come back in %s.", formatDuration(remaining)))
	}

	streak := h.ledger.Streak(c.Author.ID)
	balance := h.ledger.Balance(c.Author.ID)
	msg := fmt.Sprintf("✅ You claimed %d strawberries! Balance: %d 🍓", reward, balance)
	if streak > 1 {
		msg += fmt.Sprintf("\n🔥 Daily streak: %d days", streak)
	}
	return c.Reply(msg)
}

// HandleGive handles peer-to-peer transfers. The target comes from the
// first mention; bot accounts cannot receive strawberries.
func (h *EconomyHandler) HandleGive(c *Context) error {
	if len(c.Mentions) == 0 {
		return c.Reply("❌ Usage: give @user <amount>")
	}
	target := c.Mentions[0]
	if target.Bot {
		return c.Reply("❌ Bots have no use for strawberries.")
	}
	if target.ID == c.Author.ID {
		return c.Reply("❌ You cannot give strawberries to yourself.")
	}

	amount, ok := firstAmount(c.Args)
	if !ok {
		return c.Reply("❌ Usage: give @user <amount>")
	}

	h.userLock.Lock(c.Author.ID)
	defer h.userLock.Unlock(c.Author.ID)

	done, err := h.ledger.Transfer(c.Author.ID, target.ID, amount)
	if err != nil {
		return c.Reply("❌ Transfer failed. Try again later.")
	}
	if !done {
		return c.Reply(fmt.Sprintf("❌ Not enough strawberries. You have %d.", h.ledger.Balance(c.Author.ID)))
	}

	return c.Reply(fmt.Sprintf("🎁 %s gave %d strawberries to %s!", c.Author.Name, amount, target.Name))
}

// HandleTop handles the leaderboard command.
func (h *EconomyHandler) HandleTop(c *Context) error {
	entries := h.ledger.Leaderboard(10)
	if len(entries) == 0 {
		return c.Reply("📊 Nobody has any strawberries yet.")
	}

	var b strings.Builder
	b.WriteString("🏆 Strawberry Leaderboard\n")

	medals := []string{"🥇", "🥈", "🥉"}
	for i, e := range entries {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		fmt.Fprintf(&b, "%s <@%d>: %d 🍓\n", rank, e.UserID, e.Strawberries)
	}
	return c.Reply(b.String())
}

// HandleRank handles the personal rank command.
func (h *EconomyHandler) HandleRank(c *Context) error {
	rank, ok := h.ledger.Rank(c.Author.ID)
	if !ok {
		return c.Reply("📊 You have no strawberries yet. Claim your daily reward to get started!")
	}
	return c.Reply(fmt.Sprintf("📊 %s, you are #%d with %d strawberries.",
		c.Author.Name, rank, h.ledger.Balance(c.Author.ID)))
}

// formatDuration renders a cooldown as "XhYm".
func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
