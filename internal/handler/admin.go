package handler

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Jmcasavant/StrawberryBot/internal/config"
	"github.com/Jmcasavant/StrawberryBot/internal/economy"
	"github.com/Jmcasavant/StrawberryBot/internal/pkg/lock"
)

// AdminHandler handles privileged commands. The bot layer only routes
// these for configured admin IDs; the handler checks again anyway.
type AdminHandler struct {
	cfg      *config.Config
	ledger   *economy.Ledger
	userLock *lock.UserLock
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(cfg *config.Config, ledger *economy.Ledger, userLock *lock.UserLock) *AdminHandler {
	return &AdminHandler{
		cfg:      cfg,
		ledger:   ledger,
		userLock: userLock,
	}
}

// HandleSetBalance sets a user's balance to an exact value.
func (h *AdminHandler) HandleSetBalance(c *Context) error {
	if !h.cfg.IsAdmin(c.Author.ID) {
		return c.Reply("❌ You are not allowed to do that.")
	}
	if len(c.Mentions) == 0 {
		return c.Reply("❌ Usage: setberries @user <amount>")
	}
	target := c.Mentions[0]

	var amount int64
	var found bool
	for _, a := range c.Args {
		if n, err := strconv.ParseInt(a, 10, 64); err == nil {
			amount, found = n, true
			break
		}
	}
	if !found {
		return c.Reply("❌ Usage: setberries @user <amount>")
	}

	h.userLock.Lock(target.ID)
	defer h.userLock.Unlock(target.ID)

	if err := h.ledger.SetBalance(target.ID, amount); err != nil {
		return c.Reply("❌ The amount cannot be negative.")
	}

	log.Info().
		Int64("admin_id", c.Author.ID).
		Int64("user_id", target.ID).
		Int64("amount", amount).
		Msg("Admin set balance")

	return c.Reply(fmt.Sprintf("✅ Set %s's balance to %d 🍓", target.Name, amount))
}

// HandleCleanup removes inactive accounts that never left the starting
// balance.
func (h *AdminHandler) HandleCleanup(c *Context) error {
	if !h.cfg.IsAdmin(c.Author.ID) {
		return c.Reply("❌ You are not allowed to do that.")
	}

	days := h.cfg.Economy.InactiveDays
	if len(c.Args) > 0 {
		if n, err := strconv.Atoi(c.Args[0]); err == nil && n > 0 {
			days = n
		}
	}

	removed := h.ledger.CleanupInactive(days)
	log.Info().
		Int64("admin_id", c.Author.ID).
		Int("removed", len(removed)).
		Int("days", days).
		Msg("Inactive account cleanup")

	return c.Reply(fmt.Sprintf("🧹 Removed %d inactive accounts (idle over %d days, untouched balance).", len(removed), days))
}
