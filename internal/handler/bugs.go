package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Jmcasavant/StrawberryBot/internal/blackjack"
	"github.com/Jmcasavant/StrawberryBot/internal/bugs"
	"github.com/Jmcasavant/StrawberryBot/internal/config"
)

// BugsHandler files and triages bug reports.
type BugsHandler struct {
	cfg     *config.Config
	tracker *bugs.Tracker
	engine  *blackjack.Engine
}

// NewBugsHandler creates a new BugsHandler.
func NewBugsHandler(cfg *config.Config, tracker *bugs.Tracker, engine *blackjack.Engine) *BugsHandler {
	return &BugsHandler{
		cfg:     cfg,
		tracker: tracker,
		engine:  engine,
	}
}

// knownGames are the game types a report can be filed against.
var knownGames = map[string]bool{
	"blackjack": true,
	"roulette":  true,
	"economy":   true,
	"other":     true,
}

// HandleReport files a bug report. If the reporter has a blackjack
// round going, its state is attached so the report survives the round.
func (h *BugsHandler) HandleReport(c *Context) error {
	if len(c.Args) < 2 {
		return c.Reply("❌ Usage: report <blackjack|roulette|economy|other> <description>")
	}

	gameType := strings.ToLower(c.Args[0])
	if !knownGames[gameType] {
		return c.Reply("❌ Usage: report <blackjack|roulette|economy|other> <description>")
	}
	description := strings.Join(c.Args[1:], " ")

	var state map[string]any
	if gameType == "blackjack" {
		if snap, err := h.engine.Snapshot(c.Author.ID); err == nil {
			state = map[string]any{
				"state":     snap.State.String(),
				"bet":       snap.Bet,
				"hand":      renderCards(snap.Main),
				"dealer_up": snap.DealerUp.String(),
			}
			if snap.Split != nil {
				state["split_hand"] = renderCards(snap.Split)
			}
		}
	}

	r, err := h.tracker.Create(c.Author.ID, gameType, description, state)
	if err != nil {
		return c.Reply("❌ Could not file the report. Try again later.")
	}
	return c.Reply(fmt.Sprintf("🐛 Report filed! ID: `%s`. Thanks for helping squash bugs.", r.ID))
}

// HandleList shows reports, optionally filtered by status.
func (h *BugsHandler) HandleList(c *Context) error {
	if !h.cfg.IsAdmin(c.Author.ID) {
		return c.Reply("❌ You are not allowed to do that.")
	}

	status := bugs.Status("")
	if len(c.Args) > 0 {
		status = bugs.Status(strings.ToLower(c.Args[0]))
		if !status.Valid() {
			return c.Reply("❌ Status must be open, investigating, fixed, or closed.")
		}
	}

	reports := h.tracker.List(status)
	if len(reports) == 0 {
		return c.Reply("🐛 No reports found.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🐛 Bug reports (%d)\n", len(reports))
	for i, r := range reports {
		if i == 10 {
			fmt.Fprintf(&b, "... and %d more\n", len(reports)-10)
			break
		}
		fmt.Fprintf(&b, "`%s` [%s] %s — %s\n", r.ID, r.Status, r.GameType, r.Description)
	}
	return c.Reply(b.String())
}

// HandleSetStatus moves a report to a new triage state.
func (h *BugsHandler) HandleSetStatus(c *Context) error {
	if !h.cfg.IsAdmin(c.Author.ID) {
		return c.Reply("❌ You are not allowed to do that.")
	}
	if len(c.Args) < 2 {
		return c.Reply("❌ Usage: bugstatus <id> <open|investigating|fixed|closed>")
	}

	id := c.Args[0]
	status := bugs.Status(strings.ToLower(c.Args[1]))

	r, err := h.tracker.SetStatus(id, status)
	if err != nil {
		switch {
		case errors.Is(err, bugs.ErrInvalidStatus):
			return c.Reply("❌ Status must be open, investigating, fixed, or closed.")
		case errors.Is(err, bugs.ErrNotFound):
			return c.Reply("❌ No report with that ID.")
		default:
			return c.Reply("❌ Could not update the report.")
		}
	}
	return c.Reply(fmt.Sprintf("✅ Report `%s` is now %s.", r.ID, r.Status))
}

// HandleAddNote appends an admin note to a report.
func (h *BugsHandler) HandleAddNote(c *Context) error {
	if !h.cfg.IsAdmin(c.Author.ID) {
		return c.Reply("❌ You are not allowed to do that.")
	}
	if len(c.Args) < 2 {
		return c.Reply("❌ Usage: bugnote <id> <note>")
	}

	id := c.Args[0]
	note := strings.Join(c.Args[1:], " ")

	if _, err := h.tracker.AddNote(id, note); err != nil {
		return c.Reply("❌ No report with that ID.")
	}
	return c.Reply(fmt.Sprintf("✅ Note added to `%s`.", id))
}
