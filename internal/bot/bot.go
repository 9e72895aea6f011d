// Package bot wires the Discord gateway to the command handlers.
package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/Jmcasavant/StrawberryBot/internal/blackjack"
	"github.com/Jmcasavant/StrawberryBot/internal/bugs"
	"github.com/Jmcasavant/StrawberryBot/internal/config"
	"github.com/Jmcasavant/StrawberryBot/internal/economy"
	"github.com/Jmcasavant/StrawberryBot/internal/game"
	"github.com/Jmcasavant/StrawberryBot/internal/handler"
	"github.com/Jmcasavant/StrawberryBot/internal/pkg/lock"
)

// Bot wraps the discordgo session with the application handlers.
type Bot struct {
	session  *discordgo.Session
	cfg      *config.Config
	registry *game.Registry

	economyHandler *handler.EconomyHandler
	gameHandler    *handler.GameHandler
	adminHandler   *handler.AdminHandler
	bugsHandler    *handler.BugsHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config   *config.Config
	Ledger   *economy.Ledger
	Engine   *blackjack.Engine
	Registry *game.Registry
	Tracker  *bugs.Tracker
	UserLock *lock.UserLock
}

// New creates a Bot with the given dependencies. The session is not
// opened until Start.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	session, err := discordgo.New("Bot " + deps.Config.Bot.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		session:  session,
		cfg:      deps.Config,
		registry: deps.Registry,
	}

	b.economyHandler = handler.NewEconomyHandler(deps.Ledger, deps.UserLock)
	b.gameHandler = handler.NewGameHandler(deps.Ledger, deps.Registry, deps.Engine, deps.UserLock)
	b.adminHandler = handler.NewAdminHandler(deps.Config, deps.Ledger, deps.UserLock)
	b.bugsHandler = handler.NewBugsHandler(deps.Config, deps.Tracker, deps.Engine)

	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)

	return b, nil
}

// Start opens the gateway connection.
func (b *Bot) Start() error {
	log.Info().Msg("Connecting to Discord...")
	return b.session.Open()
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	log.Info().Msg("Disconnecting from Discord...")
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Info().
		Str("username", event.User.Username).
		Str("user_id", event.User.ID).
		Msg("Bot connected")

	if err := s.UpdateGameStatus(0, b.cfg.Bot.Prefix+"strawberries"); err != nil {
		log.Warn().Err(err).Msg("Failed to set presence")
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !strings.HasPrefix(m.Content, b.cfg.Bot.Prefix) {
		return
	}

	fields := strings.Fields(strings.TrimPrefix(m.Content, b.cfg.Bot.Prefix))
	if len(fields) == 0 {
		return
	}
	command := strings.ToLower(fields[0])
	args := fields[1:]

	authorID, err := parseSnowflake(m.Author.ID)
	if err != nil {
		log.Warn().Str("raw_id", m.Author.ID).Msg("Unparseable author ID")
		return
	}

	c := &handler.Context{
		Replier: messageReplier{session: s, channelID: m.ChannelID},
		Author: handler.User{
			ID:   authorID,
			Name: m.Author.Username,
		},
		Args:     args,
		Mentions: parseMentions(m.Mentions),
	}

	log.Debug().
		Int64("user_id", authorID).
		Str("command", command).
		Msg("Command received")

	if err := b.dispatch(c, command); err != nil {
		log.Error().Err(err).
			Int64("user_id", authorID).
			Str("command", command).
			Msg("Command failed")
	}
}

// dispatch routes one parsed command to its handler. Decisions are
// parsed here once; handlers never see raw decision strings.
func (b *Bot) dispatch(c *handler.Context, command string) error {
	switch command {
	case "strawberries", "berries", "balance":
		return b.economyHandler.HandleBalance(c)
	case "daily":
		return b.economyHandler.HandleDaily(c)
	case "give":
		return b.economyHandler.HandleGive(c)
	case "top", "leaderboard":
		return b.economyHandler.HandleTop(c)
	case "rank":
		return b.economyHandler.HandleRank(c)

	case "blackjack", "bj":
		return b.gameHandler.HandleBlackjack(c)
	case "hit":
		return b.gameHandler.HandleDecision(c, blackjack.DecisionHit)
	case "stand":
		return b.gameHandler.HandleDecision(c, blackjack.DecisionStand)
	case "double":
		return b.gameHandler.HandleDecision(c, blackjack.DecisionDouble)
	case "split":
		return b.gameHandler.HandleDecision(c, blackjack.DecisionSplit)
	case "insurance":
		return b.gameHandler.HandleDecision(c, blackjack.DecisionInsurance)
	case "pass":
		return b.gameHandler.HandleDecision(c, blackjack.DecisionDeclineInsurance)

	case "report":
		return b.bugsHandler.HandleReport(c)
	case "bugs":
		return b.bugsHandler.HandleList(c)
	case "bugstatus":
		return b.bugsHandler.HandleSetStatus(c)
	case "bugnote":
		return b.bugsHandler.HandleAddNote(c)

	case "setberries":
		return b.adminHandler.HandleSetBalance(c)
	case "cleanup":
		return b.adminHandler.HandleCleanup(c)

	case "help":
		return c.Reply(b.helpText())
	}

	if _, ok := b.registry.Get(command); ok {
		return b.gameHandler.HandlePlay(c, command)
	}
	return nil
}

func (b *Bot) helpText() string {
	p := b.cfg.Bot.Prefix
	var sb strings.Builder
	sb.WriteString("🍓 StrawberryBot commands\n")
	fmt.Fprintf(&sb, "%sstrawberries — check your balance\n", p)
	fmt.Fprintf(&sb, "%sdaily — claim your daily strawberries\n", p)
	fmt.Fprintf(&sb, "%sgive @user <amount> — share strawberries\n", p)
	fmt.Fprintf(&sb, "%stop — leaderboard, %srank — your rank\n", p, p)
	fmt.Fprintf(&sb, "%sblackjack <bet> — then %shit/%sstand/%sdouble/%ssplit\n", p, p, p, p, p)
	for _, g := range b.registry.List() {
		fmt.Fprintf(&sb, "%s%s <bet> ... — %s\n", p, g.Command(), g.Description())
	}
	fmt.Fprintf(&sb, "%sreport <game> <description> — file a bug", p)
	return sb.String()
}

// parseSnowflake converts a Discord ID string to int64.
func parseSnowflake(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}

// parseMentions converts Discord mentions, keeping the bot flag so
// handlers can refuse bot accounts.
func parseMentions(mentions []*discordgo.User) []handler.User {
	out := make([]handler.User, 0, len(mentions))
	for _, m := range mentions {
		id, err := parseSnowflake(m.ID)
		if err != nil {
			continue
		}
		out = append(out, handler.User{ID: id, Name: m.Username, Bot: m.Bot})
	}
	return out
}
