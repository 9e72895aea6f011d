// Package main is the entry point for StrawberryBot.
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Jmcasavant/StrawberryBot/internal/blackjack"
	"github.com/Jmcasavant/StrawberryBot/internal/bot"
	"github.com/Jmcasavant/StrawberryBot/internal/bugs"
	"github.com/Jmcasavant/StrawberryBot/internal/config"
	"github.com/Jmcasavant/StrawberryBot/internal/economy"
	"github.com/Jmcasavant/StrawberryBot/internal/game"
	"github.com/Jmcasavant/StrawberryBot/internal/game/roulette"
	"github.com/Jmcasavant/StrawberryBot/internal/pkg/lock"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log.Info().Msg("Configuration loaded successfully")

	// Ledger: strawberry balances, streaks, and the JSON file behind them.
	ledger, err := economy.Open(&cfg.Economy)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open strawberry ledger")
	}
	ledger.Start()

	// Blackjack engine with the ledger as its wallet.
	engine := blackjack.NewEngine(ledger, &cfg.Blackjack)
	engine.Start()

	// Single-round games.
	registry := game.NewRegistry()
	if err := registry.Register(roulette.New(&roulette.Config{MaxBet: cfg.Roulette.MaxBet})); err != nil {
		log.Fatal().Err(err).Msg("Failed to register roulette")
	}
	log.Info().Int("game_count", registry.Count()).Msg("Games registered")

	// Bug reports.
	tracker, err := bugs.Open(cfg.Bugs.ReportsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open bug tracker")
	}

	userLock := lock.NewUserLock()

	deps := &bot.Dependencies{
		Config:   cfg,
		Ledger:   ledger,
		Engine:   engine,
		Registry: registry,
		Tracker:  tracker,
		UserLock: userLock,
	}

	discordBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	if err := discordBot.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Discord")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Stop taking commands first, then settle the games, then flush
	// the ledger to disk.
	if err := discordBot.Stop(); err != nil {
		log.Error().Err(err).Msg("Error disconnecting from Discord")
	}
	engine.Stop()
	ledger.Stop()

	log.Info().Msg("Bot stopped gracefully")
}
