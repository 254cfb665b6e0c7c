package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/imperiumfree/imperium-server-go/internal/config"
	"github.com/imperiumfree/imperium-server-go/internal/game"
	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
	"github.com/imperiumfree/imperium-server-go/internal/game/leaders"
	"github.com/imperiumfree/imperium-server-go/internal/game/policy"
	"github.com/imperiumfree/imperium-server-go/internal/game/watchers"
	"github.com/imperiumfree/imperium-server-go/internal/storage"
	"github.com/imperiumfree/imperium-server-go/internal/tournament"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting imperium runner",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("runner failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	cat, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("cards", len(cat.Cards)),
		zap.Int("locations", len(cat.Locations)),
	)

	store, err := storage.Open(ctx, cfg.StorageOptions(), logger)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}
	defer store.Close()
	logger.Info("snapshot store initialized", zap.String("backend", cfg.Storage.Backend))

	engine := game.NewEngine(logger, game.Deps{Catalog: cat, Leaders: leaders.Registry()})
	engine.SetStore(store)
	if cfg.Simulation.ReplayDir != "" {
		engine.SetReplayRecorder(game.NewReplayRecorder(logger, cfg.Simulation.ReplayDir))
	}

	series := tournament.NewManager(logger).CreateTournament("simulation", cfg.Simulation.Games)
	for i, s := range cfg.Simulation.Seats() {
		if err := series.AddEntrant(seatName(i, s)); err != nil {
			return err
		}
	}
	if err := series.Start(); err != nil {
		return err
	}

	rules := cfg.RuleSet()
	for i := 0; i < cfg.Simulation.Games; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := playGame(ctx, engine, cfg.Simulation, rules, i, series, logger); err != nil {
			return err
		}
	}
	logSeries(logger, series.Snapshot())
	return nil
}

func seatName(i int, s config.Seat) string {
	return fmt.Sprintf("%s %d", s.Policy, i+1)
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if cfg.Path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(cfg.Path)
}

func playGame(ctx context.Context, engine *game.Engine, sim config.SimulationConfig, rules game.Rules, n int, series *tournament.Tournament, logger *zap.Logger) error {
	seed := sim.Seed + uint64(n)
	seats := sim.Seats()
	opts := game.Options{Seed: seed, Rules: &rules}
	names := make([]string, len(seats))
	for i, s := range seats {
		names[i] = seatName(i, s)
		opts.Players = append(opts.Players, game.PlayerSetup{
			Name:   names[i],
			Leader: s.Leader,
		})
	}
	gameID, err := engine.NewGame(opts)
	if err != nil {
		return fmt.Errorf("create game %d: %w", n+1, err)
	}
	defer engine.Remove(gameID)
	stats := watchers.NewStats()
	if err := engine.Watch(gameID, stats.Registry); err != nil {
		return err
	}

	driver := policy.NewDriver(engine, logger)
	driver.SetMaxActions(sim.MaxActions)
	for i, s := range seats {
		p, err := policy.ByName(s.Policy, seed*31+uint64(i))
		if err != nil {
			return err
		}
		driver.Seat(i, p)
	}

	progress, err := driver.Run(ctx, gameID)
	if err != nil {
		return fmt.Errorf("play game %s: %w", gameID, err)
	}
	view, err := engine.View(gameID)
	if err != nil {
		return err
	}
	logStandings(logger, view, progress, stats)
	if view.Result == nil {
		return nil
	}
	return series.RecordGame(gameID, names, view.Result)
}

func logSeries(logger *zap.Logger, snap tournament.TournamentSnapshot) {
	logger.Info("series finished",
		zap.String("tournament_id", snap.ID),
		zap.String("state", snap.State.String()),
		zap.Int("games", len(snap.Games)),
	)
	for rank, e := range snap.Standings {
		logger.Info("series standing",
			zap.Int("rank", rank+1),
			zap.String("entrant", e.Name),
			zap.Int("points", e.Points),
			zap.Int("wins", e.Wins),
			zap.Int("draws", e.Draws),
			zap.Int("losses", e.Losses),
			zap.Int("vp", e.VP),
		)
	}
}

func logStandings(logger *zap.Logger, view game.GameView, progress policy.Progress, stats *watchers.Stats) {
	if view.Result == nil {
		logger.Warn("game did not finish", zap.String("game_id", view.GameID))
		return
	}
	logger.Info("game finished",
		zap.String("game_id", view.GameID),
		zap.Int("rounds", view.Round),
		zap.Int("actions", progress.Actions),
		zap.String("reason", view.EndReason),
		zap.Ints("winners", view.Result.Winners),
		zap.Bool("tied", view.Result.Tied),
		zap.Strings("busiest_locations", stats.Locations.Busiest(3)),
	)
	players := stats.Players(len(view.Players))
	for _, s := range view.Result.Standings {
		p := view.Players[s.PlayerID]
		ps := players[s.PlayerID]
		logger.Info("standing",
			zap.String("game_id", view.GameID),
			zap.Int("rank", s.Rank),
			zap.String("player", p.Name),
			zap.String("leader", p.Leader),
			zap.Int("vp", s.VP),
			zap.Int("cards_acquired", ps.CardsAcquired),
			zap.Int("troops_sent", ps.TroopsSent),
			zap.Int("conflicts_won", ps.ConflictsWon),
		)
	}
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
