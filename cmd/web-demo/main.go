package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/imperiumfree/imperium-server-go/internal/config"
	"github.com/imperiumfree/imperium-server-go/internal/game"
	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
	"github.com/imperiumfree/imperium-server-go/internal/game/leaders"
)

var (
	addr       = flag.String("addr", ":8080", "listen address")
	configPath = flag.String("config", "", "path to configuration file")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, *addr, cfg, logger); err != nil {
		logger.Fatal("web demo failed", zap.Error(err))
	}
}

func newEngine(cfg *config.Config, logger *zap.Logger) (*game.Engine, error) {
	cat, err := catalog.Default()
	if cfg.Catalog.Path != "" {
		cat, err = catalog.LoadFile(cfg.Catalog.Path)
	}
	if err != nil {
		return nil, err
	}
	return game.NewEngine(logger, game.Deps{Catalog: cat, Leaders: leaders.Registry()}), nil
}

func serve(ctx context.Context, addr string, cfg *config.Config, logger *zap.Logger) error {
	engine, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}
	hub := newHub(engine, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(ctx, hub, w, r)
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	logger.Info("websocket server starting", zap.String("addr", addr), zap.String("endpoint", "/ws"))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
