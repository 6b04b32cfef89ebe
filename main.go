// main.go
//
// Entry point for the word-search server.
//   - Loads .env, resolves configuration and sets the log level.
//   - Loads the word list (WORDS_FILE or the built-in animals).
//   - Picks the session store (memory | sqlite) and sweeps sessions idle
//     for longer than TOKEN_TTL.
//   - Serves HTTP until SIGINT/SIGTERM, then shuts down gracefully.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/robalobadob/wordsearch/internal/config"
	"github.com/robalobadob/wordsearch/internal/events"
	"github.com/robalobadob/wordsearch/internal/httpserver"
	"github.com/robalobadob/wordsearch/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.New())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	cfg.ApplyLogLevel()

	entries, err := cfg.Words()
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.WordsFile).Msg("failed to load word list")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	defer st.Close()

	srv := httpserver.New(cfg, st, events.NewHub(), entries).HTTPServer(":" + cfg.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Int("words", len(entries)).Msg("starting wordsearch server")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sweepIdle(gctx, st, cfg.TokenTTL)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

// sweepIdle drops sessions untouched for ttl until ctx ends.
func sweepIdle(ctx context.Context, st store.Store, ttl time.Duration) {
	every := max(min(ttl/4, 15*time.Minute), time.Second)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := st.Sweep(ctx, now.Add(-ttl))
			if err != nil {
				log.Warn().Err(err).Msg("session sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int("removed", n).Msg("swept idle sessions")
			}
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.StoreDriver == "sqlite" {
		return store.NewSQLiteStore(ctx, cfg.DBPath)
	}
	return store.NewMemoryStore(), nil
}
