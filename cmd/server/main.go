package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"dominoleague/internal/auth"
	"dominoleague/internal/config"
	"dominoleague/internal/httpapi"
	"dominoleague/internal/service"
	"dominoleague/internal/store/postgres"
	"dominoleague/internal/store/redisrank"
	"dominoleague/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := newLogger(cfg)

	var (
		authSvc    *service.AuthService
		gameSvc    *service.GameService
		rankingSvc *service.RankingService
		leagueSvc  *service.LeagueService
		playerSvc  *service.PlayerService
		hub        *ws.Hub
		dbPing     func(context.Context) error
		cachePing  func(context.Context) error
	)

	if cfg.DBDSN != "" {
		pgPool, err := postgres.Open(context.Background(), cfg.DBDSN)
		if err != nil {
			logger.Error("db open failed", "err", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		players := postgres.NewPlayersStore(pgPool)
		sessions := postgres.NewSessionsStore(pgPool)
		games := postgres.NewGamesStore(pgPool)
		leagues := postgres.NewLeaguesStore(pgPool)
		dbPing = pgPool.Ping

		var verifyGoogle service.GoogleTokenVerifier
		if cfg.GoogleClientID != "" {
			clientID := cfg.GoogleClientID
			verifyGoogle = func(ctx context.Context, idToken string) (*auth.ExternalTokenClaims, error) {
				return auth.VerifyGoogleIDToken(ctx, idToken, clientID)
			}
		}

		var cache service.RankCache
		if cfg.RedisAddr != "" {
			rc, err := redisrank.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				logger.Warn("redis unavailable, rankings served from postgres", "err", err)
			} else {
				defer rc.Close()
				cache = rc
				cachePing = rc.Ping
			}
		}

		hub = ws.NewHub(logger)
		go hub.Run()
		defer hub.Stop()

		authSvc = &service.AuthService{
			Players:      players,
			Sessions:     sessions,
			SessionTTL:   cfg.SessionTTL,
			VerifyGoogle: verifyGoogle,
		}
		rankingSvc = &service.RankingService{
			Players:   players,
			Games:     games,
			Cache:     cache,
			Broadcast: hub,
			Logger:    logger,
		}
		gameSvc = &service.GameService{
			Games:     games,
			Completed: rankingSvc,
			Logger:    logger,
		}
		leagueSvc = &service.LeagueService{
			Leagues: leagues,
			Games:   games,
			Logger:  logger,
		}
		playerSvc = &service.PlayerService{Store: players}
	}

	router := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:       logger,
		IsProd:       cfg.IsProd(),
		DBPing:       dbPing,
		CachePing:    cachePing,
		Auth:         authSvc,
		Games:        gameSvc,
		Rankings:     rankingSvc,
		Leagues:      leagueSvc,
		Players:      playerSvc,
		Hub:          hub,
		CookieCodec:  auth.NewCookieCodec([]byte(cfg.CookieSecret)),
		CookieSecure: cfg.CookieSecure(),
		SessionTTL:   cfg.SessionTTL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
