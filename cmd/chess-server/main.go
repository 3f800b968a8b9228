package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/graceteusch/chess/internal/config"
	"github.com/graceteusch/chess/internal/hub"
	"github.com/graceteusch/chess/internal/msgcat"
	"github.com/graceteusch/chess/internal/obslog"
	"github.com/graceteusch/chess/internal/render"
	"github.com/graceteusch/chess/internal/session"
	"github.com/graceteusch/chess/internal/store"
	"github.com/graceteusch/chess/internal/web"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()

	cat, err := msgcat.New(cfg.MessageOverrideDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	var (
		auths store.AuthStore
		users store.UserStore
		games store.GameStore
	)
	if cfg.RedisURL != "" {
		rs, err := store.NewRedis(cfg.RedisURL, cfg.AuthTokenTTL)
		if err != nil {
			log.Fatalf("redis init error: %v", err)
		}
		defer rs.Close()
		auths, users, games = rs, rs, rs
		obslog.L().Info("store_redis_ready")
	} else {
		mem := store.NewMemory()
		auths, users, games = mem, mem, mem
		obslog.L().Warn("store_memory_fallback")
	}

	var archive session.ResultArchiver
	if cfg.DatabaseURL != "" {
		repo, err := store.NewArchive(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("archive init error: %v", err)
		}
		defer repo.Close()
		archive = repo
		obslog.L().Info("archive_ready")
	}

	h := hub.New()
	handler := web.NewServer(web.Deps{
		Auths:          auths,
		Users:          users,
		Games:          games,
		Hub:            h,
		Session:        session.NewHandler(h, auths, games, cat, archive),
		Renderer:       render.NewSVGBoardRenderer(),
		MaxGamesListed: cfg.MaxGamesListed,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		obslog.L().Info("server_listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	obslog.L().Info("server_shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
