package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/choiseongjun/chat-with-stream/internal/audit"
	"github.com/choiseongjun/chat-with-stream/internal/cache"
	"github.com/choiseongjun/chat-with-stream/internal/config"
	"github.com/choiseongjun/chat-with-stream/internal/handler"
	"github.com/choiseongjun/chat-with-stream/internal/hub"
	"github.com/choiseongjun/chat-with-stream/internal/repository"
	"github.com/choiseongjun/chat-with-stream/internal/service"
	"github.com/choiseongjun/chat-with-stream/pkg/database"
	"github.com/choiseongjun/chat-with-stream/pkg/log"
	"github.com/choiseongjun/chat-with-stream/pkg/pubsub"
	"github.com/choiseongjun/chat-with-stream/pkg/token"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	log.Init(cfg.Log)
	logger := log.L()

	db, err := database.New(cfg.Database.ToDatabaseConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.AutoMigrate(db, repository.AllModels()...); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	broker, err := pubsub.Connect(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	store := repository.NewStore(db)
	history := cache.NewHistoryCache(broker.GetClient())
	presence := cache.NewPresenceStore(broker.GetClient(), broker)

	tokens := token.NewManager(
		cfg.Auth.Secret,
		time.Duration(cfg.Auth.TokenDuration)*time.Hour,
		cfg.Auth.Issuer,
	)

	fanout := service.NewFanout(broker, history)
	memberships := service.NewMembershipService(store, history)
	messages := service.NewMessageService(store, history, fanout)
	users := service.NewUserService(store, presence, tokens)

	local := hub.New(0)
	gateway := service.NewStreamGateway(broker, local)

	auditor := audit.NewRecorder(logger)
	rest := handler.NewHTTPHandler(users, memberships, messages, auditor)
	stream := handler.NewStreamHandler(gateway, memberships)
	ws := handler.NewWSHandler(gateway, memberships, messages, users)

	router := handler.NewRouter(tokens, rest, stream, ws)
	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := gateway.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("http shutdown incomplete")
		}

		// Let in-flight fan-out drain; messages are already durable.
		fanout.Wait()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
	logger.Info().Msg("server stopped")
}
