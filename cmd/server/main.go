package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/roomhub/roomhub/internal/api"
	"github.com/roomhub/roomhub/internal/chat"
	"github.com/roomhub/roomhub/internal/config"
	"github.com/roomhub/roomhub/internal/db"
	"github.com/roomhub/roomhub/internal/middleware"
	"github.com/roomhub/roomhub/internal/observ"
	"github.com/roomhub/roomhub/internal/repository/postgres"
	"github.com/roomhub/roomhub/internal/scope"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Startup has no request deadline; take as long as the database
	// needs. Every request after this gets its own context.
	database, err := db.New(context.Background(), cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	// Redis is a cache and a fanout channel, never the source of
	// truth, so failing to reach it degrades rather than aborts.
	rdb, err := db.NewRedis(context.Background(), cfg.RedisURL, logger)
	if err != nil {
		logger.Warn("redis unavailable, running without scope cache and cross-instance chat", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	pool := database.Pool()
	userRepo := postgres.NewUserStore(pool)
	roomRepo := postgres.NewRoomStore(pool)
	membershipRepo := postgres.NewMembershipStore(pool)
	choreRepo := postgres.NewChoreStore(pool)
	expenseRepo := postgres.NewExpenseStore(pool)
	groceryRepo := postgres.NewGroceryStore(pool)
	pollRepo := postgres.NewPollStore(pool)
	eventRepo := postgres.NewEventStore(pool)
	messageRepo := postgres.NewMessageStore(pool)

	resolver := scope.NewResolver(membershipRepo, rdb, cfg.ScopeCacheTTL, logger)

	hub := chat.NewHub(rdb, logger)
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	authHandler := api.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.JWTTTL, logger)
	userHandler := api.NewUserHandler(userRepo, resolver, logger)
	roomHandler := api.NewRoomHandler(roomRepo, membershipRepo, resolver, logger)
	choreHandler := api.NewChoreHandler(choreRepo, membershipRepo, logger)
	expenseHandler := api.NewExpenseHandler(expenseRepo, membershipRepo, logger)
	groceryHandler := api.NewGroceryHandler(groceryRepo, logger)
	pollHandler := api.NewPollHandler(pollRepo, logger)
	eventHandler := api.NewEventHandler(eventRepo, logger)
	messageHandler := api.NewMessageHandler(messageRepo, hub, logger)
	wsHandler := api.NewWSHandler(hub, logger)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// Health is public so load balancers can probe without a token.
	// Redis being down only degrades caching and fanout, so it is
	// reported but never fails the probe.
	router.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
		redisStatus := "ok"
		if rdb == nil {
			redisStatus = "unavailable"
		} else if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "unavailable"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "redis": redisStatus})
	})

	router.POST("/v1/auth/signup", authHandler.Signup)
	router.POST("/v1/auth/login", authHandler.Login)

	// Everything below needs a valid token.
	authed := router.Group("/v1")
	authed.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	authed.GET("/users/me", userHandler.GetMe)
	authed.PATCH("/users/me", userHandler.UpdateMe)

	// Room setup is reachable from the no-room scope.
	authed.POST("/rooms", roomHandler.Create)
	authed.POST("/rooms/join", roomHandler.Join)
	authed.POST("/rooms/leave", roomHandler.Leave)

	// Domain endpoints additionally require a resolved room; the
	// middleware injects the room id every handler scopes by.
	room := authed.Group("")
	room.Use(middleware.RequireRoom(resolver, logger))

	room.GET("/rooms/current", roomHandler.Current)

	room.POST("/chores", choreHandler.Create)
	room.GET("/chores", choreHandler.List)
	room.PATCH("/chores/:id", choreHandler.Update)
	room.POST("/chores/:id/toggle", choreHandler.Toggle)
	room.DELETE("/chores/:id", choreHandler.Delete)

	room.POST("/expenses", expenseHandler.Create)
	room.GET("/expenses", expenseHandler.List)
	room.POST("/expenses/:id/settle", expenseHandler.Settle)
	room.DELETE("/expenses/:id", expenseHandler.Delete)

	room.POST("/groceries", groceryHandler.Create)
	room.GET("/groceries", groceryHandler.List)
	room.POST("/groceries/:id/toggle", groceryHandler.Toggle)
	room.DELETE("/groceries/:id", groceryHandler.Delete)

	room.POST("/polls", pollHandler.Create)
	room.GET("/polls", pollHandler.List)
	room.POST("/polls/:id/vote", pollHandler.Vote)
	room.DELETE("/polls/:id", pollHandler.Delete)

	room.POST("/events", eventHandler.Create)
	room.GET("/events", eventHandler.List)
	room.PATCH("/events/:id", eventHandler.Update)
	room.DELETE("/events/:id", eventHandler.Delete)

	room.POST("/messages", messageHandler.Create)
	room.GET("/messages", messageHandler.List)
	room.POST("/messages/read", messageHandler.MarkRead)
	room.GET("/ws", wsHandler.Stream)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting RoomHub",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	return nil
}
