package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campusworks/go-session-service/auth"
	"github.com/campusworks/go-session-service/internal/config"
	"github.com/campusworks/go-session-service/limiter"
	"github.com/campusworks/go-session-service/server"
	"github.com/campusworks/go-session-service/token"
	refreshrepofake "github.com/campusworks/go-session-service/token/refresh/repofake"
	fakeuserrepo "github.com/campusworks/go-session-service/users/repofake"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	if err := run(logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
	logger.Info().Msg("server stopped")
}

func run(logger zerolog.Logger) error {
	c := config.New()
	displayAppname(c.GetAppName())

	codec, err := token.NewCodec(
		c.GetAccessTokenSecret(),
		c.GetRefreshTokenSecret(),
		c.GetAccessTokenExpiry(),
		c.GetRefreshTokenExpiry(),
	)
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}

	loginLimiter, globalLimiter := buildLimiters(c, logger)

	// The bundled in-memory repos stand in for the application's database.
	// Production deployments inject their own UserRepo / refresh.Repo.
	repos := auth.Repos{
		Users:         fakeuserrepo.NewFakeUserRepo(),
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}

	sessionService, err := auth.NewSessionService(repos, codec, loginLimiter,
		auth.WithLogger(logger),
		auth.WithRequireVerifiedEmail(c.GetRequireVerifiedEmail()),
	)
	if err != nil {
		return fmt.Errorf("session service: %w", err)
	}

	srv, err := server.New(c, sessionService, globalLimiter, logger)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer, logger)
	waitForStopSignal()
	return shutdown(httpServer)
}

// buildLimiters selects the backend at process start: the shared Redis
// store when configured, otherwise the in-process fallback.
func buildLimiters(c config.Config, logger zerolog.Logger) (limiter.Limiter, limiter.Limiter) {
	loginPolicy := limiter.Policy{
		Points:   c.GetLoginMaxAttempts(),
		Window:   c.GetLoginWindow(),
		Block:    c.GetLoginBlock(),
		FailOpen: true,
		Prefix:   "login",
	}
	globalPolicy := limiter.Policy{
		Points:   c.GetGlobalMaxRequests(),
		Window:   c.GetGlobalWindow(),
		Block:    c.GetGlobalWindow(),
		FailOpen: true,
		Prefix:   "global",
	}

	if addr := c.GetRedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		logger.Info().Str("addr", addr).Msg("using shared rate limit backend")
		return limiter.NewRedisLimiter(client, loginPolicy, logger),
			limiter.NewRedisLimiter(client, globalPolicy, logger)
	}

	logger.Info().Msg("no REDIS_ADDR configured, using in-process rate limiting")
	login := limiter.NewMemoryLimiter(loginPolicy)
	global := limiter.NewMemoryLimiter(globalPolicy)
	go sweepLoop(login, global)
	return login, global
}

func sweepLoop(limiters ...*limiter.MemoryLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		for _, l := range limiters {
			l.Sweep()
		}
	}
}

func listenAndServe(server *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
