package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexedwards/argon2id"
	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/task-tracker/internal/config"
	"github.com/adanyl0v/task-tracker/internal/delivery/http/v1"
	"github.com/adanyl0v/task-tracker/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	v1Handler := newV1Handler()
	router := gin.New()
	router.Use(v1Handler.HandleRequestLogger)
	router.Use(gin.Recovery())
	v1Handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:              net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler:           router,
		ReadHeaderTimeout: httpCfg.ReadHeaderTimeout,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// kill (no params) sends SIGTERM, kill -2 sends SIGINT.
	// SIGKILL can't be caught.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

func newV1Handler() v1.Handler {
	jwtCfg := config.Global().JWT

	tokenService := services.NewTokenService(
		componentLogger("tokens"),
		jwtCfg.Issuer,
		[]byte(jwtCfg.SigningKey),
		jwtCfg.AccessTokenTTL,
	)
	authService := services.NewAuthService(
		componentLogger("auth"),
		globalStore,
		tokenService,
		services.NewPasswordHasher(argon2id.DefaultParams),
	)

	return v1.New(
		componentLogger("http"),
		authService,
		services.NewTaskService(componentLogger("tasks"), globalStore),
		services.NewUserService(componentLogger("users"), globalStore),
	)
}
