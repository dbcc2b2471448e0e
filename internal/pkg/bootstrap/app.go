package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"meridian/internal/pkg/config"
	"meridian/internal/pkg/logger"
	"meridian/internal/pkg/metrics"
	"meridian/internal/pkg/tracing"
)

// AppCtx 交给各服务注册自己的路由与依赖。
type AppCtx struct {
	Mux    *http.ServeMux
	Config *config.Config
}

// AppInfo 包含启动一个服务所需的特定信息。
type AppInfo struct {
	ServiceName      string
	RegisterHandlers func(appCtx AppCtx)
}

// StartService 封装通用的启动与优雅关停逻辑:
// 配置 → 日志 → 追踪 → 路由注册 → HTTP Server → 信号等待 → 逆序清理。
func StartService(info AppInfo) {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if info.ServiceName != "" {
		cfg.App.ServiceName = info.ServiceName
	}

	logger.Init(cfg.App.ServiceName)

	tp, err := tracing.InitTracerProvider(cfg.App.ServiceName, cfg.Infra.JaegerEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Config: cfg})
	}

	server := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.App.Port),
		Handler: metrics.Middleware(mux),
	}
	go func() {
		log.Info().Msgf("%s listening on %s", cfg.App.ServiceName, server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("could not listen on %s", server.Addr)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msgf("shutting down %s...", cfg.App.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 先停 TracerProvider,把缓冲中的 span 发送出去
	if err := tp.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error shutting down tracer provider")
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error shutting down http server")
	}
	log.Info().Msgf("%s gracefully shut down", cfg.App.ServiceName)
}
