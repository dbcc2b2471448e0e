// cmd/order-service/main.go
package main

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"meridian/internal/pkg/auth"
	"meridian/internal/pkg/bootstrap"
	"meridian/internal/pkg/httpclient"
	"meridian/internal/pkg/idempotency"
	"meridian/internal/service/order/application"
	"meridian/internal/service/order/infrastructure"
	"meridian/internal/service/order/infrastructure/adapter"
	"meridian/internal/service/order/interfaces"
	"meridian/internal/service/order/port"
)

const serviceName = "order-service"

// main 是应用的组装根:创建并组装所有依赖,然后交给 bootstrap 启动。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := appCtx.Config

			db, err := infrastructure.NewMysqlDB(cfg.Infra.MysqlDSN)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to mysql")
			}
			repo := infrastructure.NewGormOrderRepository(db)

			client := httpclient.NewClient(&cfg.Services)
			policy := httpclient.PolicyFromConfig(&cfg.Retry)
			inventory := adapter.NewInventoryHTTPAdapter(client, policy)
			users := adapter.NewUserHTTPAdapter(client, policy)

			var journal port.ReconciliationJournal = adapter.LogJournal{}
			if len(cfg.Infra.KafkaBrokers) > 0 {
				journal = adapter.NewReconKafkaJournal(cfg.Infra.KafkaBrokers, cfg.Infra.ReconTopic)
			}

			verifier, err := auth.NewTokenVerifier(&cfg.Auth)
			if err != nil {
				log.Fatal().Err(err).Msg("invalid auth configuration")
			}

			var guard interfaces.ReplayGuard
			if cfg.Infra.RedisAddr != "" {
				rdb := redis.NewClient(&redis.Options{Addr: cfg.Infra.RedisAddr})
				guard = idempotency.NewStore(rdb, 24*time.Hour)
			}

			service := application.NewOrderService(repo, inventory, users, journal)
			handler := interfaces.NewOrderHandler(service, verifier, guard)
			handler.RegisterRoutes(appCtx.Mux)
		},
	})
}
