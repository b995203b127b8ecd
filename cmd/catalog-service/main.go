// cmd/catalog-service/main.go
package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"commerce/internal/pkg/bootstrap"
	"commerce/internal/pkg/database"
	"commerce/internal/pkg/httpclient"
	"commerce/internal/pkg/redis"
	"commerce/internal/service/catalog"
)

const (
	serviceName = "catalog-service"
	servicePort = 8085
)

func main() {
	var redisClient *redis.Client

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := bootstrap.GetCurrentConfig()

			db, err := database.NewMysqlDB(cfg.Infra.MysqlDSN)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to mysql")
			}
			gormStore, err := catalog.NewGormStore(db)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to initialize product store")
			}

			redisClient, err = redis.NewClient(cfg.Infra.RedisAddrs)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to redis")
			}
			store := catalog.NewCachedStore(gormStore, redisClient.GetClient())

			client := httpclient.NewClient(otel.Tracer(serviceName))
			stock := catalog.NewInventoryStockProvider(client, cfg.App.InventoryServiceURL)

			catalog.NewHandler(store, stock).RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if redisClient != nil {
				if err := redisClient.Close(); err != nil {
					log.Error().Err(err).Msg("error closing redis client")
				}
			}
		},
	})
}
