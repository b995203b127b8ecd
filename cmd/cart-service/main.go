// cmd/cart-service/main.go
package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"commerce/internal/pkg/bootstrap"
	"commerce/internal/pkg/redis"
	"commerce/internal/service/cart"
)

const (
	serviceName = "cart-service"
	servicePort = 8084
)

func main() {
	var redisClient *redis.Client

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := bootstrap.GetCurrentConfig()

			var err error
			redisClient, err = redis.NewClient(cfg.Infra.RedisAddrs)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to redis")
			}

			store := cart.NewRedisStore(redisClient.GetClient())
			cart.NewHandler(store).RegisterRoutes(appCtx.Mux)
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
