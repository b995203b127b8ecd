// cmd/notification-service/main.go
package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"commerce/internal/pkg/bootstrap"
	"commerce/internal/service/notification"
	"commerce/internal/service/order/infrastructure/outbox"
)

const (
	serviceName = "notification-service"
	servicePort = 8083
)

func main() {
	var (
		consumerCancel context.CancelFunc
		consumer       *notification.Consumer
	)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := bootstrap.GetCurrentConfig()

			hub := notification.NewHub()
			go hub.Run()

			consumer = notification.NewConsumer(cfg.KafkaBrokerList(), outbox.TopicOrderCreated, hub)
			ctx, cancel := context.WithCancel(context.Background())
			consumerCancel = cancel
			go consumer.Run(ctx)

			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			appCtx.Mux.HandleFunc("/ws", hub.ServeWs)
		},
		OnShutdown: func(ctx context.Context) {
			if consumerCancel != nil {
				consumerCancel()
			}
			if consumer != nil {
				if err := consumer.Close(); err != nil {
					log.Error().Err(err).Msg("error closing kafka consumer")
				}
			}
		},
	})
}
