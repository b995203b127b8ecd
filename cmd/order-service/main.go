// cmd/order-service/main.go
package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"commerce/internal/pkg/bootstrap"
	"commerce/internal/pkg/database"
	"commerce/internal/pkg/httpclient"
	"commerce/internal/service/order/application"
	"commerce/internal/service/order/application/reservation"
	"commerce/internal/service/order/infrastructure"
	"commerce/internal/service/order/infrastructure/adapter"
	"commerce/internal/service/order/infrastructure/outbox"
	"commerce/internal/service/order/interfaces"
)

const (
	serviceName = "order-service"
	servicePort = 8081
)

func main() {
	var (
		backgroundCancel context.CancelFunc
		publisher        *outbox.KafkaPublisher
	)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := bootstrap.GetCurrentConfig()

			db, err := database.NewMysqlDB(cfg.Infra.MysqlDSN)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to mysql")
			}
			repo, err := infrastructure.NewGormOrderRepository(db)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to initialize order repository")
			}

			client := httpclient.NewClient(otel.Tracer(serviceName))
			cartGateway := adapter.NewCartHTTPAdapter(client, cfg.App.CartServiceURL)
			catalogGateway := adapter.NewCatalogHTTPAdapter(client, cfg.App.CatalogServiceURL)
			inventoryGateway := adapter.NewInventoryHTTPAdapter(client, cfg.App.InventoryServiceURL)

			coordinator := reservation.NewCoordinator(inventoryGateway, otel.Tracer(serviceName))
			app := application.NewOrderApplicationService(
				cartGateway, catalogGateway, coordinator, repo, repo,
				cfg.App.OrderProcessingTimeout,
			)
			interfaces.NewOrderHandler(app).RegisterRoutes(appCtx.Mux)

			// 后台任务：outbox 投递和对账
			bgCtx, cancel := context.WithCancel(context.Background())
			backgroundCancel = cancel

			publisher = outbox.NewKafkaPublisher(cfg.KafkaBrokerList())
			dispatcher := outbox.NewDispatcher(repo, publisher, cfg.App.OutboxBatchSize)
			go dispatcher.Run(bgCtx, cfg.App.OutboxPollInterval)

			reconciler := application.NewReconciler(repo, repo, inventoryGateway, coordinator, cfg.App.ReconcileAfter)
			go reconciler.Run(bgCtx, cfg.App.ReconcileInterval)
		},
		OnShutdown: func(ctx context.Context) {
			if backgroundCancel != nil {
				backgroundCancel()
			}
			if publisher != nil {
				if err := publisher.Close(); err != nil {
					log.Error().Err(err).Msg("error closing kafka publisher")
				}
			}
		},
	})
}
