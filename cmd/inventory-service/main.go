// cmd/inventory-service/main.go
package main

import (
	"time"

	"github.com/rs/zerolog/log"

	"commerce/internal/pkg/bootstrap"
	"commerce/internal/pkg/database"
	"commerce/internal/pkg/zookeeper"
	"commerce/internal/service/inventory/domain"
	"commerce/internal/service/inventory/infrastructure"
	"commerce/internal/service/inventory/interfaces"
)

const (
	serviceName = "inventory-service"
	servicePort = 8082
)

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := bootstrap.GetCurrentConfig()

			db, err := database.NewMysqlDB(cfg.Infra.MysqlDSN)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to connect to mysql")
			}

			var ledger domain.Ledger
			ledger, err = infrastructure.NewGormLedger(db)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to initialize inventory ledger")
			}

			// 配了 zookeeper 就套一层分布式锁，多副本部署时串行化同商品的写
			if cfg.Infra.ZookeeperAddrs != "" {
				conn, err := zookeeper.Connect(cfg.Infra.ZookeeperAddrs, 5*time.Second)
				if err != nil {
					log.Fatal().Err(err).Msg("failed to connect to zookeeper")
				}
				ledger = infrastructure.NewZkGuardedLedger(ledger, conn)
				log.Info().Msg("inventory ledger guarded by zookeeper locks")
			}

			interfaces.NewLedgerHandler(ledger).RegisterRoutes(appCtx.Mux)
		},
	})
}
