// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 订单主流程相关的业务指标。
// UnreleasedReservations 是人工对账的告警信号：补偿释放重试耗尽后计数。
var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_orders_created_total",
		Help: "Orders that reached CREATED with stock reserved.",
	})

	OrdersCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_orders_cancelled_total",
		Help: "Persisted orders cancelled after a failed reservation.",
	})

	UnreleasedReservations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_unreleased_reservations_total",
		Help: "Compensating releases that exhausted retries and need manual reconciliation.",
	})

	CartClearFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_cart_clear_failures_total",
		Help: "Non-fatal cart clear failures after successful order placement.",
	})

	OutboxPublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_outbox_publish_failures_total",
		Help: "Outbox rows whose publish attempt failed and was left for retry.",
	})

	OutboxPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "commerce_outbox_published_total",
		Help: "Order-created events handed to the messaging transport.",
	})
)
