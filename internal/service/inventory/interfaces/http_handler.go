// internal/service/inventory/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"commerce/internal/pkg/logger"
	"commerce/internal/service/inventory/domain"
)

const serviceName = "inventory-service"

// LedgerHandler 暴露台账的 lock/confirm/release 以及管理用的 adjust/get。
type LedgerHandler struct {
	ledger domain.Ledger
}

// NewLedgerHandler 创建 HTTP 处理器。
func NewLedgerHandler(ledger domain.Ledger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *LedgerHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/inventory/lock", h.mutation(h.ledger.Lock))
	mux.HandleFunc("/inventory/confirm", h.mutation(h.ledger.Confirm))
	mux.HandleFunc("/inventory/release", h.mutation(h.ledger.Release))
	mux.HandleFunc("/inventory/adjust", h.adjustHandler)
	mux.HandleFunc("/inventory/record", h.recordHandler)
	mux.HandleFunc("/inventory/reservations", h.reservationsHandler)
}

// mutation 把 lock/confirm/release 三个同构操作共用的解析、追踪和错误映射收拢到一处。
func (h *LedgerHandler) mutation(op func(ctx context.Context, orderID, productID string, quantity int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := otel.Tracer(serviceName).Start(ctx, "inventory.Mutation")
		defer span.End()

		orderID := r.URL.Query().Get("orderId")
		productID := r.URL.Query().Get("productId")
		quantity, _ := strconv.Atoi(r.URL.Query().Get("quantity"))
		span.SetAttributes(
			attribute.String("order.id", orderID),
			attribute.String("product.id", productID),
			attribute.Int("quantity", quantity),
		)

		if orderID == "" || productID == "" {
			http.Error(w, "orderId and productId are required", http.StatusBadRequest)
			return
		}

		if err := op(ctx, orderID, productID, quantity); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Ctx(ctx).Warn().Err(err).
				Str("order_id", orderID).Str("product_id", productID).Int("quantity", quantity).
				Msg("inventory mutation rejected")
			writeLedgerError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (h *LedgerHandler) adjustHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "inventory.Adjust")
	defer span.End()

	productID := r.URL.Query().Get("productId")
	delta, err := strconv.Atoi(r.URL.Query().Get("delta"))
	if productID == "" || err != nil {
		http.Error(w, "productId and numeric delta are required", http.StatusBadRequest)
		return
	}

	if err := h.ledger.Adjust(ctx, productID, delta); err != nil {
		span.RecordError(err)
		writeLedgerError(w, err)
		return
	}
	logger.Ctx(ctx).Info().Str("product_id", productID).Int("delta", delta).Msg("stock adjusted")
	w.WriteHeader(http.StatusOK)
}

func (h *LedgerHandler) recordHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "inventory.GetRecord")
	defer span.End()

	productID := r.URL.Query().Get("productId")
	if productID == "" {
		http.Error(w, "productId is required", http.StatusBadRequest)
		return
	}

	rec, err := h.ledger.Get(ctx, productID)
	if err != nil {
		span.RecordError(err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		domain.Record
		AvailableStock int `json:"availableStock"`
	}{rec, rec.AvailableStock()})
}

func (h *LedgerHandler) reservationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "inventory.ReservationsForOrder")
	defer span.End()

	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		http.Error(w, "orderId is required", http.StatusBadRequest)
		return
	}

	reservations, err := h.ledger.ReservationsForOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reservations)
}

// writeLedgerError 把领域错误映射为带 kind 的 JSON 响应。
func writeLedgerError(w http.ResponseWriter, err error) {
	type errBody struct {
		Kind      string `json:"kind"`
		ProductID string `json:"productId,omitempty"`
		Message   string `json:"message"`
	}

	w.Header().Set("Content-Type", "application/json")
	if productID, ok := domain.IsInsufficientStock(err); ok {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(errBody{Kind: "INSUFFICIENT_STOCK", ProductID: productID, Message: err.Error()})
		return
	}
	if errors.Is(err, domain.ErrNoSuchReservation) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(errBody{Kind: "NO_SUCH_RESERVATION", Message: err.Error()})
		return
	}
	if errors.Is(err, domain.ErrInvalidQuantity) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errBody{Kind: "INVALID_QUANTITY", Message: err.Error()})
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(errBody{Kind: "INTERNAL", Message: err.Error()})
}
