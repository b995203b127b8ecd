// internal/service/order/interfaces/http_handler.go

// Package interfaces 暴露订单服务的 HTTP 入口。
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"commerce/internal/pkg/logger"
	"commerce/internal/service/order/application"
	"commerce/internal/service/order/domain"
)

const serviceName = "order-service"

// OrderHandler 暴露下单和查单接口。
type OrderHandler struct {
	app *application.OrderApplicationService
}

// NewOrderHandler 创建 HTTP 处理器。
func NewOrderHandler(app *application.OrderApplicationService) *OrderHandler {
	return &OrderHandler{app: app}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/orders", h.ordersHandler)
	mux.HandleFunc("/orders/", h.getOrderHandler)
}

func (h *OrderHandler) ordersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.CreateOrder")
	defer span.End()

	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("user.id", req.UserID))

	resp, err := h.app.CreateOrder(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		writeOrderError(ctx, w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

func (h *OrderHandler) getOrderHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "http.GetOrder")
	defer span.End()

	orderID := strings.TrimPrefix(r.URL.Path, "/orders/")
	if orderID == "" {
		http.Error(w, "order id is required", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("order.id", orderID))

	resp, err := h.app.GetOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// writeOrderError 把领域错误类别映射为 HTTP 状态码和结构化响应。
func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	type errBody struct {
		Kind      string `json:"kind"`
		ProductID string `json:"productId,omitempty"`
		Message   string `json:"message"`
	}

	kind := domain.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case domain.KindEmptyCart:
		status = http.StatusBadRequest
	case domain.KindProductNotFound:
		status = http.StatusNotFound
	case domain.KindInsufficientStock, domain.KindReservationFailed:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		logger.Ctx(ctx).Error().Err(err).Msg("order placement failed with internal error")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errBody{
		Kind:      string(kind),
		ProductID: domain.ProductOf(err),
		Message:   err.Error(),
	})
}
