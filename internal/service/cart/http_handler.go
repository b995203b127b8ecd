// internal/service/cart/http_handler.go
package cart

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"commerce/internal/pkg/logger"
)

const serviceName = "cart-service"

// Handler 暴露购物车的 HTTP 接口。
type Handler struct {
	store Store
}

// NewHandler 创建 HTTP 处理器。
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/cart/items", h.itemsHandler)
	mux.HandleFunc("/cart/add", h.addHandler)
	mux.HandleFunc("/cart/remove", h.removeHandler)
	mux.HandleFunc("/cart/clear", h.clearHandler)
}

func (h *Handler) itemsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "cart.Items")
	defer span.End()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("user.id", userID))

	lines, err := h.store.Items(ctx, userID)
	if err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("failed to read cart")
		http.Error(w, "failed to read cart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(lines)
}

func (h *Handler) addHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "cart.Add")
	defer span.End()

	userID := r.URL.Query().Get("userId")
	productID := r.URL.Query().Get("productId")
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if userID == "" || productID == "" || err != nil || quantity == 0 {
		http.Error(w, "userId, productId and non-zero quantity are required", http.StatusBadRequest)
		return
	}

	if err := h.store.Add(ctx, userID, productID, quantity); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("user_id", userID).Str("product_id", productID).Msg("failed to add cart line")
		http.Error(w, "failed to update cart", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) removeHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "cart.Remove")
	defer span.End()

	userID := r.URL.Query().Get("userId")
	productID := r.URL.Query().Get("productId")
	if userID == "" || productID == "" {
		http.Error(w, "userId and productId are required", http.StatusBadRequest)
		return
	}

	if err := h.store.Remove(ctx, userID, productID); err != nil {
		span.RecordError(err)
		http.Error(w, "failed to update cart", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) clearHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "cart.Clear")
	defer span.End()

	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	if err := h.store.Clear(ctx, userID); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("user_id", userID).Msg("failed to clear cart")
		http.Error(w, "failed to clear cart", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
