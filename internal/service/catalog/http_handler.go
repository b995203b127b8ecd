// internal/service/catalog/http_handler.go
package catalog

import (
	"encoding/json"
	"net/http"
	"strconv"

	pkgerrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"commerce/internal/pkg/logger"
)

const serviceName = "catalog-service"

// Snapshot 是对外返回的商品快照：目录数据加实时可售量。
type Snapshot struct {
	Product
	AvailableStock int `json:"availableStock"`
}

// Handler 暴露商品目录的 HTTP 接口。
type Handler struct {
	store Store
	stock StockProvider
}

// NewHandler 创建 HTTP 处理器。
func NewHandler(store Store, stock StockProvider) *Handler {
	return &Handler{store: store, stock: stock}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/products/detail", h.detailHandler)
	mux.HandleFunc("/products/save", h.saveHandler)
	mux.HandleFunc("/products/list", h.listHandler)
}

// detailHandler 返回带实时可售量的商品快照。
// 库存服务不可达时快照里的可售量按 0 处理，下单方会因预检失败而拒单，
// 宁可错拒也不超卖。
func (h *Handler) detailHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "catalog.Detail")
	defer span.End()

	productID := r.URL.Query().Get("productId")
	if productID == "" {
		http.Error(w, "productId is required", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("product.id", productID))

	p, err := h.store.Get(ctx, productID)
	if pkgerrors.Is(err, ErrProductNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("product_id", productID).Msg("failed to load product")
		http.Error(w, "failed to load product", http.StatusInternalServerError)
		return
	}

	available := 0
	if stock, err := h.stock.AvailableStock(ctx, productID); err == nil {
		available = stock
	} else {
		span.RecordError(err)
		logger.Ctx(ctx).Warn().Err(err).Str("product_id", productID).
			Msg("stock lookup failed, reporting zero availability")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Snapshot{Product: p, AvailableStock: available})
}

func (h *Handler) saveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "catalog.Save")
	defer span.End()

	var p Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if p.ProductID == "" || p.Name == "" || p.Price < 0 || p.Discount < 0 {
		http.Error(w, "productId, name and non-negative price are required", http.StatusBadRequest)
		return
	}

	if err := h.store.Save(ctx, p); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("product_id", p.ProductID).Msg("failed to save product")
		http.Error(w, "failed to save product", http.StatusInternalServerError)
		return
	}
	logger.Ctx(ctx).Info().Str("product_id", p.ProductID).Msg("product saved")
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) listHandler(w http.ResponseWriter, r *http.Request) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := otel.Tracer(serviceName).Start(ctx, "catalog.List")
	defer span.End()

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	products, err := h.store.List(ctx, offset, limit)
	if err != nil {
		span.RecordError(err)
		http.Error(w, "failed to list products", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(products)
}
