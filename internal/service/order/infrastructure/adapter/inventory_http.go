// internal/service/order/infrastructure/adapter/inventory_http.go
package adapter

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"commerce/internal/pkg/httpclient"
	"commerce/internal/service/order/domain"
)

// InventoryHTTPAdapter 通过 HTTP 访问库存服务，并把状态码翻译回领域错误：
// 409 是库存不足，404 是预占不存在。
type InventoryHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

// NewInventoryHTTPAdapter 创建库存适配器。
func NewInventoryHTTPAdapter(client *httpclient.Client, baseURL string) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{client: client, baseURL: baseURL}
}

func (a *InventoryHTTPAdapter) Lock(ctx context.Context, orderID, productID string, quantity int) error {
	return a.mutate(ctx, "/inventory/lock", orderID, productID, quantity)
}

func (a *InventoryHTTPAdapter) Release(ctx context.Context, orderID, productID string, quantity int) error {
	return a.mutate(ctx, "/inventory/release", orderID, productID, quantity)
}

func (a *InventoryHTTPAdapter) Confirm(ctx context.Context, orderID, productID string, quantity int) error {
	return a.mutate(ctx, "/inventory/confirm", orderID, productID, quantity)
}

func (a *InventoryHTTPAdapter) ReservationsForOrder(ctx context.Context, orderID string) (map[string]int, error) {
	reservations := map[string]int{}
	params := url.Values{"orderId": {orderID}}
	if err := a.client.GetJSON(ctx, a.baseURL+"/inventory/reservations", params, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

func (a *InventoryHTTPAdapter) mutate(ctx context.Context, path, orderID, productID string, quantity int) error {
	params := url.Values{
		"orderId":   {orderID},
		"productId": {productID},
		"quantity":  {strconv.Itoa(quantity)},
	}
	err := a.client.Post(ctx, a.baseURL+path, params)
	if err == nil {
		return nil
	}
	if errors.Is(err, httpclient.ErrNotFound) {
		return domain.NewNoSuchReservation(productID)
	}
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict {
		return &domain.Error{Kind: domain.KindInsufficientStock, ProductID: productID, Message: statusErr.Body}
	}
	return err
}
