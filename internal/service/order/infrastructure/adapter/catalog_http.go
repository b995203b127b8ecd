// internal/service/order/infrastructure/adapter/catalog_http.go
package adapter

import (
	"context"
	"net/url"

	"github.com/pkg/errors"

	"commerce/internal/pkg/httpclient"
	"commerce/internal/service/order/domain"
	"commerce/internal/service/order/domain/port"
)

// CatalogHTTPAdapter 通过 HTTP 访问商品目录服务。
type CatalogHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

// NewCatalogHTTPAdapter 创建目录适配器。
func NewCatalogHTTPAdapter(client *httpclient.Client, baseURL string) *CatalogHTTPAdapter {
	return &CatalogHTTPAdapter{client: client, baseURL: baseURL}
}

func (a *CatalogHTTPAdapter) GetProduct(ctx context.Context, productID string) (port.ProductSnapshot, error) {
	var snapshot port.ProductSnapshot
	params := url.Values{"productId": {productID}}
	err := a.client.GetJSON(ctx, a.baseURL+"/products/detail", params, &snapshot)
	if errors.Is(err, httpclient.ErrNotFound) {
		return port.ProductSnapshot{}, domain.NewProductNotFound(productID)
	}
	if err != nil {
		return port.ProductSnapshot{}, err
	}
	return snapshot, nil
}
