// internal/service/catalog/stock.go
package catalog

import (
	"context"
	"net/url"

	"commerce/internal/pkg/httpclient"
)

// StockProvider 提供商品的实时可售量。
type StockProvider interface {
	AvailableStock(ctx context.Context, productID string) (int, error)
}

// InventoryStockProvider 从库存服务查询可售量。
type InventoryStockProvider struct {
	client  *httpclient.Client
	baseURL string
}

// NewInventoryStockProvider 创建库存查询器。
func NewInventoryStockProvider(client *httpclient.Client, baseURL string) *InventoryStockProvider {
	return &InventoryStockProvider{client: client, baseURL: baseURL}
}

func (p *InventoryStockProvider) AvailableStock(ctx context.Context, productID string) (int, error) {
	var record struct {
		AvailableStock int `json:"availableStock"`
	}
	params := url.Values{"productId": {productID}}
	if err := p.client.GetJSON(ctx, p.baseURL+"/inventory/record", params, &record); err != nil {
		return 0, err
	}
	return record.AvailableStock, nil
}
