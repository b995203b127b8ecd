// internal/service/order/domain/port/catalog.go
package port

import "context"

// ProductSnapshot 是下单时刻的商品目录快照：定价、折扣和可售库存。
// 金额为最小货币单位（美分）。
type ProductSnapshot struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	Price          int64  `json:"price"`
	Discount       int64  `json:"discount"`
	Image          string `json:"image"`
	AvailableStock int    `json:"availableStock"`
}

// CatalogGateway 是商品目录的只读出站端口。
// 商品不存在时返回 domain.KindProductNotFound 类别的错误。
type CatalogGateway interface {
	GetProduct(ctx context.Context, productID string) (ProductSnapshot, error)
}
