// internal/service/order/domain/port/cart.go
package port

import "context"

// CartLine 是购物车里的一条明细，只有商品和数量，价格以下单时的目录快照为准。
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartGateway 是购物车服务的出站端口。
type CartGateway interface {
	// GetCart 获取用户当前购物车内容。
	GetCart(ctx context.Context, userID string) ([]CartLine, error)

	// ClearCart 下单成功后清空购物车。失败由调用方决定如何降级。
	ClearCart(ctx context.Context, userID string) error
}
