// internal/service/cart/store.go

// Package cart 实现购物车服务：每个用户一个 redis hash，
// field 是商品 ID，value 是数量。
package cart

import "context"

// Line 是购物车里的一条明细。
type Line struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Store 定义购物车的存取接口。
type Store interface {
	// Items 返回用户购物车的全部明细，空购物车返回空切片。
	Items(ctx context.Context, userID string) ([]Line, error)

	// Add 往购物车加一件商品；quantity 为负表示减少，减到 0 以下则删除该明细。
	Add(ctx context.Context, userID, productID string, quantity int) error

	// Remove 删除一条明细。
	Remove(ctx context.Context, userID, productID string) error

	// Clear 清空用户购物车。
	Clear(ctx context.Context, userID string) error
}
