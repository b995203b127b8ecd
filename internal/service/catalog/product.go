// internal/service/catalog/product.go

// Package catalog 实现商品目录服务：MySQL 存底，redis 做读穿透缓存，
// 对外返回的快照里附带从库存服务取的实时可售量。
package catalog

import (
	"context"

	"github.com/pkg/errors"
)

// ErrProductNotFound 商品不存在。
var ErrProductNotFound = errors.New("catalog: product not found")

// Product 是一条商品目录记录，金额为最小货币单位（美分）。
type Product struct {
	ProductID   string `json:"productId"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Discount    int64  `json:"discount"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

// Store 定义商品目录的存取接口。
type Store interface {
	// Get 按商品 ID 读取，不存在返回 ErrProductNotFound。
	Get(ctx context.Context, productID string) (Product, error)

	// Save 新增或覆盖一条商品记录。
	Save(ctx context.Context, p Product) error

	// List 按 ID 升序分页列出商品。
	List(ctx context.Context, offset, limit int) ([]Product, error)
}
