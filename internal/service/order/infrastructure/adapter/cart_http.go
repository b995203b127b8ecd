// internal/service/order/infrastructure/adapter/cart_http.go

// Package adapter 把下游服务的 HTTP 接口翻译成订单领域的出站端口。
package adapter

import (
	"context"
	"net/url"

	"commerce/internal/pkg/httpclient"
	"commerce/internal/service/order/domain/port"
)

// CartHTTPAdapter 通过 HTTP 访问购物车服务。
type CartHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
}

// NewCartHTTPAdapter 创建购物车适配器。
func NewCartHTTPAdapter(client *httpclient.Client, baseURL string) *CartHTTPAdapter {
	return &CartHTTPAdapter{client: client, baseURL: baseURL}
}

func (a *CartHTTPAdapter) GetCart(ctx context.Context, userID string) ([]port.CartLine, error) {
	var lines []port.CartLine
	params := url.Values{"userId": {userID}}
	if err := a.client.GetJSON(ctx, a.baseURL+"/cart/items", params, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func (a *CartHTTPAdapter) ClearCart(ctx context.Context, userID string) error {
	params := url.Values{"userId": {userID}}
	return a.client.Post(ctx, a.baseURL+"/cart/clear", params)
}
