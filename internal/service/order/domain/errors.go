// internal/service/order/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Kind 是对外可见、机器可读的错误类别。
type Kind string

const (
	KindEmptyCart         Kind = "EMPTY_CART"
	KindProductNotFound   Kind = "PRODUCT_NOT_FOUND"
	KindInsufficientStock Kind = "INSUFFICIENT_STOCK"
	KindReservationFailed Kind = "RESERVATION_FAILED"
	KindNoSuchReservation Kind = "NO_SUCH_RESERVATION"
	KindInternal          Kind = "INTERNAL"
)

// Error 是下单流程的类型化错误：kind 给机器，message 给人。
// 涉及具体商品的错误（库存不足、预占失败）会带上 ProductID。
type Error struct {
	Kind      Kind
	ProductID string
	Message   string
}

func (e *Error) Error() string {
	if e.ProductID != "" {
		return fmt.Sprintf("%s [product=%s]: %s", e.Kind, e.ProductID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewEmptyCart 购物车为空。
func NewEmptyCart(userID string) *Error {
	return &Error{Kind: KindEmptyCart, Message: fmt.Sprintf("cart for user %s is empty", userID)}
}

// NewProductNotFound 商品快照缺失。
func NewProductNotFound(productID string) *Error {
	return &Error{Kind: KindProductNotFound, ProductID: productID, Message: fmt.Sprintf("product %s not found", productID)}
}

// NewInsufficientStock 可用库存不足。
func NewInsufficientStock(productID string, requested, available int) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		ProductID: productID,
		Message:   fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", productID, requested, available),
	}
}

// NewReservationFailed 批量预占失败，productID 是第一条失败的明细。
func NewReservationFailed(productID string, cause error) *Error {
	return &Error{
		Kind:      KindReservationFailed,
		ProductID: productID,
		Message:   fmt.Sprintf("stock reservation failed at product %s: %v", productID, cause),
	}
}

// NewNoSuchReservation 没有匹配的未结预占。
func NewNoSuchReservation(productID string) *Error {
	return &Error{
		Kind:      KindNoSuchReservation,
		ProductID: productID,
		Message:   fmt.Sprintf("no outstanding reservation for product %s", productID),
	}
}

// KindOf 取出错误类别；非类型化错误归为 INTERNAL。
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// ProductOf 取出错误涉及的商品 ID（可能为空）。
func ProductOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.ProductID
	}
	return ""
}
