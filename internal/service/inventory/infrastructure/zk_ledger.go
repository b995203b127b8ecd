// internal/service/inventory/infrastructure/zk_ledger.go
package infrastructure

import (
	"context"

	pkgerrors "github.com/pkg/errors"

	"commerce/internal/pkg/zookeeper"
	"commerce/internal/service/inventory/domain"
)

// ZkGuardedLedger 在多副本部署时用 ZooKeeper 锁串行化同一商品的台账变更。
// 单副本或底层实现自带行级串行化（GormLedger 的乐观版本）时不需要它，
// 但跨副本的 Adjust/Lock 混跑场景下它能消除乐观冲突的重试风暴。
type ZkGuardedLedger struct {
	domain.Ledger
	conn *zookeeper.Conn
}

// NewZkGuardedLedger 包装一个底层台账。
func NewZkGuardedLedger(inner domain.Ledger, conn *zookeeper.Conn) *ZkGuardedLedger {
	return &ZkGuardedLedger{Ledger: inner, conn: conn}
}

func (l *ZkGuardedLedger) withLock(productID string, op func() error) error {
	lock, err := zookeeper.NewDistributedLock(l.conn, "product-"+productID)
	if err != nil {
		return pkgerrors.Wrap(err, "create product lock")
	}
	if err := lock.Lock(); err != nil {
		return pkgerrors.Wrap(err, "acquire product lock")
	}
	defer lock.Unlock()
	return op()
}

func (l *ZkGuardedLedger) Lock(ctx context.Context, orderID, productID string, quantity int) error {
	return l.withLock(productID, func() error {
		return l.Ledger.Lock(ctx, orderID, productID, quantity)
	})
}

func (l *ZkGuardedLedger) Confirm(ctx context.Context, orderID, productID string, quantity int) error {
	return l.withLock(productID, func() error {
		return l.Ledger.Confirm(ctx, orderID, productID, quantity)
	})
}

func (l *ZkGuardedLedger) Release(ctx context.Context, orderID, productID string, quantity int) error {
	return l.withLock(productID, func() error {
		return l.Ledger.Release(ctx, orderID, productID, quantity)
	})
}

func (l *ZkGuardedLedger) Adjust(ctx context.Context, productID string, delta int) error {
	return l.withLock(productID, func() error {
		return l.Ledger.Adjust(ctx, productID, delta)
	})
}
