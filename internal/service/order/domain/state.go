// internal/service/order/domain/state.go
package domain

// State 定义订单的生命周期状态。
type State string

const (
	StateCreated   State = "CREATED"   // 订单已持久化，库存预占成功或进行中
	StateCancelled State = "CANCELLED" // 预占失败后取消；订单保留作为审计痕迹
	StatePaid      State = "PAID"      // 已支付（由支付结果事件驱动，超出本服务范围）
	StateFailed    State = "FAILED"    // 处理异常终止
)
