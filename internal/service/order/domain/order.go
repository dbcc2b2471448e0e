package domain

import (
	"time"
)

// Status 是订单生命周期状态。本服务只会产出 pending,
// 其余两个是为后续状态机预留的占位。
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// AdjustDirection 标记一次库存调整的方向。
type AdjustDirection string

const (
	DirectionReduce   AdjustDirection = "reduce"
	DirectionIncrease AdjustDirection = "increase"
)

// Order 是订单聚合根。ID 由存储分配;ItemID 创建后不可变(不允许换货)。
type Order struct {
	ID         uint64
	UserID     int64
	ItemID     int64
	Quantity   int
	TotalPrice float64
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOrder 创建一个 pending 状态的订单。下单人以认证身份为准,
// 请求体里调用方自报的 user_id 在这里已经被丢弃。
func NewOrder(userID, itemID int64, quantity int, totalPrice float64) (*Order, error) {
	if itemID <= 0 {
		return nil, Invalid("item_id is required")
	}
	if quantity <= 0 {
		return nil, Invalid("quantity must be positive")
	}
	if totalPrice < 0 {
		return nil, Invalid("total_price cannot be negative")
	}
	now := time.Now()
	return &Order{
		UserID:     userID,
		ItemID:     itemID,
		Quantity:   quantity,
		TotalPrice: totalPrice,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// ChangeQuantity 调整数量。只有 pending 的订单还占着库存,
// 终态订单的数量不再允许变化。
func (o *Order) ChangeQuantity(quantity int) error {
	if quantity <= 0 {
		return Invalid("quantity must be positive")
	}
	if o.Status != StatusPending {
		return Invalid("only pending orders can change quantity")
	}
	o.Quantity = quantity
	o.UpdatedAt = time.Now()
	return nil
}

// TransitionTo 执行状态流转:pending 可以走向任一状态,终态不可再变。
func (o *Order) TransitionTo(status Status) error {
	if !status.Valid() {
		return Invalid("unknown order status")
	}
	if o.Status != StatusPending && status != o.Status {
		return Invalid("completed or cancelled orders cannot change status")
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

// VisibleTo 报告订单对调用方是否可见:管理员看全部,普通用户只看自己的。
func (o *Order) VisibleTo(caller Identity) bool {
	return caller.IsAdmin() || o.UserID == caller.UserID
}
