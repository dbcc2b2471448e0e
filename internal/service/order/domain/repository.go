package domain

import "context"

// OrderRepository 定义订单聚合的持久化接口。
// 它位于领域层,由基础设施层实现;找不到记录时返回 KindNotFound 的域错误。
type OrderRepository interface {
	// Save 持久化一个新订单,并把存储分配的 ID 回填到实体上。
	Save(ctx context.Context, order *Order) error

	// FindByID 根据 ID 查找订单。
	FindByID(ctx context.Context, id uint64) (*Order, error)

	// FindAll 返回全部订单(管理员视角)。
	FindAll(ctx context.Context) ([]*Order, error)

	// FindAllByUser 返回某个用户名下的订单。
	FindAllByUser(ctx context.Context, userID int64) ([]*Order, error)

	// Update 把数量与状态的变更写回存储。
	Update(ctx context.Context, order *Order) error

	// Delete 删除订单行。
	Delete(ctx context.Context, id uint64) error
}
