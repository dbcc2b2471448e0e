package port

import "context"

// ItemSnapshot 是远端库存条目的一次性时点视图。
// 不做本地缓存,每个决策点都重新拉取,陈旧窗口等于一次往返。
type ItemSnapshot struct {
	ID       int64
	Name     string
	Category string
	Quantity int
	Price    float64
}

// InventoryService 是库存服务的出站端口。每个操作要么带着完整结果成功,
// 要么带着唯一一个类型化错误失败;调用方不得假设远端发生了部分生效。
type InventoryService interface {
	// FetchItem 拉取条目快照;远端 404 映射为 KindNotFound。
	FetchItem(ctx context.Context, itemID int64) (*ItemSnapshot, error)

	// CheckAvailability 返回条目当前可用数量,数量字段缺失按 0 处理。
	CheckAvailability(ctx context.Context, itemID int64) (int, error)

	// Reduce 扣减库存。失败时应视为「远端状态未知」,而不是未发生。
	Reduce(ctx context.Context, itemID int64, qty int) error

	// Increase 归还库存,与 Reduce 对称。
	Increase(ctx context.Context, itemID int64, qty int) error
}
