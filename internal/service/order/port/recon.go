package port

import (
	"context"
	"time"

	"meridian/internal/service/order/domain"
)

// ReconciliationEntry 记录一次订单账本与库存计数之间的缺口:
// 补偿步骤没能执行或执行失败,等待带外对账进程修复。
type ReconciliationEntry struct {
	ID         string                 `json:"id"`
	OrderID    uint64                 `json:"order_id"`
	ItemID     int64                  `json:"item_id"`
	Quantity   int                    `json:"quantity"`
	Direction  domain.AdjustDirection `json:"direction"`
	Reason     string                 `json:"reason"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// ReconciliationJournal 把缺口记录到带外渠道。
// 记录本身绝不能反过来让主流程失败,所以不返回错误,实现内部兜底记日志。
type ReconciliationJournal interface {
	Record(ctx context.Context, entry ReconciliationEntry)
}
