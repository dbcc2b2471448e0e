package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"meridian/internal/pkg/logger"
	"meridian/internal/service/order/domain"
	"meridian/internal/service/order/port"
)

// OrderService 是订单的跨服务协调器。每个请求内部严格串行:
// 校验 → 占用库存 → 落库,后一步依赖前一步的结果,没有并行扇出。
// 库存调用失败在落库前发生就整体放弃;本地已提交之后再失败的补偿
// 不做自动回滚,只记对账缺口并如实上报给调用方。
type OrderService struct {
	repo      domain.OrderRepository
	inventory port.InventoryService
	users     port.UserService
	journal   port.ReconciliationJournal
	tracer    trace.Tracer
}

func NewOrderService(repo domain.OrderRepository, inventory port.InventoryService, users port.UserService, journal port.ReconciliationJournal) *OrderService {
	return &OrderService{
		repo:      repo,
		inventory: inventory,
		users:     users,
		journal:   journal,
		tracer:    otel.Tracer("order-application"),
	}
}

// Create 创建订单:校验 → 占用 → 落库。
func (s *OrderService) Create(ctx context.Context, caller domain.Identity, req *CreateOrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Create")
	defer span.End()

	// Validating:管理员不允许下单
	if caller.IsAdmin() {
		return nil, domain.Forbidden("admin cannot create an order")
	}
	order, err := domain.NewOrder(caller.UserID, req.ItemID, req.Quantity, req.TotalPrice)
	if err != nil {
		return nil, err
	}
	// 条目和用户都在别的服务里,引用完整性只能在下单这一刻同步校验一次
	if _, err := s.inventory.FetchItem(ctx, req.ItemID); err != nil {
		return nil, err
	}
	if _, err := s.users.FetchUser(ctx, caller.UserID); err != nil {
		return nil, err
	}

	// Reserving:库存闸门按「可用 < 请求」拒单
	available, err := s.inventory.CheckAvailability(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if available < req.Quantity {
		return nil, domain.OutOfStock(req.ItemID, available, req.Quantity)
	}
	if err := s.inventory.Reduce(ctx, req.ItemID, req.Quantity); err != nil {
		// 本地还什么都没写,直接放弃即可,不需要补偿
		return nil, err
	}

	// Persisting:扣减成功后落库。这里失败的话库存已扣而订单不存在,
	// 属于已知的不一致窗口,记缺口后上报。
	if err := s.repo.Save(ctx, order); err != nil {
		s.recordGap(ctx, 0, req.ItemID, req.Quantity, domain.DirectionIncrease, "order persist failed after stock reduce")
		return nil, domain.WithReconciliation(domain.Internal("order could not be persisted", err))
	}

	logger.Ctx(ctx).Info().
		Uint64("order_id", order.ID).
		Int64("item_id", order.ItemID).
		Int("quantity", order.Quantity).
		Msg("order created")
	return order, nil
}

// Get 返回单个订单,范围限定到调用方。
func (s *OrderService) Get(ctx context.Context, caller domain.Identity, orderID uint64) (*domain.Order, error) {
	return s.loadScoped(ctx, caller, orderID)
}

// List 返回调用方可见的订单:管理员看全部,普通用户只看自己的。
func (s *OrderService) List(ctx context.Context, caller domain.Identity) ([]*domain.Order, error) {
	if caller.IsAdmin() {
		return s.repo.FindAll(ctx)
	}
	return s.repo.FindAllByUser(ctx, caller.UserID)
}

// Update 调整订单数量/状态。数量变化按差值先调库存,再写本地。
func (s *OrderService) Update(ctx context.Context, caller domain.Identity, orderID uint64, req *UpdateOrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Update")
	defer span.End()

	// Validating:范围内装载订单
	order, err := s.loadScoped(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}

	// 先在副本上做完全部域校验,确定会过了才去动远端库存
	updated := *order
	delta := 0
	direction := domain.AdjustDirection("")
	if req.Quantity != nil {
		oldQuantity := updated.Quantity
		if err := updated.ChangeQuantity(*req.Quantity); err != nil {
			return nil, err
		}
		switch {
		case *req.Quantity > oldQuantity:
			delta = *req.Quantity - oldQuantity
			direction = domain.DirectionReduce
		case *req.Quantity < oldQuantity:
			delta = oldQuantity - *req.Quantity
			direction = domain.DirectionIncrease
		}
	}
	if req.Status != nil {
		if err := updated.TransitionTo(domain.Status(*req.Status)); err != nil {
			return nil, err
		}
	}

	// Reserving:差值为零则完全不碰库存
	if delta > 0 {
		var adjustErr error
		if direction == domain.DirectionReduce {
			adjustErr = s.inventory.Reduce(ctx, updated.ItemID, delta)
		} else {
			adjustErr = s.inventory.Increase(ctx, updated.ItemID, delta)
		}
		if adjustErr != nil {
			// 本地还没动,放弃即可
			return nil, adjustErr
		}
	}

	// Persisting:库存已按差值调过,这里失败就是订单记录滞后于库存
	if err := s.repo.Update(ctx, &updated); err != nil {
		if delta > 0 {
			s.recordGap(ctx, updated.ID, updated.ItemID, delta, opposite(direction), "order update failed after inventory adjustment")
			return nil, domain.WithReconciliation(domain.Internal("order could not be updated", err))
		}
		return nil, domain.Internal("order could not be updated", err)
	}

	logger.Ctx(ctx).Info().
		Uint64("order_id", updated.ID).
		Int("quantity", updated.Quantity).
		Str("status", string(updated.Status)).
		Msg("order updated")
	return &updated, nil
}

// Delete 删除订单:先删行,再归还库存。
func (s *OrderService) Delete(ctx context.Context, caller domain.Identity, orderID uint64) error {
	ctx, span := s.tracer.Start(ctx, "order.Delete")
	defer span.End()

	// Validating:范围内装载,拿到待归还的数量
	order, err := s.loadScoped(ctx, caller, orderID)
	if err != nil {
		return err
	}

	// Persisting:先删订单行。此时库存还没动,失败可以干净地放弃
	if err := s.repo.Delete(ctx, order.ID); err != nil {
		return domain.Internal("order could not be deleted", err)
	}

	// Compensating:订单已删,归还失败只能记缺口等带外修复
	if err := s.inventory.Increase(ctx, order.ItemID, order.Quantity); err != nil {
		s.recordGap(ctx, order.ID, order.ItemID, order.Quantity, domain.DirectionIncrease, "stock restore failed after order delete")
		return domain.WithReconciliation(err)
	}

	logger.Ctx(ctx).Info().
		Uint64("order_id", order.ID).
		Int64("item_id", order.ItemID).
		Msg("order deleted, stock restored")
	return nil
}

// loadScoped 按调用方范围装载订单。别人的订单一律按不存在处理,
// 不暴露它是否真的存在。
func (s *OrderService) loadScoped(ctx context.Context, caller domain.Identity, orderID uint64) (*domain.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.VisibleTo(caller) {
		return nil, domain.NotFound("order not found")
	}
	return order, nil
}

func (s *OrderService) recordGap(ctx context.Context, orderID uint64, itemID int64, qty int, direction domain.AdjustDirection, reason string) {
	entry := port.ReconciliationEntry{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		ItemID:     itemID,
		Quantity:   qty,
		Direction:  direction,
		Reason:     reason,
		OccurredAt: time.Now(),
	}
	logger.Ctx(ctx).Error().
		Str("entry_id", entry.ID).
		Uint64("order_id", orderID).
		Int64("item_id", itemID).
		Int("quantity", qty).
		Str("direction", string(direction)).
		Str("reason", reason).
		Msg("reconciliation gap recorded")
	s.journal.Record(ctx, entry)
}

func opposite(d domain.AdjustDirection) domain.AdjustDirection {
	if d == domain.DirectionReduce {
		return domain.DirectionIncrease
	}
	return domain.DirectionReduce
}
