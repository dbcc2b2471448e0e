package infrastructure

import (
	"context"

	gerrors "errors"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"meridian/internal/service/order/domain"
)

// GormOrderRepository 是 OrderRepository 的 GORM 实现。
// 单条记录的原子性交给底层存储,这里不加额外锁。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	model := ToOrderModel(order)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return errors.Wrap(err, "create order")
	}
	// 存储分配的主键回填到实体
	order.ID = model.ID
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		if gerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NotFound("order not found")
		}
		return nil, errors.Wrap(err, "find order")
	}
	return ToDomainOrder(&model), nil
}

func (r *GormOrderRepository) FindAll(ctx context.Context) ([]*domain.Order, error) {
	var models []OrderModel
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return toDomainOrders(models), nil
}

func (r *GormOrderRepository) FindAllByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	var models []OrderModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&models).Error; err != nil {
		return nil, errors.Wrap(err, "list orders by user")
	}
	return toDomainOrders(models), nil
}

func (r *GormOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	// 只回写会变化的字段
	tx := r.db.WithContext(ctx).Model(&OrderModel{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"quantity":   order.Quantity,
		"status":     string(order.Status),
		"updated_at": order.UpdatedAt,
	})
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "update order")
	}
	if tx.RowsAffected == 0 {
		return domain.NotFound("order not found")
	}
	return nil
}

func (r *GormOrderRepository) Delete(ctx context.Context, id uint64) error {
	tx := r.db.WithContext(ctx).Delete(&OrderModel{}, id)
	if tx.Error != nil {
		return errors.Wrap(tx.Error, "delete order")
	}
	if tx.RowsAffected == 0 {
		return domain.NotFound("order not found")
	}
	return nil
}

func toDomainOrders(models []OrderModel) []*domain.Order {
	out := make([]*domain.Order, 0, len(models))
	for i := range models {
		out = append(out, ToDomainOrder(&models[i]))
	}
	return out
}
