package infrastructure

import "meridian/internal/service/order/domain"

// ToDomainOrder 把数据库模型转换为领域模型。
func ToDomainOrder(m *OrderModel) *domain.Order {
	return &domain.Order{
		ID:         m.ID,
		UserID:     m.UserID,
		ItemID:     m.ItemID,
		Quantity:   m.Quantity,
		TotalPrice: m.TotalPrice,
		Status:     domain.Status(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// ToOrderModel 把领域模型转换为数据库模型。
func ToOrderModel(o *domain.Order) *OrderModel {
	return &OrderModel{
		ID:         o.ID,
		UserID:     o.UserID,
		ItemID:     o.ItemID,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice,
		Status:     string(o.Status),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}
