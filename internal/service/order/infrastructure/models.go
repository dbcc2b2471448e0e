package infrastructure

import "time"

// OrderModel 对应数据库中的 orders 表。
type OrderModel struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	UserID     int64  `gorm:"index;not null"`
	ItemID     int64  `gorm:"not null"`
	Quantity   int    `gorm:"not null"`
	TotalPrice float64
	Status     string `gorm:"type:varchar(50);default:'pending'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName 指定 GORM 应该使用的表名。
func (OrderModel) TableName() string {
	return "orders"
}
