package application

// CreateOrderRequest 是创建订单用例的输入。请求体里允许带 user_id 和
// status,但两者都会被覆盖:下单人取认证身份,状态一律从 pending 开始。
type CreateOrderRequest struct {
	ItemID     int64
	Quantity   int
	TotalPrice float64
}

// UpdateOrderRequest 只允许改数量和状态,条目创建后不可替换。
// nil 表示该字段不改。
type UpdateOrderRequest struct {
	Quantity *int
	Status   *string
}
