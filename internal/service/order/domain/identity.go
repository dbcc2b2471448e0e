package domain

// Role 是调用方角色,只有两种取值。
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Identity 是每个请求附带的调用方身份,由认证中间件构造一次,
// 之后在调用链上显式传递,不走任何动态字典。
type Identity struct {
	UserID int64
	Role   Role
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }
