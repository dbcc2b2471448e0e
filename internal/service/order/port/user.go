package port

import "context"

// UserAccount 是用户服务返回的用户记录视图。
type UserAccount struct {
	ID    int64
	Email string
	Role  string
}

// UserService 是用户服务的出站端口,只用于下单时的引用完整性校验。
type UserService interface {
	FetchUser(ctx context.Context, userID int64) (*UserAccount, error)
}
