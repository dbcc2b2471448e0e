package httpclient

import (
	"errors"
	"fmt"
)

// 逻辑服务名,调用方用它选择目标地址,错误里也带着它。
const (
	ServiceUser      = "user"
	ServiceInventory = "inventory"
)

// ServiceUnavailableError 表示连接层面的失败:对端拒连、DNS 失败等。
// 属于瞬时传输故障,可以重试。
type ServiceUnavailableError struct {
	Service string
	Err     error
}

func (e *ServiceUnavailableError) Error() string {
	return fmt.Sprintf("service %s unavailable: %v", e.Service, e.Err)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// ServiceTimeoutError 表示单次调用超出了固定超时。
// 注意:超时不代表远端没有执行,调用方不能据此假设副作用未发生。
type ServiceTimeoutError struct {
	Service string
	Err     error
}

func (e *ServiceTimeoutError) Error() string {
	return fmt.Sprintf("service %s timed out: %v", e.Service, e.Err)
}

func (e *ServiceTimeoutError) Unwrap() error { return e.Err }

// IsTransient 判断错误是否为可重试的瞬时传输故障。
// 成功收到的 HTTP 错误状态(404/400/502)是域层决策,不在此列。
func IsTransient(err error) bool {
	var unavailable *ServiceUnavailableError
	var timeout *ServiceTimeoutError
	return errors.As(err, &unavailable) || errors.As(err, &timeout)
}
