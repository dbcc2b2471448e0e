package domain

import (
	"errors"
	"fmt"
)

// ErrorKind 是面向调用方的稳定机读错误类别。
type ErrorKind string

const (
	KindUnauthorized     ErrorKind = "unauthorized"
	KindForbidden        ErrorKind = "forbidden"
	KindNotFound         ErrorKind = "not_found"
	KindOutOfStock       ErrorKind = "out_of_stock"
	KindInvalid          ErrorKind = "invalid_request"
	KindDuplicate        ErrorKind = "duplicate_request"
	KindUnavailable      ErrorKind = "service_unavailable"
	KindTimeout          ErrorKind = "service_timeout"
	KindUpstream         ErrorKind = "upstream_error"
	KindAdjustmentFailed ErrorKind = "inventory_adjustment_failed"
	KindInternal         ErrorKind = "internal"
)

// Error 是域层统一的错误载体:Kind 稳定机读,Detail 供人阅读,
// Reconcile 为 true 时表示订单与库存两边可能已经不一致,需要人工对账。
// 内部原因保存在 Err 里,只进日志,不外泄。
type Error struct {
	Kind      ErrorKind
	Detail    string
	Reconcile bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// WithCause 记下内部原因,返回自身方便链式调用。
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

func E(kind ErrorKind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Forbidden(detail string) *Error { return E(KindForbidden, detail) }

func NotFound(detail string) *Error { return E(KindNotFound, detail) }

func Invalid(detail string) *Error { return E(KindInvalid, detail) }

func ItemNotFound(itemID int64) *Error {
	return E(KindNotFound, fmt.Sprintf("item %d not found", itemID))
}

func OutOfStock(itemID int64, available, requested int) *Error {
	return E(KindOutOfStock, fmt.Sprintf("item %d out of stock: %d available, %d requested", itemID, available, requested))
}

func Unavailable(service string) *Error {
	return E(KindUnavailable, fmt.Sprintf("%s service unavailable", service))
}

func Timeout(service string) *Error {
	return E(KindTimeout, fmt.Sprintf("%s service timed out", service))
}

func Upstream(service string, status int) *Error {
	return E(KindUpstream, fmt.Sprintf("%s service returned unexpected status %d", service, status))
}

func AdjustmentFailed(itemID int64, direction AdjustDirection) *Error {
	return E(KindAdjustmentFailed, fmt.Sprintf("inventory %s failed for item %d", direction, itemID))
}

func Internal(detail string, cause error) *Error {
	return &Error{Kind: KindInternal, Detail: detail, Err: cause}
}

// WithReconciliation 在错误上标记对账缺口,并在用户可见的 Detail 里
// 明说可能需要人工对账,让操作方知道两边状态已经岔开。
func WithReconciliation(err error) error {
	var de *Error
	if !errors.As(err, &de) {
		de = Internal("internal error", err)
	}
	marked := *de
	marked.Reconcile = true
	marked.Detail = de.Detail + "; manual reconciliation may be needed"
	return &marked
}

// KindOf 取出错误的机读类别,无法识别时归为 internal。
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// NeedsReconciliation 报告错误是否留下了对账缺口。
func NeedsReconciliation(err error) bool {
	var de *Error
	return errors.As(err, &de) && de.Reconcile
}
