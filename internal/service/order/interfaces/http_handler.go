package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"meridian/internal/pkg/auth"
	"meridian/internal/pkg/logger"
	"meridian/internal/service/order/application"
	"meridian/internal/service/order/domain"
)

// OrderService 是处理器依赖的用例入口,按接口注入方便替身测试。
type OrderService interface {
	Create(ctx context.Context, caller domain.Identity, req *application.CreateOrderRequest) (*domain.Order, error)
	Get(ctx context.Context, caller domain.Identity, orderID uint64) (*domain.Order, error)
	List(ctx context.Context, caller domain.Identity) ([]*domain.Order, error)
	Update(ctx context.Context, caller domain.Identity, orderID uint64, req *application.UpdateOrderRequest) (*domain.Order, error)
	Delete(ctx context.Context, caller domain.Identity, orderID uint64) error
}

// ReplayGuard 对带 Idempotency-Key 的创建请求做去重。
type ReplayGuard interface {
	Key(route, key string) string
	Seen(ctx context.Context, key string) (bool, error)
}

// OrderHandler 封装订单服务的 HTTP 处理器。
type OrderHandler struct {
	service  OrderService
	verifier *auth.TokenVerifier
	guard    ReplayGuard
}

// NewOrderHandler 创建处理器。guard 传 nil 表示不启用创建去重。
func NewOrderHandler(service OrderService, verifier *auth.TokenVerifier, guard ReplayGuard) *OrderHandler {
	return &OrderHandler{service: service, verifier: verifier, guard: guard}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())

	mux.Handle("POST /orders", h.withIdentity(h.createOrder))
	mux.Handle("POST /orders/{$}", h.withIdentity(h.createOrder))
	mux.Handle("GET /orders", h.withIdentity(h.listOrders))
	mux.Handle("GET /orders/{$}", h.withIdentity(h.listOrders))
	mux.Handle("GET /orders/{id}", h.withIdentity(h.getOrder))
	mux.Handle("PUT /orders/{id}", h.withIdentity(h.updateOrder))
	mux.Handle("DELETE /orders/{id}", h.withIdentity(h.deleteOrder))
}

// withIdentity 解析 Bearer 令牌,把类型化身份交给各个处理函数,
// 并在请求上下文的 logger 里带上 user_id。
func (h *OrderHandler) withIdentity(next func(http.ResponseWriter, *http.Request, domain.Identity)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, domain.E(domain.KindUnauthorized, "missing bearer token"))
			return
		}
		identity, err := h.verifier.Verify(token)
		if err != nil {
			writeError(w, err)
			return
		}

		reqLogger := log.Logger.With().
			Int64("user_id", identity.UserID).
			Str("role", string(identity.Role)).
			Logger()
		ctx := reqLogger.WithContext(r.Context())
		next(w, r.WithContext(ctx), identity)
	})
}

type createOrderBody struct {
	UserID     int64   `json:"user_id"` // 被忽略,下单人以认证身份为准
	ItemID     int64   `json:"item_id"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"total_price"`
	Status     string  `json:"status"` // 被忽略,新订单一律 pending
}

type updateOrderBody struct {
	Quantity *int    `json:"quantity"`
	Status   *string `json:"status"`
}

type orderOut struct {
	ID         uint64  `json:"id"`
	UserID     int64   `json:"user_id"`
	ItemID     int64   `json:"item_id"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"total_price"`
	Status     string  `json:"status"`
}

func toOrderOut(o *domain.Order) orderOut {
	return orderOut{
		ID:         o.ID,
		UserID:     o.UserID,
		ItemID:     o.ItemID,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice,
		Status:     string(o.Status),
	}
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	var body createOrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.Invalid("invalid json body"))
		return
	}

	// 带 Idempotency-Key 的重放在 TTL 内直接拒绝,避免重复下单
	if key := r.Header.Get("Idempotency-Key"); key != "" && h.guard != nil {
		seen, err := h.guard.Seen(r.Context(), h.guard.Key("orders.create", key))
		if err != nil {
			// 去重存储不可用时放行并告警:可用性优先于严格去重
			logger.Ctx(r.Context()).Warn().Err(err).Msg("replay guard unavailable")
		} else if seen {
			writeError(w, domain.E(domain.KindDuplicate, "order creation with this idempotency key was already accepted"))
			return
		}
	}

	order, err := h.service.Create(r.Context(), caller, &application.CreateOrderRequest{
		ItemID:     body.ItemID,
		Quantity:   body.Quantity,
		TotalPrice: body.TotalPrice,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderOut(order))
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	orders, err := h.service.List(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]orderOut, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderOut(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	id, ok := orderID(r)
	if !ok {
		writeError(w, domain.NotFound("order not found"))
		return
	}
	order, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderOut(order))
}

func (h *OrderHandler) updateOrder(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	id, ok := orderID(r)
	if !ok {
		writeError(w, domain.NotFound("order not found"))
		return
	}
	var body updateOrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.Invalid("invalid json body"))
		return
	}
	if body.Quantity == nil && body.Status == nil {
		writeError(w, domain.Invalid("nothing to update"))
		return
	}
	order, err := h.service.Update(r.Context(), caller, id, &application.UpdateOrderRequest{
		Quantity: body.Quantity,
		Status:   body.Status,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderOut(order))
}

func (h *OrderHandler) deleteOrder(w http.ResponseWriter, r *http.Request, caller domain.Identity) {
	id, ok := orderID(r)
	if !ok {
		writeError(w, domain.NotFound("order not found"))
		return
	}
	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
}

func orderID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token, token != ""
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// writeError 把任意错误转成单一结构化响应:kind 稳定机读,detail 给人看。
// 内部原因只进日志,不进响应。
func writeError(w http.ResponseWriter, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = domain.Internal("internal error", err)
	}
	writeJSON(w, statusFor(de.Kind), errorBody{Kind: string(de.Kind), Detail: de.Detail})
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindOutOfStock, domain.KindInvalid:
		return http.StatusBadRequest
	case domain.KindDuplicate:
		return http.StatusConflict
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindTimeout:
		return http.StatusGatewayTimeout
	case domain.KindUpstream, domain.KindAdjustmentFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
