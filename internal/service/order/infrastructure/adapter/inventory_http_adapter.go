package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"meridian/internal/pkg/httpclient"
	"meridian/internal/service/order/domain"
	"meridian/internal/service/order/port"
)

// InventoryHTTPAdapter 通过 Transport Client + 重试策略实现 port.InventoryService,
// 把远端状态码翻译成域层结论。
type InventoryHTTPAdapter struct {
	client *httpclient.Client
	policy httpclient.Policy
}

func NewInventoryHTTPAdapter(client *httpclient.Client, policy httpclient.Policy) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{client: client, policy: policy}
}

type itemPayload struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type qtyPayload struct {
	Qty int `json:"qty"`
}

// FetchItem 拉取条目快照。远端 404 → KindNotFound,其余非 200 → KindUpstream。
func (a *InventoryHTTPAdapter) FetchItem(ctx context.Context, itemID int64) (*port.ItemSnapshot, error) {
	var resp *httpclient.Response
	err := httpclient.Retry(ctx, a.policy, func() error {
		var callErr error
		resp, callErr = a.client.Call(ctx, http.MethodGet, httpclient.ServiceInventory, fmt.Sprintf("/items/%d", itemID), nil, nil)
		return callErr
	})
	if err != nil {
		return nil, asDomain(err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.ItemNotFound(itemID)
	default:
		return nil, domain.Upstream(httpclient.ServiceInventory, resp.StatusCode)
	}

	var payload itemPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, domain.E(domain.KindUpstream, "inventory returned a malformed item payload").WithCause(err)
	}
	return &port.ItemSnapshot{
		ID:       payload.ID,
		Name:     payload.Name,
		Category: payload.Category,
		Quantity: payload.Quantity,
		Price:    payload.Price,
	}, nil
}

// CheckAvailability 返回条目当前可用数量。数量字段缺失时 JSON 解码后为零值,
// 正好符合「缺省按 0」的约定。
func (a *InventoryHTTPAdapter) CheckAvailability(ctx context.Context, itemID int64) (int, error) {
	item, err := a.FetchItem(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return item.Quantity, nil
}

func (a *InventoryHTTPAdapter) Reduce(ctx context.Context, itemID int64, qty int) error {
	return a.adjust(ctx, itemID, qty, domain.DirectionReduce)
}

func (a *InventoryHTTPAdapter) Increase(ctx context.Context, itemID int64, qty int) error {
	return a.adjust(ctx, itemID, qty, domain.DirectionIncrease)
}

// adjust 发出一次库存调整。同一次逻辑调整在所有重试尝试之间共用一个
// 幂等键,远端据此去重,超时后的重试才不会重复扣减。
func (a *InventoryHTTPAdapter) adjust(ctx context.Context, itemID int64, qty int, direction domain.AdjustDirection) error {
	path := fmt.Sprintf("/items/%d/%s", itemID, remoteOp(direction))
	headers := http.Header{}
	headers.Set("Idempotency-Key", uuid.NewString())

	var resp *httpclient.Response
	err := httpclient.Retry(ctx, a.policy, func() error {
		var callErr error
		resp, callErr = a.client.Call(ctx, http.MethodPut, httpclient.ServiceInventory, path, qtyPayload{Qty: qty}, headers)
		return callErr
	})
	if err != nil {
		return asDomain(err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.AdjustmentFailed(itemID, direction)
	}
	return nil
}

func remoteOp(direction domain.AdjustDirection) string {
	if direction == domain.DirectionReduce {
		return "decrease"
	}
	return "increase"
}

// asDomain 把重试额度打满后的瞬时传输错误换成网关语义的域错误,
// 其余错误原样透传。
func asDomain(err error) error {
	var timeout *httpclient.ServiceTimeoutError
	if errors.As(err, &timeout) {
		return domain.Timeout(timeout.Service).WithCause(err)
	}
	var unavailable *httpclient.ServiceUnavailableError
	if errors.As(err, &unavailable) {
		return domain.Unavailable(unavailable.Service).WithCause(err)
	}
	return err
}
