package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridian/internal/pkg/config"
	"meridian/internal/pkg/httpclient"
	"meridian/internal/service/order/domain"
)

func newAdapter(t *testing.T, handler http.Handler) *InventoryHTTPAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := httpclient.NewClient(&config.ServicesConfig{
		UserBaseURL:      srv.URL,
		InventoryBaseURL: srv.URL,
		RequestTimeout:   config.Duration(time.Second),
	})
	policy := httpclient.Policy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	}
	return NewInventoryHTTPAdapter(client, policy)
}

func TestFetchItemParsesSnapshot(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/items/10", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"id": 10, "name": "widget", "category": "tools", "quantity": 8, "price": 9.95,
		})
	}))

	item, err := a.FetchItem(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, int64(10), item.ID)
	assert.Equal(t, "widget", item.Name)
	assert.Equal(t, "tools", item.Category)
	assert.Equal(t, 8, item.Quantity)
	assert.InDelta(t, 9.95, item.Price, 1e-9)

	// 读操作天然幂等,重复调用拿到同一份快照
	again, err := a.FetchItem(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, item, again)
}

func TestFetchItemMapsNotFound(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := a.FetchItem(context.Background(), 77)
	require.Error(t, err)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))
}

func TestFetchItemMapsServerErrorToUpstream(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := a.FetchItem(context.Background(), 10)
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
}

func TestFetchItemRejectsMalformedPayload(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	}))

	_, err := a.FetchItem(context.Background(), 10)
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstream, domain.KindOf(err))
}

func TestCheckAvailabilityDefaultsMissingQuantityToZero(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 10, "name": "widget"})
	}))

	available, err := a.CheckAvailability(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 0, available)
}

func TestReduceSendsIdempotentAdjustment(t *testing.T) {
	var got struct {
		method, path, key string
		qty               int
	}
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload qtyPayload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		got.method = r.Method
		got.path = r.URL.Path
		got.key = r.Header.Get("Idempotency-Key")
		got.qty = payload.Qty
	}))

	require.NoError(t, a.Reduce(context.Background(), 10, 3))

	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/items/10/decrease", got.path)
	assert.Equal(t, 3, got.qty)
	assert.NotEmpty(t, got.key)
}

func TestIncreaseTargetsIncreaseRoute(t *testing.T) {
	var path string
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
	}))

	require.NoError(t, a.Increase(context.Background(), 10, 2))
	assert.Equal(t, "/items/10/increase", path)
}

func TestAdjustMapsRejectionToAdjustmentFailed(t *testing.T) {
	a := newAdapter(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient stock", http.StatusBadRequest)
	}))

	err := a.Reduce(context.Background(), 10, 3)
	require.Error(t, err)
	assert.Equal(t, domain.KindAdjustmentFailed, domain.KindOf(err))
}

// 同一次逻辑调整的所有重试尝试必须复用同一个幂等键,
// 远端才有机会对超时后的重发去重。
func TestAdjustKeepsIdempotencyKeyAcrossRetries(t *testing.T) {
	var calls atomic.Int32
	var mu sync.Mutex
	var keys []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		mu.Unlock()
		if calls.Add(1) == 1 {
			// 第一跳拖到超时
			time.Sleep(200 * time.Millisecond)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	client := httpclient.NewClient(&config.ServicesConfig{
		InventoryBaseURL: srv.URL,
		RequestTimeout:   config.Duration(50 * time.Millisecond),
	})
	a := NewInventoryHTTPAdapter(client, httpclient.Policy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	})

	require.NoError(t, a.Reduce(context.Background(), 10, 3))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1])
}

func TestAdjustMapsExhaustedTimeoutToDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	client := httpclient.NewClient(&config.ServicesConfig{
		InventoryBaseURL: srv.URL,
		RequestTimeout:   config.Duration(30 * time.Millisecond),
	})
	a := NewInventoryHTTPAdapter(client, httpclient.Policy{
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	})

	err := a.Reduce(context.Background(), 10, 1)
	require.Error(t, err)
	assert.Equal(t, domain.KindTimeout, domain.KindOf(err))
}

func TestFetchItemMapsExhaustedConnectionFailureToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := httpclient.NewClient(&config.ServicesConfig{
		InventoryBaseURL: url,
		RequestTimeout:   config.Duration(time.Second),
	})
	a := NewInventoryHTTPAdapter(client, httpclient.Policy{
		MaxAttempts:     2,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	})

	_, err := a.FetchItem(context.Background(), 10)
	require.Error(t, err)
	assert.Equal(t, domain.KindUnavailable, domain.KindOf(err))
}
