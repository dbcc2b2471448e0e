package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"meridian/internal/pkg/httpclient"
	"meridian/internal/service/order/domain"
	"meridian/internal/service/order/port"
)

// UserHTTPAdapter 实现 port.UserService,只在下单时做一次引用完整性校验。
type UserHTTPAdapter struct {
	client *httpclient.Client
	policy httpclient.Policy
}

func NewUserHTTPAdapter(client *httpclient.Client, policy httpclient.Policy) *UserHTTPAdapter {
	return &UserHTTPAdapter{client: client, policy: policy}
}

type userPayload struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (a *UserHTTPAdapter) FetchUser(ctx context.Context, userID int64) (*port.UserAccount, error) {
	var resp *httpclient.Response
	err := httpclient.Retry(ctx, a.policy, func() error {
		var callErr error
		resp, callErr = a.client.Call(ctx, http.MethodGet, httpclient.ServiceUser, fmt.Sprintf("/users/%d", userID), nil, nil)
		return callErr
	})
	if err != nil {
		return nil, asDomain(err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, domain.NotFound(fmt.Sprintf("user %d not found", userID))
	default:
		return nil, domain.Upstream(httpclient.ServiceUser, resp.StatusCode)
	}

	var payload userPayload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return nil, domain.E(domain.KindUpstream, "user service returned a malformed payload").WithCause(err)
	}
	return &port.UserAccount{ID: payload.ID, Email: payload.Email, Role: payload.Role}, nil
}
