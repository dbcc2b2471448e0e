package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"meridian/internal/pkg/config"
	"meridian/internal/pkg/logger"
)

// Response 是一次完整往返的原始结果。状态码如何解读是调用方的事。
type Response struct {
	StatusCode int
	Body       []byte
}

// Client 是可追踪、可注入的 HTTP 客户端,按逻辑服务名寻址。
type Client struct {
	cfg        *config.ServicesConfig
	tracer     trace.Tracer
	httpClient *http.Client
}

// NewClient 创建客户端。http.Client 不设 Timeout 字段,
// 超时完全由每次调用派生的 context 控制。
func NewClient(cfg *config.ServicesConfig) *Client {
	return &Client{
		cfg:    cfg,
		tracer: otel.Tracer("httpclient"),
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
	}
}

func (c *Client) baseURL(service string) (string, error) {
	switch service {
	case ServiceUser:
		return c.cfg.UserBaseURL, nil
	case ServiceInventory:
		return c.cfg.InventoryBaseURL, nil
	default:
		return "", fmt.Errorf("unknown service %q", service)
	}
}

// Call 向指定逻辑服务发起一次 HTTP 调用,body 非空时按 JSON 编码。
// 只要完成了一次完整往返,无论状态码是什么都原样返回;
// 连接失败与超时分别归类为 ServiceUnavailableError / ServiceTimeoutError。
func (c *Client) Call(ctx context.Context, method, service, path string, body any, headers http.Header) (*Response, error) {
	base, err := c.baseURL(service)
	if err != nil {
		return nil, err
	}
	url := base + path

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout.Std())
	defer cancel()

	ctx, span := c.tracer.Start(ctx, fmt.Sprintf("call-%s", service), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	span.SetAttributes(
		attribute.String("http.url", url),
		attribute.String("http.method", method),
		attribute.String("peer.service", service),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := classify(service, err)
		span.RecordError(classified)
		span.SetStatus(codes.Error, classified.Error())
		logger.Ctx(ctx).Warn().
			Str("method", method).
			Str("url", url).
			Err(classified).
			Msg("remote call failed")
		return nil, classified
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		classified := classify(service, err)
		span.RecordError(classified)
		return nil, classified
	}

	logger.Ctx(ctx).Debug().
		Str("method", method).
		Str("url", url).
		Int("status", resp.StatusCode).
		Msg("remote call completed")
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// classify 把传输层失败归入两类瞬时错误。
func classify(service string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ServiceTimeoutError{Service: service, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ServiceTimeoutError{Service: service, Err: err}
	}
	return &ServiceUnavailableError{Service: service, Err: err}
}
