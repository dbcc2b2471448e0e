package httpclient

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"meridian/internal/pkg/config"
)

// Policy 控制瞬时传输故障的重试行为。
type Policy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Jitter          bool
}

func PolicyFromConfig(cfg *config.RetryConfig) Policy {
	return Policy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.InitialBackoff.Std(),
		MaxInterval:     cfg.MaxBackoff.Std(),
		Jitter:          cfg.Jitter,
	}
}

// Retry 用指数退避包装一次远程调用。
// 只有 IsTransient 判定的传输故障会被重试;成功收到的 HTTP 错误状态
// 是域层决策,第一次就终止。打满次数后,最后一次的错误原样返回,
// 不做任何包装——对在途请求来说这就是致命失败,不能被悄悄吞掉。
func Retry(ctx context.Context, p Policy, op func() error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.InitialInterval
	bo.MaxInterval = p.MaxInterval
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0
	if !p.Jitter {
		bo.RandomizationFactor = 0
	}

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(p.MaxAttempts-1)), ctx))
}
