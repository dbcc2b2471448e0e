package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestCount 按端点与方法统计收到的请求数。
	RequestCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_requests_total",
		Help: "Total number of requests",
	}, []string{"endpoint", "method"})

	// RequestLatency 观测每个请求的处理耗时。
	RequestLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "order_request_duration_seconds",
		Help: "Request latency",
	})
)

func init() {
	prometheus.MustRegister(RequestCount, RequestLatency)
}

// Middleware 对整棵路由树做计数与耗时观测。
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RequestCount.WithLabelValues(r.URL.Path, r.Method).Inc()
		start := time.Now()
		next.ServeHTTP(w, r)
		RequestLatency.Observe(time.Since(start).Seconds())
	})
}
