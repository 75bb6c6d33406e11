// Package metrics はPrometheusメトリクスの収集と公開を行う。
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nao1215/filegate/pkg/apperr"
	"github.com/nao1215/filegate/pkg/identity"
)

// Metrics はゲートウェイのメトリクスを保持する。
type Metrics struct {
	registry        *prometheus.Registry
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	verifications   *prometheus.CounterVec
}

// New はメトリクスを生成し、専用のレジストリに登録する。
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filegate_http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "filegate_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "filegate_token_verifications_total",
			Help: "Total number of bearer token verifications by outcome",
		}, []string{"outcome"}),
	}
	registry.MustRegister(m.requests, m.requestDuration, m.verifications)
	return m
}

// Middleware はリクエスト数とレイテンシを記録するGinミドルウェアを返す。
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler は /metrics エンドポイントのハンドラを返す。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentVerifier は検証結果を記録するVerifierでvをラップする。
func (m *Metrics) InstrumentVerifier(v identity.Verifier) identity.Verifier {
	return identity.VerifierFunc(func(ctx context.Context, token string) (*identity.Identity, error) {
		id, err := v.Verify(ctx, token)
		outcome := "success"
		if err != nil {
			outcome = apperr.KindOf(err).String()
		}
		m.verifications.WithLabelValues(outcome).Inc()
		return id, err
	})
}
