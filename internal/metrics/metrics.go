// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 送信結果のラベル値
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// bbwsクライアントやエンティティサービスから利用する。
type MetricsCollector interface {
	RecordSubmission(kind, outcome string)
	RecordChanges(kind string, added, modified, removed int)
	RecordRemoteCall(operation string, statusCode int, duration time.Duration)
	RecordBreakerState(state string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	submissions   *prometheus.CounterVec
	changes       *prometheus.CounterVec
	remoteStatus  *prometheus.CounterVec
	remoteLatency *prometheus.HistogramVec
	breakerState  prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bbeditor_submissions_total",
			Help: "種別・結果別のフォーム送信数",
		}, []string{"kind", "outcome"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bbeditor_child_changes_total",
			Help: "変更セットに含まれる子レコード（エイリアス・識別子）の操作数",
		}, []string{"kind", "op"}),
		remoteStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bbeditor_bbws_requests_total",
			Help: "bbws呼び出しの操作・ステータスコード別の数（0は通信失敗）",
		}, []string{"operation", "status_code"}),
		remoteLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bbeditor_bbws_latency_seconds",
			Help:    "bbws呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		breakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bbeditor_bbws_breaker_state",
			Help: "bbwsサーキットブレーカーの状態（0: closed, 1: half-open, 2: open）",
		}),
	}

	reg.MustRegister(
		c.submissions,
		c.changes,
		c.remoteStatus,
		c.remoteLatency,
		c.breakerState,
	)

	return c
}

// RecordSubmission はフォーム送信の結果を記録する。
func (c *Collector) RecordSubmission(kind, outcome string) {
	c.submissions.WithLabelValues(kind, outcome).Inc()
}

// RecordChanges は変更セットの追加・変更・削除件数を記録する。
func (c *Collector) RecordChanges(kind string, added, modified, removed int) {
	c.changes.WithLabelValues(kind, "added").Add(float64(added))
	c.changes.WithLabelValues(kind, "modified").Add(float64(modified))
	c.changes.WithLabelValues(kind, "removed").Add(float64(removed))
}

// RecordRemoteCall はbbws呼び出しのステータスとレイテンシを記録する。
func (c *Collector) RecordRemoteCall(operation string, statusCode int, duration time.Duration) {
	c.remoteStatus.WithLabelValues(operation, strconv.Itoa(statusCode)).Inc()
	c.remoteLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordBreakerState はサーキットブレーカーの状態を記録する。
func (c *Collector) RecordBreakerState(state string) {
	switch state {
	case "open":
		c.breakerState.Set(2)
	case "half-open":
		c.breakerState.Set(1)
	default:
		c.breakerState.Set(0)
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
