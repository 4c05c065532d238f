// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/mockboard/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ミドルウェアやストアのリスナーから利用する。
type MetricsCollector interface {
	RecordStoreEvent(kind store.EventKind)
	SetEntityCounts(counts store.Counts)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// CountSource はエンティティ件数を返すインターフェース。
// *store.Store が実装する。
type CountSource interface {
	Counts() store.Counts
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	storeEvents    *prometheus.CounterVec
	entities       *prometheus.GaugeVec
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		storeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mockboard_store_events_total",
			Help: "種別ごとのストア変更イベント数",
		}, []string{"kind"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mockboard_entities",
			Help: "種別ごとの現在のエンティティ数",
		}, []string{"type"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mockboard_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mockboard_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.storeEvents,
		c.entities,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordStoreEvent はストア変更イベントを記録する。
func (c *Collector) RecordStoreEvent(kind store.EventKind) {
	c.storeEvents.WithLabelValues(string(kind)).Inc()
}

// SetEntityCounts はユーザー・投稿・コメントの件数を更新する。
func (c *Collector) SetEntityCounts(counts store.Counts) {
	c.entities.WithLabelValues("users").Set(float64(counts.Users))
	c.entities.WithLabelValues("posts").Set(float64(counts.Posts))
	c.entities.WithLabelValues("comments").Set(float64(counts.Comments))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はHTTPリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// StoreListener はストアに登録するリスナーを返す。
// イベントごとにカウンタを増やし、件数ゲージをsrcの現在値で更新する。
func StoreListener(c MetricsCollector, src CountSource) store.Listener {
	return func(ev store.Event) {
		c.RecordStoreEvent(ev.Kind)
		c.SetEntityCounts(src.Counts())
	}
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
