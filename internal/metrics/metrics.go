// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やワーカーから利用する。
type MetricsCollector interface {
	RecordScryfallRequest(endpoint string, statusCode int)
	RecordScryfallLatency(duration time.Duration)
	RecordCacheHit()
	RecordCacheMiss()
	RecordCardsRefreshed(count int)
	RecordImageFetched()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	scryfallRequests *prometheus.CounterVec
	scryfallLatency  prometheus.Histogram
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	cardsRefreshed   prometheus.Counter
	imagesFetched    prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		scryfallRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deckbuilder_scryfall_requests_total",
			Help: "Scryfall APIリクエストのエンドポイント・ステータスコード別の合計数",
		}, []string{"endpoint", "status_code"}),
		scryfallLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "deckbuilder_scryfall_latency_seconds",
			Help:    "Scryfall APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deckbuilder_card_cache_hits_total",
			Help: "カードキャッシュヒットの合計数",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deckbuilder_card_cache_misses_total",
			Help: "カードキャッシュミスの合計数",
		}),
		cardsRefreshed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deckbuilder_cards_refreshed_total",
			Help: "バックグラウンド更新されたカードの合計数",
		}),
		imagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deckbuilder_images_fetched_total",
			Help: "取得されたカード画像の合計数",
		}),
	}

	reg.MustRegister(
		c.scryfallRequests,
		c.scryfallLatency,
		c.cacheHits,
		c.cacheMisses,
		c.cardsRefreshed,
		c.imagesFetched,
	)

	return c
}

// RecordScryfallRequest はScryfall APIリクエストをエンドポイントとステータスコード別に記録する。
func (c *Collector) RecordScryfallRequest(endpoint string, statusCode int) {
	c.scryfallRequests.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
}

// RecordScryfallLatency はScryfall APIリクエストのレイテンシを記録する。
func (c *Collector) RecordScryfallLatency(duration time.Duration) {
	c.scryfallLatency.Observe(duration.Seconds())
}

// RecordCacheHit はカードキャッシュヒットを記録する。
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Inc()
}

// RecordCacheMiss はカードキャッシュミスを記録する。
func (c *Collector) RecordCacheMiss() {
	c.cacheMisses.Inc()
}

// RecordCardsRefreshed はバックグラウンド更新されたカード数を記録する。
func (c *Collector) RecordCardsRefreshed(count int) {
	c.cardsRefreshed.Add(float64(count))
}

// RecordImageFetched はカード画像の取得を記録する。
func (c *Collector) RecordImageFetched() {
	c.imagesFetched.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
