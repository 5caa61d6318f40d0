package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestCollector_ImplementsInterface はCollectorがMetricsCollectorを満たすことを検証する。
func TestCollector_ImplementsInterface(t *testing.T) {
	var _ MetricsCollector = (*Collector)(nil)
}

// counterValue はレジストリから指定メトリクスのカウンタ値を取得する。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() == name {
			var total float64
			for _, m := range mf.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}
	t.Fatalf("metric %q not found", name)
	return 0
}

// TestRecordScryfallRequest_IncrementsCounter はScryfallリクエストカウンタが増加することを検証する。
func TestRecordScryfallRequest_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordScryfallRequest("cards", 200)
	c.RecordScryfallRequest("cards", 200)
	c.RecordScryfallRequest("cards/search", 404)

	if got := counterValue(t, reg, "deckbuilder_scryfall_requests_total"); got != 3 {
		t.Errorf("scryfall_requests_total = %v, want 3", got)
	}
}

// TestRecordScryfallRequest_LabelsByStatus はステータスコード別にラベル付けされることを検証する。
func TestRecordScryfallRequest_LabelsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordScryfallRequest("cards", 200)
	c.RecordScryfallRequest("cards", 404)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	for _, mf := range metrics {
		if mf.GetName() == "deckbuilder_scryfall_requests_total" {
			if len(mf.GetMetric()) != 2 {
				t.Errorf("expected 2 labeled metrics, got %d", len(mf.GetMetric()))
			}
		}
	}
}

// TestRecordScryfallLatency_ObservesHistogram はレイテンシがヒストグラムに記録されることを検証する。
func TestRecordScryfallLatency_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordScryfallLatency(120 * time.Millisecond)
	c.RecordScryfallLatency(80 * time.Millisecond)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() == "deckbuilder_scryfall_latency_seconds" {
			found = true
			count := mf.GetMetric()[0].GetHistogram().GetSampleCount()
			if count != 2 {
				t.Errorf("latency sample count = %d, want 2", count)
			}
		}
	}
	if !found {
		t.Error("deckbuilder_scryfall_latency_seconds metric not found")
	}
}

// TestRecordCacheHitMiss_IncrementsCounters はキャッシュヒット・ミスカウンタが増加することを検証する。
func TestRecordCacheHitMiss_IncrementsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCacheHit()
	c.RecordCacheHit()
	c.RecordCacheMiss()

	if got := counterValue(t, reg, "deckbuilder_card_cache_hits_total"); got != 2 {
		t.Errorf("card_cache_hits_total = %v, want 2", got)
	}
	if got := counterValue(t, reg, "deckbuilder_card_cache_misses_total"); got != 1 {
		t.Errorf("card_cache_misses_total = %v, want 1", got)
	}
}

// TestRecordCardsRefreshed_AddsCount はカード更新数が加算されることを検証する。
func TestRecordCardsRefreshed_AddsCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCardsRefreshed(3)
	c.RecordCardsRefreshed(2)

	if got := counterValue(t, reg, "deckbuilder_cards_refreshed_total"); got != 5 {
		t.Errorf("cards_refreshed_total = %v, want 5", got)
	}
}

// TestRecordImageFetched_IncrementsCounter は画像取得カウンタが増加することを検証する。
func TestRecordImageFetched_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordImageFetched()

	if got := counterValue(t, reg, "deckbuilder_images_fetched_total"); got != 1 {
		t.Errorf("images_fetched_total = %v, want 1", got)
	}
}
