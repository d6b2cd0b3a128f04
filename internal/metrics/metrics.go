// Package metrics exports inventory state as Prometheus metrics.
//
// A Collector subscribes to an inventory.Store and updates its gauges on
// every change, so scraping never takes the store lock.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/pantry/internal/inventory"
	"github.com/sakif/pantry/internal/model"
)

const namespace = "pantry"

// Collector owns a private registry with the inventory metrics and the
// standard Go and process collectors.
type Collector struct {
	registry *prometheus.Registry
	now      func() time.Time

	displayed prometheus.Gauge
	byStatus  *prometheus.GaugeVec
	hasMore   prometheus.Gauge
	fetching  prometheus.Gauge
	loading   prometheus.Gauge
	pageLoads prometheus.Counter
	refetches prometheus.Counter

	mu   sync.Mutex
	prev inventory.State
}

// New registers the inventory metrics. A nil clock means time.Now.
func New(now func() time.Time) *Collector {
	if now == nil {
		now = time.Now
	}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		now:      now,
		displayed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items_displayed",
			Help:      "Food items currently in the displayed collection.",
		}),
		byStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items_by_status",
			Help:      "Displayed food items by expiration status.",
		}, []string{"status"}),
		hasMore: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_has_more",
			Help:      "1 while further pages are available.",
		}),
		fetching: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_fetch_in_flight",
			Help:      "1 while a next-page load is running.",
		}),
		loading: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_refetch_in_flight",
			Help:      "1 while a refetch is running.",
		}),
		pageLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_loads_total",
			Help:      "Completed next-page loads.",
		}),
		refetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refetches_total",
			Help:      "Finished refetches, including failed ones.",
		}),
	}

	c.registry.MustRegister(
		c.displayed, c.byStatus, c.hasMore, c.fetching, c.loading, c.pageLoads, c.refetches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, s := range []model.Status{model.StatusNormal, model.StatusExpiringSoon, model.StatusExpired} {
		c.byStatus.WithLabelValues(string(s))
	}
	return c
}

// Attach seeds the gauges from store and keeps them current. Call the
// returned func to stop.
func (c *Collector) Attach(store *inventory.Store) (detach func()) {
	c.Observe(store.State())
	return store.Subscribe(c.Observe)
}

// Observe updates every metric from st.
func (c *Collector) Observe(st inventory.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	counts := map[model.Status]int{
		model.StatusNormal:       0,
		model.StatusExpiringSoon: 0,
		model.StatusExpired:      0,
	}
	for _, item := range st.Items {
		counts[item.Status(now)]++
	}
	for status, n := range counts {
		c.byStatus.WithLabelValues(string(status)).Set(float64(n))
	}

	c.displayed.Set(float64(len(st.Items)))
	c.hasMore.Set(boolToFloat(st.HasMore))
	c.fetching.Set(boolToFloat(st.IsFetching))
	c.loading.Set(boolToFloat(st.IsLoading))

	if c.prev.IsFetching && !st.IsFetching && st.CurrentPage > c.prev.CurrentPage {
		c.pageLoads.Inc()
	}
	if c.prev.IsLoading && !st.IsLoading {
		c.refetches.Inc()
	}
	c.prev = inventory.State{
		IsFetching:  st.IsFetching,
		IsLoading:   st.IsLoading,
		CurrentPage: st.CurrentPage,
	}
}

// Registry exposes the registry, mostly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
