package cache

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Lookup metrics carry the cache group plus the provider and entry kind
// taken from the key (see KeyLabels).
var (
	HitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_cache_hits_total",
			Help: "Total number of search cache hits.",
		},
		[]string{"cache", "provider", "kind"},
	)

	MissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_cache_misses_total",
			Help: "Total number of search cache misses.",
		},
		[]string{"cache", "provider", "kind"},
	)

	SetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_cache_sets_total",
			Help: "Total number of provider responses stored in the cache.",
		},
		[]string{"cache", "provider", "kind"},
	)

	EvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fusion_cache_evictions_total",
			Help: "Total number of entries evicted from the cache.",
		},
		[]string{"cache", "provider"},
	)
)

func init() {
	prometheus.MustRegister(
		HitsTotal,
		MissesTotal,
		SetsTotal,
		EvictionsTotal,
	)
}

// KeyLabels splits a "<provider>|<kind>|..." key into its provider and kind
// labels. Keys without that shape are reported as "other".
func KeyLabels(key string) (provider, kind string) {
	parts := strings.SplitN(key, "|", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" {
		return "other", "other"
	}
	return parts[0], parts[1]
}

// cacheEntriesCollector reports lenFunc() for one group at scrape time.
type cacheEntriesCollector struct {
	desc    *prometheus.Desc
	lenFunc func() int
}

func (c *cacheEntriesCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.desc
}

func (c *cacheEntriesCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(c.lenFunc()))
}

var (
	entriesCollectorMu sync.Mutex
	entriesCollectors  = make(map[string]*cacheEntriesCollector)
	// entriesReg is swapped for an isolated registry in tests.
	entriesReg prometheus.Registerer = prometheus.DefaultRegisterer
)

// registerEntriesCollector registers the entries collector for group,
// replacing any collector previously registered for it.
func registerEntriesCollector(group string, lenFunc func() int) *cacheEntriesCollector {
	desc := prometheus.NewDesc(
		"fusion_cache_entries",
		"Current number of entries in the search cache.",
		nil,
		prometheus.Labels{"cache": group},
	)
	c := &cacheEntriesCollector{desc: desc, lenFunc: lenFunc}

	entriesCollectorMu.Lock()
	defer entriesCollectorMu.Unlock()

	if old, ok := entriesCollectors[group]; ok {
		entriesReg.Unregister(old)
	}
	entriesCollectors[group] = c
	_ = entriesReg.Register(c)
	return c
}

// unregisterEntriesCollector removes the entries collector for the given group.
func unregisterEntriesCollector(group string) {
	entriesCollectorMu.Lock()
	defer entriesCollectorMu.Unlock()

	if c, ok := entriesCollectors[group]; ok {
		entriesReg.Unregister(c)
		delete(entriesCollectors, group)
	}
}
