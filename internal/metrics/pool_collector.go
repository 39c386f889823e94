package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"agentpool.run/internal/ownership"
)

var _ PoolCollector = (*collector)(nil)

// PoolCollector is an alias for prometheus.Collector.
type PoolCollector prometheus.Collector

type poolSizer interface {
	Len() int
}

type claimCounter interface {
	ClaimCounts() map[ownership.Kind]int
}

// NewPoolCollector constructs a collector reporting the live pool size
// and the number of names claimed by each source kind.
func NewPoolCollector(pool poolSizer, claims claimCounter) PoolCollector {
	templatesDesc := prometheus.NewDesc(
		"agentpool_worker_templates",
		"Number of worker templates in the live pool.",
		nil, nil)
	claimsDesc := prometheus.NewDesc(
		"agentpool_claimed_names",
		"Number of worker template names claimed per source kind.",
		[]string{"kind"}, nil)

	return &collector{
		pool:          pool,
		claims:        claims,
		templatesDesc: templatesDesc,
		claimsDesc:    claimsDesc,
	}
}

type collector struct {
	pool          poolSizer
	claims        claimCounter
	templatesDesc *prometheus.Desc
	claimsDesc    *prometheus.Desc
}

func (c collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

func (c collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(
		c.templatesDesc,
		prometheus.GaugeValue,
		float64(c.pool.Len()),
	)

	for kind, count := range c.claims.ClaimCounts() {
		ch <- prometheus.MustNewConstMetric(
			c.claimsDesc,
			prometheus.GaugeValue,
			float64(count),
			string(kind),
		)
	}
}
