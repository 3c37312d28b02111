// Package metrics exports record set statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sharedcode/idxstore/indexed"
)

// StatsSource yields a statistics snapshot per record set.
type StatsSource interface {
	Stats() []indexed.Stats
}

// Collector reads its source on every scrape, so the exported values are never stale.
type Collector struct {
	src StatsSource

	records         *prometheus.Desc
	keys            *prometheus.Desc
	capacity        *prometheus.Desc
	loadFactor      *prometheus.Desc
	tombstones      *prometheus.Desc
	treeHeight      *prometheus.Desc
	treeBlackHeight *prometheus.Desc
	valid           *prometheus.Desc
	efficiency      *prometheus.Desc
	relocations     *prometheus.Desc
}

func NewCollector(namespace string, src StatsSource) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "set", name), help, []string{"set"}, nil)
	}
	return &Collector{
		src: src,

		records:         desc("records", "Number of records held by the set"),
		keys:            desc("keys", "Number of distinct keys in the set"),
		capacity:        desc("capacity", "Slot count of the set's hash table"),
		loadFactor:      desc("load_factor", "Live slots over capacity of the set's hash table"),
		tombstones:      desc("tombstones", "Deleted slots still occupying the set's hash table"),
		treeHeight:      desc("tree_height", "Height of the set's key tree"),
		treeBlackHeight: desc("tree_black_height", "Black height of the set's key tree"),
		valid:           desc("valid", "1 when the set passes its integrity check"),
		efficiency:      desc("efficiency", "Index layout efficiency, 1 being ideal"),
		relocations:     desc("relocations_total", "Records moved to keep the set's store dense"),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.records
	ch <- c.keys
	ch <- c.capacity
	ch <- c.loadFactor
	ch <- c.tombstones
	ch <- c.treeHeight
	ch <- c.treeBlackHeight
	ch <- c.valid
	ch <- c.efficiency
	ch <- c.relocations
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, st := range c.src.Stats() {
		gauge := func(d *prometheus.Desc, v float64) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, st.Name)
		}
		gauge(c.records, float64(st.Size))
		gauge(c.keys, float64(st.Keys))
		switch st.Shape {
		case indexed.OneToOne:
			gauge(c.capacity, float64(st.Capacity))
			gauge(c.loadFactor, st.LoadFactor)
			gauge(c.tombstones, float64(st.Tombstones))
		case indexed.OneToMany:
			gauge(c.treeHeight, float64(st.Height))
			gauge(c.treeBlackHeight, float64(st.BlackHeight))
		}
		valid := 0.0
		if st.Valid {
			valid = 1
		}
		gauge(c.valid, valid)
		gauge(c.efficiency, st.Efficiency)
		ch <- prometheus.MustNewConstMetric(c.relocations, prometheus.CounterValue, float64(st.Relocations), st.Name)
	}
}

// Requests counts REST calls by route, method and status code.
var Requests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "idxstore",
	Subsystem: "api",
	Name:      "requests_total",
}, []string{"route", "method", "status"})

// Register adds a Collector over src and the request counter to reg.
func Register(reg prometheus.Registerer, namespace string, src StatsSource) error {
	if err := reg.Register(NewCollector(namespace, src)); err != nil {
		return err
	}
	return reg.Register(Requests)
}
