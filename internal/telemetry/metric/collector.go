package metric

import "github.com/prometheus/client_golang/prometheus"

// Component reports whether a feature has the credentials it needs.
type Component interface {
	Configured() bool
}

var configuredDesc = prometheus.NewDesc(
	prometheus.BuildFQName(namespace, "", "component_configured"),
	"Whether a component is configured (1) or failing closed (0).",
	[]string{"component"}, nil,
)

// Collector reports component configuration at scrape time, so a reload
// that clears a secret shows up without extra bookkeeping.
type Collector struct {
	components map[string]Component
}

// NewCollector creates a collector over the named components.
func NewCollector(components map[string]Component) *Collector {
	c := &Collector{components: make(map[string]Component, len(components))}
	for name, comp := range components {
		if comp != nil {
			c.components[name] = comp
		}
	}
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- configuredDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for name, comp := range c.components {
		v := 0.0
		if comp.Configured() {
			v = 1
		}
		ch <- prometheus.MustNewConstMetric(configuredDesc, prometheus.GaugeValue, v, name)
	}
}
