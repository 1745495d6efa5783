package metrics

import "github.com/prometheus/client_golang/prometheus"

const spaceSubsystem = "space"

type spaceMetrics struct {
	capacity prometheus.Gauge
	used     prometheus.Gauge
	inodes   prometheus.Gauge
}

func newSpaceMetrics() spaceMetrics {
	return spaceMetrics{
		capacity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: spaceSubsystem,
			Name:      "capacity_bytes",
			Help:      "Stated capacity of the image",
		}),
		used: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: spaceSubsystem,
			Name:      "used_bytes",
			Help:      "Bytes taken by headers and live blobs",
		}),
		inodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: spaceSubsystem,
			Name:      "inodes",
			Help:      "Number of blobs stored in the image",
		}),
	}
}

func (m spaceMetrics) register(reg prometheus.Registerer) {
	reg.MustRegister(m.capacity)
	reg.MustRegister(m.used)
	reg.MustRegister(m.inodes)
}

// SetSpace updates image capacity and usage.
func (m spaceMetrics) SetSpace(capacity, used uint64) {
	m.capacity.Set(float64(capacity))
	m.used.Set(float64(used))
}

// SetInodes updates number of stored blobs.
func (m spaceMetrics) SetInodes(n uint64) {
	m.inodes.Set(float64(n))
}
