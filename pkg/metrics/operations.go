package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	operationSubsystem = "operation"

	opLabelKey     = "op"
	resultLabelKey = "result"
)

type operationMetrics struct {
	count        prometheus.CounterVec
	writtenBytes prometheus.Counter
}

func newOperationMetrics() operationMetrics {
	var (
		count = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: operationSubsystem,
			Name:      "total",
			Help:      "Number of file system operations",
		}, []string{opLabelKey, resultLabelKey})

		writtenBytes = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: operationSubsystem,
			Name:      "written_bytes",
			Help:      "Number of payload bytes written to the image",
		})
	)

	return operationMetrics{
		count:        *count,
		writtenBytes: writtenBytes,
	}
}

func (m operationMetrics) register(reg prometheus.Registerer) {
	reg.MustRegister(m.count)
	reg.MustRegister(m.writtenBytes)
}

// AddOperation counts a finished file system operation.
func (m operationMetrics) AddOperation(op string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}

	m.count.With(prometheus.Labels{opLabelKey: op, resultLabelKey: result}).Inc()
}

// AddWrittenBytes counts written payload.
func (m operationMetrics) AddWrittenBytes(n uint64) {
	m.writtenBytes.Add(float64(n))
}
