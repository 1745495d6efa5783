package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "oxfs"

// ImageMetrics collects metrics of an image being built or inspected.
type ImageMetrics struct {
	operationMetrics
	spaceMetrics
}

// NewImageMetrics creates and registers image metrics in reg. The version
// is exported as a constant label of the version gauge.
func NewImageMetrics(reg prometheus.Registerer, version string) *ImageMetrics {
	ops := newOperationMetrics()
	ops.register(reg)

	space := newSpaceMetrics()
	space.register(reg)

	registerVersionMetric(reg, namespace, version)

	return &ImageMetrics{
		operationMetrics: ops,
		spaceMetrics:     space,
	}
}
