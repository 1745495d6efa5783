package metrics_test

import (
	"strings"
	"testing"

	"github.com/nspcc-dev/oxfs/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewImageMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	var m *metrics.ImageMetrics
	require.NotPanics(t, func() {
		m = metrics.NewImageMetrics(reg, "any_version")
	})

	m.AddOperation("write", true)
	m.AddOperation("write", true)
	m.AddOperation("mkdir", false)
	m.AddWrittenBytes(42)
	m.SetSpace(5000, 1200)
	m.SetInodes(7)

	expected := `
# HELP oxfs_space_used_bytes Bytes taken by headers and live blobs
# TYPE oxfs_space_used_bytes gauge
oxfs_space_used_bytes 1200
# HELP oxfs_operation_written_bytes Number of payload bytes written to the image
# TYPE oxfs_operation_written_bytes counter
oxfs_operation_written_bytes 42
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"oxfs_space_used_bytes", "oxfs_operation_written_bytes"))

	n, err := testutil.GatherAndCount(reg, "oxfs_operation_total")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.Panics(t, func() {
		metrics.NewImageMetrics(reg, "any_version")
	}, "double registration")
}
