package rand

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	for _, n := range []int{0, 1, 8, 13, 16} {
		require.Len(t, Bytes(n), n)
	}

	require.NotEqual(t, Bytes(16), Bytes(16))
}
