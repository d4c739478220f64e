package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	t.Parallel()

	require.Equal(t, 20, Clamp(5, 20, 400))
	require.Equal(t, 400, Clamp(1000, 20, 400))
	require.Equal(t, 120, Clamp(120, 20, 400))

	// swapped bounds still clamp into the same range
	require.Equal(t, 20, Clamp(5, 400, 20))
}
