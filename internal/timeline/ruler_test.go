package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuler_EvenlySpaced(t *testing.T) {
	marks := Ruler(270, DefaultRulerMarks)

	require.Len(t, marks, 10)
	assert.Equal(t, "0:00", marks[0].Label)
	assert.Equal(t, int64(27), marks[1].Seconds)
	assert.Equal(t, "0:27", marks[1].Label)
	assert.Equal(t, "4:03", marks[9].Label)
	assert.InDelta(t, 0.1, marks[1].Fraction, 1e-9)
}

func TestRuler_Neutral(t *testing.T) {
	assert.Empty(t, Ruler(0, 10))
	assert.Empty(t, Ruler(240, 0))
}
