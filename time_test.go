package desim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime_Add_AdvancesBySeconds(t *testing.T) {
	base := SecondsToTime(10)
	next, err := base.Add(2.5)
	require.NoError(t, err)
	assert.Equal(t, 12.5, next.Seconds())
}

func TestTime_Add_NegativeDelta_Errors(t *testing.T) {
	base := SecondsToTime(10)
	_, err := base.Add(-1)
	assert.Error(t, err)
}

func TestTime_Sub_NegativeResult_Errors(t *testing.T) {
	earlier := SecondsToTime(1)
	later := SecondsToTime(5)
	_, err := earlier.Sub(later)
	assert.Error(t, err)
}

func TestTime_Compare_OrdersCorrectly(t *testing.T) {
	a := SecondsToTime(1)
	b := SecondsToTime(2)
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
}

func TestTime_String_RendersDHMS(t *testing.T) {
	tm := SecondsToTime(90061.5) // 1d 1h 1m 1.5s
	s := tm.String()
	assert.Contains(t, s, "1d")
	assert.Contains(t, s, "1h")
	assert.Contains(t, s, "1m")
}

func TestSecondsToTime_Negative_Panics(t *testing.T) {
	assert.Panics(t, func() { SecondsToTime(-1) })
}
