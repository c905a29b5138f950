package desim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sizedPayload struct{ bits float64 }

func (p sizedPayload) SizeBits() float64 { return p.bits }

func TestChannel_Offer_ZeroLengthMessage_ArrivalIsStartPlusLatency(t *testing.T) {
	ch := NewChannel("c1", ChannelParams{BitrateBps: 1e6, LatencyS: 2, QueueSize: 10})
	arrival, dropped, err := ch.Offer(&Message{}, SecondsToTime(0))
	require.NoError(t, err)
	require.False(t, dropped)
	assert.Equal(t, 2.0, arrival.Seconds())
}

func TestChannel_Offer_SerializesBackToBackMessages(t *testing.T) {
	ch := NewChannel("c2", ChannelParams{BitrateBps: 8, LatencyS: 0, QueueSize: 10}) // 8 bits/s
	msg := &Message{Content: sizedPayload{bits: 8}}                                 // 1 second transmission time

	a1, dropped, err := ch.Offer(msg, SecondsToTime(0))
	require.NoError(t, err)
	require.False(t, dropped)
	assert.Equal(t, 1.0, a1.Seconds())

	// offered at t=0.5, but the channel is busy until t=1
	a2, dropped, err := ch.Offer(msg, SecondsToTime(0.5))
	require.NoError(t, err)
	require.False(t, dropped)
	assert.Equal(t, 2.0, a2.Seconds())
}

// TestChannel_Offer_NonOvertake covers property 5: arrivals for
// successive offered messages on one channel never regress.
func TestChannel_Offer_NonOvertake(t *testing.T) {
	ch := NewChannel("c3", ChannelParams{BitrateBps: 100, LatencyS: 0.1, QueueSize: 1000,
		Distribution: JitterUniform, JitterS: 0.05})
	msg := &Message{Content: sizedPayload{bits: 10}}

	var prevArrival Time
	have := false
	for i := 0; i < 50; i++ {
		offerTime := SecondsToTime(float64(i) * 0.05)
		arrival, dropped, err := ch.Offer(msg, offerTime)
		require.NoError(t, err)
		require.False(t, dropped)
		if have {
			assert.False(t, arrival.Before(prevArrival), "arrival must not precede the previous arrival")
		}
		prevArrival = arrival
		have = true
	}
}

func TestChannel_Offer_QueueOverflow_Drops(t *testing.T) {
	// QueueSize=0: no waiting room behind the message in service, so any
	// offer that arrives while the channel is busy drops immediately.
	ch := NewChannel("c4", ChannelParams{BitrateBps: 1, LatencyS: 0, QueueSize: 0})
	msg := &Message{Content: sizedPayload{bits: 10}} // 10s transmission time

	_, dropped, err := ch.Offer(msg, SecondsToTime(0))
	require.NoError(t, err)
	require.False(t, dropped)

	// second offer arrives while the first is still in service
	_, dropped, err = ch.Offer(msg, SecondsToTime(1))
	require.NoError(t, err)
	assert.True(t, dropped)
	assert.Equal(t, uint64(1), ch.DroppedCount())
}

// TestChannel_Offer_QueueCapacityExcludesHeadInService covers S3: a
// capacity-2 channel admits the message in service plus two waiting
// behind it (three successes) before it starts dropping.
func TestChannel_Offer_QueueCapacityExcludesHeadInService(t *testing.T) {
	ch := NewChannel("c7", ChannelParams{BitrateBps: 1, LatencyS: 0, QueueSize: 2})
	msg := &Message{Content: sizedPayload{bits: 1}} // 1s transmission time

	successes, drops := 0, 0
	for i := 0; i < 5; i++ {
		_, dropped, err := ch.Offer(msg, SecondsToTime(0))
		require.NoError(t, err)
		if dropped {
			drops++
		} else {
			successes++
		}
	}
	assert.Equal(t, 3, successes)
	assert.Equal(t, 2, drops)
	assert.Equal(t, uint64(2), ch.DroppedCount())
}

func TestChannel_Offer_QueueDrainsAfterDeparture(t *testing.T) {
	ch := NewChannel("c5", ChannelParams{BitrateBps: 1, LatencyS: 0, QueueSize: 1})
	msg := &Message{Content: sizedPayload{bits: 1}} // 1s transmission time

	_, dropped, err := ch.Offer(msg, SecondsToTime(0))
	require.NoError(t, err)
	require.False(t, dropped)

	// offered after the first message's departure (busy_until=1): queue
	// slot has freed, so this one is admitted rather than dropped.
	_, dropped, err = ch.Offer(msg, SecondsToTime(2))
	require.NoError(t, err)
	assert.False(t, dropped)
}

func TestChannel_Offer_NoContentIsZeroLength(t *testing.T) {
	ch := NewChannel("c6", ChannelParams{BitrateBps: 1, LatencyS: 3, QueueSize: 10})
	arrival, dropped, err := ch.Offer(&Message{}, SecondsToTime(0))
	require.NoError(t, err)
	require.False(t, dropped)
	assert.Equal(t, 3.0, arrival.Seconds())
}
