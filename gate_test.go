package desim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateGraph_Connect_DirectionMismatch_Errors(t *testing.T) {
	gg := NewGateGraph()
	require.NoError(t, gg.CreateCluster(1, "out", 1, Output))
	require.NoError(t, gg.CreateCluster(2, "out2", 1, Output))

	src := GateID{Module: 1, Name: "out", Index: 0}
	dst := GateID{Module: 2, Name: "out2", Index: 0}
	err := gg.Connect(src, dst, nil)
	assert.ErrorIs(t, err, ErrBuild)
}

func TestGateGraph_Connect_ClusterSizeMismatch_Errors(t *testing.T) {
	gg := NewGateGraph()
	require.NoError(t, gg.CreateCluster(1, "out", 2, Output))
	require.NoError(t, gg.CreateCluster(2, "in", 1, Input))

	src := GateID{Module: 1, Name: "out", Index: 0}
	dst := GateID{Module: 2, Name: "in", Index: 0}
	err := gg.Connect(src, dst, nil)
	assert.ErrorIs(t, err, ErrBuild)
}

func TestGateGraph_Connect_AlreadyConnected_Errors(t *testing.T) {
	gg := NewGateGraph()
	require.NoError(t, gg.CreateCluster(1, "out", 1, Output))
	require.NoError(t, gg.CreateCluster(2, "in", 1, Input))
	require.NoError(t, gg.CreateCluster(3, "in2", 1, Input))

	src := GateID{Module: 1, Name: "out", Index: 0}
	dst := GateID{Module: 2, Name: "in", Index: 0}
	dst2 := GateID{Module: 3, Name: "in2", Index: 0}
	require.NoError(t, gg.Connect(src, dst, nil))

	err := gg.Connect(src, dst2, nil)
	assert.ErrorIs(t, err, ErrAlreadyConnected)
}

func TestGateGraph_ResolveTerminus_StopsAtGateWithoutForwardLink(t *testing.T) {
	gg := NewGateGraph()
	require.NoError(t, gg.CreateCluster(1, "out", 1, Bidirectional))
	require.NoError(t, gg.CreateCluster(2, "fwd", 1, Bidirectional))
	require.NoError(t, gg.CreateCluster(2, "fwd2", 1, Bidirectional))
	require.NoError(t, gg.CreateCluster(3, "in", 1, Bidirectional))

	a := GateID{Module: 1, Name: "out", Index: 0}
	mid1 := GateID{Module: 2, Name: "fwd", Index: 0}
	mid2 := GateID{Module: 2, Name: "fwd2", Index: 0}
	sink := GateID{Module: 3, Name: "in", Index: 0}

	require.NoError(t, gg.Connect(a, mid1, nil))
	require.NoError(t, gg.Connect(mid2, sink, nil))

	terminus, err := gg.ResolveTerminus(a)
	require.NoError(t, err)
	assert.Equal(t, mid1, terminus) // chain from 'a' only reaches mid1; mid2->sink is a separate forward link
}

func TestGateGraph_Route_SingleHop_NoChannel_ZeroLatency(t *testing.T) {
	gg := NewGateGraph()
	require.NoError(t, gg.CreateCluster(1, "out", 1, Output))
	require.NoError(t, gg.CreateCluster(2, "in", 1, Input))
	src := GateID{Module: 1, Name: "out", Index: 0}
	dst := GateID{Module: 2, Name: "in", Index: 0}
	require.NoError(t, gg.Connect(src, dst, nil))

	now := SecondsToTime(5)
	result, err := gg.Route(src, &Message{}, now)
	require.NoError(t, err)
	assert.Equal(t, dst, result.Terminus)
	assert.True(t, result.Arrival.Equal(now))
}

func TestGateGraph_Route_Unconnected_Errors(t *testing.T) {
	gg := NewGateGraph()
	require.NoError(t, gg.CreateCluster(1, "out", 1, Output))
	_, err := gg.Route(GateID{Module: 1, Name: "out", Index: 0}, &Message{}, SecondsToTime(0))
	assert.ErrorIs(t, err, ErrRoute)
}

func TestGateGraph_EffectiveBandwidth_IsMinimumAcrossHops(t *testing.T) {
	gg := NewGateGraph()
	require.NoError(t, gg.CreateCluster(1, "out", 1, Bidirectional))
	require.NoError(t, gg.CreateCluster(2, "mid", 1, Bidirectional))
	require.NoError(t, gg.CreateCluster(3, "in", 1, Bidirectional))

	fast := NewChannel("fast", ChannelParams{BitrateBps: 1e9, LatencyS: 0})
	slow := NewChannel("slow", ChannelParams{BitrateBps: 1e6, LatencyS: 0})

	src := GateID{Module: 1, Name: "out", Index: 0}
	mid := GateID{Module: 2, Name: "mid", Index: 0}
	dst := GateID{Module: 3, Name: "in", Index: 0}
	require.NoError(t, gg.Connect(src, mid, fast))
	require.NoError(t, gg.Connect(mid, dst, slow))

	bw, err := gg.EffectiveBandwidth(src)
	require.NoError(t, err)
	assert.Equal(t, 1e6, bw)
}

func TestGateGraph_EffectiveBandwidth_NoChannelIsUnbounded(t *testing.T) {
	gg := NewGateGraph()
	require.NoError(t, gg.CreateCluster(1, "out", 1, Output))
	require.NoError(t, gg.CreateCluster(2, "in", 1, Input))
	src := GateID{Module: 1, Name: "out", Index: 0}
	dst := GateID{Module: 2, Name: "in", Index: 0}
	require.NoError(t, gg.Connect(src, dst, nil))

	bw, err := gg.EffectiveBandwidth(src)
	require.NoError(t, err)
	assert.True(t, math.IsInf(bw, 1))
}

func TestGateGraph_ShortestPath_PrefersLowerLatencyRoute(t *testing.T) {
	gg := NewGateGraph()
	require.NoError(t, gg.CreateCluster(1, "a", 1, Bidirectional))
	require.NoError(t, gg.CreateCluster(2, "b", 1, Bidirectional))
	require.NoError(t, gg.CreateCluster(2, "c", 1, Bidirectional))
	require.NoError(t, gg.CreateCluster(3, "d", 1, Bidirectional))
	require.NoError(t, gg.CreateCluster(1, "e", 1, Bidirectional))
	require.NoError(t, gg.CreateCluster(3, "f", 1, Bidirectional))

	direct := NewChannel("1-3-direct", ChannelParams{BitrateBps: 1e9, LatencyS: 10})
	viaHop := NewChannel("1-2", ChannelParams{BitrateBps: 1e9, LatencyS: 1})

	require.NoError(t, gg.Connect(GateID{Module: 1, Name: "e"}, GateID{Module: 3, Name: "f"}, direct))
	require.NoError(t, gg.Connect(GateID{Module: 1, Name: "a"}, GateID{Module: 2, Name: "b"}, viaHop))
	require.NoError(t, gg.Connect(GateID{Module: 2, Name: "c"}, GateID{Module: 3, Name: "d"}, viaHop))

	path, err := gg.ShortestPath(1, 3)
	require.NoError(t, err)
	assert.Equal(t, []ModuleID{1, 2, 3}, path)
}
