package desim

// gate.go implements Component E, the Gate Graph: typed ports on
// modules and directed connection chains terminating at a sink gate.
// Grounded on the teacher's interface-chain linking (net.go's
// intrfcStruct "Cable" pairing, walked link to link by
// enterEgressIntrfc/enterIngressIntrfc); generalized from the
// teacher's 1:1 wired-interface assumption into named, sized gate
// clusters with an explicit direction tag.
//
// The shortest-path helper reuses gonum's graph/path Dijkstra exactly
// as the teacher's routes.go does for device-to-device routing
// (gonum.org/v1/gonum/graph, graph/simple, graph/path), repurposed
// here from "shortest hop-count between named devices" to "shortest
// latency-weighted path between two modules' gate graphs". It is a
// standalone helper: ResolveTerminus and Route walk the gates'
// next links directly and never consult this graph.

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// Direction tags a gate's traffic direction.
type Direction int

const (
	Input Direction = iota
	Output
	Bidirectional
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "Input"
	case Output:
		return "Output"
	case Bidirectional:
		return "Bidirectional"
	default:
		return "Unknown"
	}
}

func (d Direction) compatibleWith(o Direction) bool {
	if d == Bidirectional && o == Bidirectional {
		return true
	}
	return d == Output && o == Input
}

// GateID names a single gate: owning module, cluster name, index
// within the cluster.
type GateID struct {
	Module ModuleID
	Name   string
	Index  int
}

func (g GateID) String() string {
	return fmt.Sprintf("%d.%s[%d]", g.Module, g.Name, g.Index)
}

type gateRecord struct {
	id        GateID
	size      int // cluster size this gate belongs to
	direction Direction

	next    *GateID // forward link
	prev    *GateID // back link
	channel *Channel
}

// GateGraph owns every gate record and connection for one Kernel.
type GateGraph struct {
	gates map[GateID]*gateRecord
	// edge graph node ids, lazily assigned, for the shortest-path cache
	nodeOf   map[ModuleID]int64
	moduleOf map[int64]ModuleID
	nextNode int64
	dirty    bool
	g        *simple.WeightedUndirectedGraph
}

// NewGateGraph constructs an empty Gate Graph.
func NewGateGraph() *GateGraph {
	return &GateGraph{
		gates:    make(map[GateID]*gateRecord),
		nodeOf:   make(map[ModuleID]int64),
		moduleOf: make(map[int64]ModuleID),
	}
}

// CreateCluster declares a named cluster of size gates on module,
// with a uniform direction. size must be >= 1.
func (gg *GateGraph) CreateCluster(module ModuleID, name string, size int, dir Direction) error {
	if size < 1 {
		return fmt.Errorf("%w: gate cluster %q on module %d must have size >= 1", ErrBuild, name, module)
	}
	for i := 0; i < size; i++ {
		id := GateID{Module: module, Name: name, Index: i}
		if _, dup := gg.gates[id]; dup {
			return fmt.Errorf("%w: duplicate gate %s", ErrBuild, id)
		}
		gg.gates[id] = &gateRecord{id: id, size: size, direction: dir}
	}
	return nil
}

func (gg *GateGraph) get(id GateID) (*gateRecord, error) {
	r, ok := gg.gates[id]
	if !ok {
		return nil, fmt.Errorf("%w: gate %s does not exist", ErrBuild, id)
	}
	return r, nil
}

// Connect appends src -> dst as a forward link, with an optional
// Channel on the edge. Fails with a wrapped ErrBuild ("already
// connected") if src already has a forward link or dst already has a
// back link, on a direction mismatch, or on a cluster-size mismatch.
func (gg *GateGraph) Connect(src, dst GateID, ch *Channel) error {
	s, err := gg.get(src)
	if err != nil {
		return err
	}
	d, err := gg.get(dst)
	if err != nil {
		return err
	}
	if !s.direction.compatibleWith(d.direction) {
		return fmt.Errorf("%w: direction mismatch connecting %s (%s) -> %s (%s)",
			ErrBuild, src, s.direction, dst, d.direction)
	}
	if s.size != d.size {
		return fmt.Errorf("%w: cluster size mismatch connecting %s (size %d) -> %s (size %d)",
			ErrBuild, src, s.size, dst, d.size)
	}
	if s.next != nil {
		return fmt.Errorf("%w: gate %s already has a forward connection", ErrAlreadyConnected, src)
	}
	if d.prev != nil {
		return fmt.Errorf("%w: gate %s already has a back connection", ErrAlreadyConnected, dst)
	}
	dstCopy := dst
	srcCopy := src
	s.next = &dstCopy
	d.prev = &srcCopy
	s.channel = ch
	gg.dirty = true
	return nil
}

// ResolveTerminus walks forward links from gate to the chain's
// terminal gate (the gate with no further forward link).
func (gg *GateGraph) ResolveTerminus(gate GateID) (GateID, error) {
	cur, err := gg.get(gate)
	if err != nil {
		return GateID{}, err
	}
	seen := map[GateID]bool{gate: true}
	for cur.next != nil {
		next := *cur.next
		if seen[next] {
			return GateID{}, fmt.Errorf("%w: cycle detected resolving terminus from %s", ErrBuild, gate)
		}
		seen[next] = true
		cur, err = gg.get(next)
		if err != nil {
			return GateID{}, err
		}
	}
	return cur.id, nil
}

// routeHop is one traversed link: the channel attached (nil for a
// direct, zero-latency hop) and the gate reached.
type routeHop struct {
	channel *Channel
	gate    GateID
}

// walkChain walks the forward chain from gate, collecting each hop.
func (gg *GateGraph) walkChain(gate GateID) ([]routeHop, error) {
	cur, err := gg.get(gate)
	if err != nil {
		return nil, err
	}
	var hops []routeHop
	seen := map[GateID]bool{gate: true}
	for cur.next != nil {
		ch := cur.channel
		next := *cur.next
		if seen[next] {
			return nil, fmt.Errorf("%w: cycle detected routing from %s", ErrBuild, gate)
		}
		seen[next] = true
		hops = append(hops, routeHop{channel: ch, gate: next})
		cur, err = gg.get(next)
		if err != nil {
			return nil, err
		}
	}
	return hops, nil
}

// Route walks the forward chain from outboundGate, applying each
// channel's transmission arithmetic in turn, and reports the final
// arrival time at the chain terminus plus the terminus gate itself.
// If a channel along the path drops the message, Route halts and
// reports the drop; no arrival is produced.
func (gg *GateGraph) Route(outboundGate GateID, msg *Message, now Time) (RouteResult, error) {
	hops, err := gg.walkChain(outboundGate)
	if err != nil {
		return RouteResult{}, err
	}
	if len(hops) == 0 {
		return RouteResult{}, fmt.Errorf("%w: gate %s has no forward connection", ErrRoute, outboundGate)
	}
	last := hops[len(hops)-1]
	if rec, err2 := gg.get(last.gate); err2 == nil && rec.direction == Output {
		return RouteResult{}, fmt.Errorf("%w: chain from %s terminates on an output gate (no sink)", ErrRoute, outboundGate)
	}

	t := now
	for _, hop := range hops {
		if hop.channel == nil {
			continue
		}
		arrival, dropped, err := hop.channel.Offer(msg, t)
		if err != nil {
			return RouteResult{}, err
		}
		if dropped {
			return RouteResult{Dropped: true, Channel: hop.channel}, nil
		}
		t = arrival
	}
	return RouteResult{Terminus: last.gate, Arrival: t}, nil
}

// EffectiveBandwidth walks the forward chain from outboundGate and
// returns the lowest BitrateBps among the channels on it, mirroring
// the teacher's "minimum bandwidth on the path" assumption for a
// multi-hop link (net.go). A chain with no channel at all (every hop
// a direct, zero-latency connection) has no bandwidth ceiling, and
// EffectiveBandwidth returns +Inf.
func (gg *GateGraph) EffectiveBandwidth(outboundGate GateID) (float64, error) {
	hops, err := gg.walkChain(outboundGate)
	if err != nil {
		return 0, err
	}
	best := math.Inf(1)
	for _, hop := range hops {
		if hop.channel == nil {
			continue
		}
		if hop.channel.BitrateBps < best {
			best = hop.channel.BitrateBps
		}
	}
	return best, nil
}

// RouteResult reports the outcome of a Route call.
type RouteResult struct {
	Terminus GateID
	Arrival  Time
	Dropped  bool
	Channel  *Channel
}

// ensureGraph (re)builds the module-level undirected weighted graph
// used by ShortestPath, lazily, only when the connection set has
// changed since the last build.
func (gg *GateGraph) ensureGraph() {
	if !gg.dirty && gg.g != nil {
		return
	}
	gg.g = simple.NewWeightedUndirectedGraph(0, 0)
	gg.nodeOf = make(map[ModuleID]int64)
	gg.moduleOf = make(map[int64]ModuleID)
	gg.nextNode = 0

	nodeFor := func(m ModuleID) int64 {
		if id, ok := gg.nodeOf[m]; ok {
			return id
		}
		id := gg.nextNode
		gg.nextNode++
		gg.nodeOf[m] = id
		gg.moduleOf[id] = m
		gg.g.AddNode(simple.Node(id))
		return id
	}

	for id, rec := range gg.gates {
		if rec.next == nil {
			continue
		}
		dstRec := gg.gates[*rec.next]
		if dstRec == nil {
			continue
		}
		if id.Module == dstRec.id.Module {
			continue
		}
		weight := 1.0
		if rec.channel != nil {
			weight = rec.channel.Latency()
		}
		u, v := nodeFor(id.Module), nodeFor(dstRec.id.Module)
		if u == v {
			continue
		}
		if gg.g.HasEdgeBetween(u, v) {
			continue
		}
		gg.g.SetWeightedEdge(gg.g.NewWeightedEdge(simple.Node(u), simple.Node(v), weight))
	}
	gg.dirty = false
}

// ShortestPath returns the sequence of module ids on the
// latency-weighted shortest path between src and dst, inclusive, using
// Dijkstra over the connection graph. Returns an error if no path
// exists.
func (gg *GateGraph) ShortestPath(src, dst ModuleID) ([]ModuleID, error) {
	gg.ensureGraph()
	u, uok := gg.nodeOf[src]
	v, vok := gg.nodeOf[dst]
	if !uok || !vok {
		return nil, fmt.Errorf("%w: no known gate connections touch module %d or %d", ErrRoute, src, dst)
	}
	shortest := path.DijkstraFrom(simple.Node(u), gg.g)
	nodes, _ := shortest.To(v)
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: no path between module %d and %d", ErrRoute, src, dst)
	}
	out := make([]ModuleID, len(nodes))
	for i, n := range nodes {
		out[i] = gg.moduleOf[n.ID()]
	}
	return out, nil
}

var _ graph.Node = simple.Node(0)
