package desim

// channel.go implements Component F, the Channel: a
// bitrate/latency/jitter/queue model attached to at most one directed
// link in a gate chain. Arithmetic follows §3 exactly. Grounded on the
// teacher's per-interface service queue (net.go's intrfcQStruct,
// computeServiceTime, enterIntrfcService: "a message is assigned a
// departure slot no earlier than the interface's busy-until time,
// then incurs transit delay").

import (
	"fmt"
)

// JitterDistribution selects how Channel samples jitter.
type JitterDistribution int

const (
	JitterZero JitterDistribution = iota
	JitterUniform
	JitterNormal
)

// ChannelParams are the immutable parameters of a Channel.
type ChannelParams struct {
	BitrateBps   float64 // bits per second
	LatencyS     float64 // seconds, fixed propagation delay
	JitterS      float64 // seconds, jitter bound (meaning depends on Distribution)
	QueueSize    int     // max messages waiting behind the one in service before Offer drops
	Distribution JitterDistribution
}

// Channel serializes transmissions across one directed gate-chain
// link.
type Channel struct {
	ID string
	ChannelParams

	busyUntil    Time
	pending      []Time // departure times of messages still occupying the queue, ascending
	droppedCount uint64
	rng          *rngStreamSource
	lastArrival  Time
	haveArrival  bool
}

// NewChannel constructs a Channel. name seeds its independent RNG
// stream (one named stream per channel, matching the teacher's
// per-device Rngstrm convention).
func NewChannel(name string, params ChannelParams) *Channel {
	return &Channel{
		ID:            name,
		ChannelParams: params,
		rng:           newRngStreamSource(name),
	}
}

// Latency exposes the fixed propagation delay, used by the Gate
// Graph's shortest-path edge weighting.
func (c *Channel) Latency() float64 { return c.LatencyS }

// AvailableAt returns the earliest future time at which a zero-length
// message offered now would clear the channel.
func (c *Channel) AvailableAt(now Time) Time {
	if now.After(c.busyUntil) {
		return now
	}
	return c.busyUntil
}

func (c *Channel) sampleJitter() float64 {
	switch c.Distribution {
	case JitterUniform:
		return uniformJitter(c.rng, c.JitterS)
	case JitterNormal:
		return normalJitter(c.rng, c.JitterS)
	default:
		return 0
	}
}

// Offer presents msg to the channel at time now. On success it
// returns the arrival time at the far end and advances busy_until. If
// queue capacity would be exceeded, it records a drop and returns
// (zero, true, nil). queued_messages (§3) is the count of messages
// still occupying the serialization queue — those whose departure
// (start+transmission time) has not yet elapsed as of now — pruned
// lazily on every Offer, matching the teacher's per-interface queue
// draining its head once a message's service time completes
// (net.go's exitEgressIntrfc) rather than on far-end delivery.
func (c *Channel) Offer(msg *Message, now Time) (Time, bool, error) {
	c.prune(now)
	// the message occupying busy_until is in service, not queued; only
	// messages waiting behind it count against QueueSize (§8 scenario
	// S3: a capacity-2 channel admits the head plus two waiting before
	// it starts dropping, i.e. three successes).
	waiting := len(c.pending)
	if waiting > 0 {
		waiting--
	}
	if len(c.pending) > 0 && waiting >= c.QueueSize {
		c.droppedCount++
		return Time{}, true, nil
	}

	start := c.AvailableAt(now)
	bits := messageSizeBits(msg)
	xmit := bits / c.BitrateBps
	transit := xmit + c.LatencyS + c.sampleJitter()
	if transit < xmit {
		transit = xmit // clamp: arrival >= start + transmission time; sub-clamp jitter collapses to the clamp (§9)
	}
	arrival, err := start.Add(transit)
	if err != nil {
		return Time{}, false, fmt.Errorf("%w: computing arrival: %v", ErrInvariant, err)
	}
	if c.haveArrival && arrival.Before(c.lastArrival) {
		arrival = c.lastArrival // FIFO queue: jitter can't reorder delivery (§8 property 5)
	}
	c.lastArrival = arrival
	c.haveArrival = true

	busy, err := start.Add(xmit)
	if err != nil {
		return Time{}, false, fmt.Errorf("%w: computing busy_until: %v", ErrInvariant, err)
	}
	c.busyUntil = busy
	c.pending = append(c.pending, busy) // busyUntil is non-decreasing across Offers, so pending stays ascending
	return arrival, false, nil
}

// prune drops every pending departure that has already elapsed as of now.
func (c *Channel) prune(now Time) {
	i := 0
	for i < len(c.pending) && !c.pending[i].After(now) {
		i++
	}
	c.pending = c.pending[i:]
}

// DroppedCount reports the number of messages dropped for queue
// overflow so far.
func (c *Channel) DroppedCount() uint64 { return c.droppedCount }

// messageSizeBits derives a message's wire size. Handlers that care
// about channel timing set Content to a value implementing
// SizedContent; everything else is treated as a zero-length control
// message (transit time reduces to latency+jitter only).
type SizedContent interface {
	SizeBits() float64
}

func messageSizeBits(msg *Message) float64 {
	if sc, ok := msg.Content.(SizedContent); ok {
		return sc.SizeBits()
	}
	return 0
}
