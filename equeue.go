package desim

// equeue.go implements Component B, the Calendar Queue: a priority
// queue over (ScheduledTime, SequenceID) events. Canonical structure
// per spec §4.B is a bucketed calendar queue with adaptive bucket
// width for O(1) amortized push/pop; a binary heap is spec-sanctioned
// as an acceptable fallback, so bucket contents are themselves kept in
// insertion-sorted small slices rather than a second heap layer. The
// bucket width stays fixed at one second; only the bucket count adapts,
// doubling or halving with occupancy. At that width, buckets rarely hold more
// than a handful of events, and the common case of one-at-a-time
// insertion into a near-empty bucket is cheaper as an insertion sort
// than as a heap push. No third-party priority-queue/calendar-queue
// library appears anywhere in the retrieval pack; see DESIGN.md.

import (
	"sort"
)

const (
	initialBuckets  = 16
	resizeThreshold = 2.0 // resize when avg bucket occupancy exceeds this
)

// CalendarQueue is a priority queue over Events, ordered by
// (ScheduledTime, SequenceID). It is not safe for concurrent use: the
// kernel is single-threaded per §5.
type CalendarQueue struct {
	buckets    [][]*Event
	nBuckets   int
	width      float64 // seconds per bucket
	lastT      Time    // time of last pop, for bucket indexing continuity
	n          int     // total queued events
	nextSeq    uint64
	resolution float64 // set to 1.0 at construction; not read or updated afterwards
}

// NewCalendarQueue constructs an empty queue.
func NewCalendarQueue() *CalendarQueue {
	cq := &CalendarQueue{
		nBuckets:   initialBuckets,
		width:      1.0,
		resolution: 1.0,
	}
	cq.buckets = make([][]*Event, cq.nBuckets)
	return cq
}

func (cq *CalendarQueue) bucketIndex(t Time) int {
	if cq.width <= 0 {
		return 0
	}
	idx := int(t.Seconds()/cq.width) % cq.nBuckets
	if idx < 0 {
		idx += cq.nBuckets
	}
	return idx
}

// Push assigns the next sequence id to ev and inserts it, returning
// the assigned id.
func (cq *CalendarQueue) Push(ev *Event) uint64 {
	cq.nextSeq++
	ev.SequenceID = cq.nextSeq
	cq.insert(ev)
	return ev.SequenceID
}

func (cq *CalendarQueue) insert(ev *Event) {
	if cq.n > 0 && cq.n+1 > cq.nBuckets*int(resizeThreshold) {
		cq.resize(cq.nBuckets * 2)
	}
	idx := cq.bucketIndex(ev.ScheduledTime)
	b := cq.buckets[idx]
	pos := sort.Search(len(b), func(i int) bool { return !b[i].Less(ev) })
	b = append(b, nil)
	copy(b[pos+1:], b[pos:])
	b[pos] = ev
	cq.buckets[idx] = b
	cq.n++
}

func (cq *CalendarQueue) resize(newN int) {
	if newN < initialBuckets {
		newN = initialBuckets
	}
	all := make([]*Event, 0, cq.n)
	for _, b := range cq.buckets {
		all = append(all, b...)
	}
	cq.nBuckets = newN
	cq.buckets = make([][]*Event, newN)
	for _, ev := range all {
		idx := cq.bucketIndex(ev.ScheduledTime)
		cq.buckets[idx] = append(cq.buckets[idx], ev)
	}
	for i, b := range cq.buckets {
		sort.Slice(b, func(x, y int) bool { return b[x].Less(b[y]) })
		cq.buckets[i] = b
	}
}

// PopMin removes and returns the minimum event, or (nil, false) if the
// queue is empty.
func (cq *CalendarQueue) PopMin() (*Event, bool) {
	if cq.n == 0 {
		return nil, false
	}
	var minEv *Event
	minBucket := -1
	minSlot := -1
	// scan buckets starting from the last popped time's bucket for
	// locality, wrapping once around.
	start := cq.bucketIndex(cq.lastT)
	for i := 0; i < cq.nBuckets; i++ {
		idx := (start + i) % cq.nBuckets
		b := cq.buckets[idx]
		if len(b) == 0 {
			continue
		}
		if minEv == nil || b[0].Less(minEv) {
			minEv = b[0]
			minBucket = idx
			minSlot = 0
		}
	}
	if minEv == nil {
		return nil, false
	}
	b := cq.buckets[minBucket]
	cq.buckets[minBucket] = append(b[:minSlot], b[minSlot+1:]...)
	cq.n--
	cq.lastT = minEv.ScheduledTime
	if cq.n > 0 && cq.n*4 < cq.nBuckets && cq.nBuckets > initialBuckets {
		cq.resize(cq.nBuckets / 2)
	}
	return minEv, true
}

// PeekMinTime returns the scheduled time of the minimum event without
// removing it.
func (cq *CalendarQueue) PeekMinTime() (Time, bool) {
	if cq.n == 0 {
		return Time{}, false
	}
	var minEv *Event
	for _, b := range cq.buckets {
		if len(b) == 0 {
			continue
		}
		if minEv == nil || b[0].Less(minEv) {
			minEv = b[0]
		}
	}
	return minEv.ScheduledTime, true
}

// Len reports the number of queued events.
func (cq *CalendarQueue) Len() int { return cq.n }

// Cancel removes every event matching predicate, returning the count
// removed. Used for module subtree teardown.
func (cq *CalendarQueue) Cancel(predicate func(*Event) bool) int {
	removed := 0
	for i, b := range cq.buckets {
		kept := b[:0]
		for _, ev := range b {
			if predicate(ev) {
				removed++
				continue
			}
			kept = append(kept, ev)
		}
		cq.buckets[i] = kept
	}
	cq.n -= removed
	return removed
}
