package congestion

import (
	"time"

	"github.com/larknet/lark/internal/protocol"
)

// ceRingMargin pads the ring above the configured high CE rate so that a
// burst arriving just under the window boundary is not dropped before the
// detector reads it.
const ceRingMargin = 14

// ceRing is a fixed-capacity ring of CE mark timestamps. When full, the
// oldest entry is overwritten; entries older than the sliding window are
// pruned lazily on read.
type ceRing struct {
	buf   []time.Time
	start int
	count int
}

func newCERing(capacity int) *ceRing {
	if capacity < 1 {
		capacity = 1
	}
	return &ceRing{buf: make([]time.Time, capacity)}
}

func (r *ceRing) push(t time.Time) {
	if r.count == len(r.buf) {
		// overwrite the oldest mark
		r.buf[r.start] = t
		r.start = (r.start + 1) % len(r.buf)
		return
	}
	r.buf[(r.start+r.count)%len(r.buf)] = t
	r.count++
}

func (r *ceRing) pruneBefore(cutoff time.Time) {
	for r.count > 0 && r.buf[r.start].Before(cutoff) {
		r.start = (r.start + 1) % len(r.buf)
		r.count--
	}
}

func (r *ceRing) len() int {
	return r.count
}

// metricsTracker maintains the per-flow counters behind the fusion detector
// and the alpha controller. It is owned by exactly one controller and is
// never shared across connections.
type metricsTracker struct {
	clock     Clock
	ecnWindow time.Duration

	ecnEvents *ceRing
	ecnRecent bool

	lastRTT time.Duration
	minRTT  time.Duration

	totalBytesAcked protocol.ByteCount
	connStart       time.Time
	// peakThroughput is in bytes per second.
	peakThroughput float64

	consecutiveGrowth  int
	lastCongestionTime time.Time
}

func newMetricsTracker(clock Clock, config *Config) *metricsTracker {
	windowSeconds := int((config.EcnWindow + time.Second - 1) / time.Second)
	if windowSeconds < 1 {
		windowSeconds = 1
	}
	return &metricsTracker{
		clock:     clock,
		ecnWindow: config.EcnWindow,
		ecnEvents: newCERing(config.EcnRateHigh*windowSeconds + ceRingMargin),
	}
}

// onPktsAcked records an RTT sample and the delivered bytes. Duplicate
// delivery of the same ack is harmless: the counters move but no window
// decision is taken here.
func (t *metricsTracker) onPktsAcked(tcb TCB, segmentsAcked int, rtt time.Duration) {
	now := t.clock.Now()
	if t.connStart.IsZero() {
		t.connStart = now
	}
	if rtt > 0 {
		t.lastRTT = rtt
	}
	if minRTT := tcb.MinRTT(); minRTT > 0 {
		t.minRTT = minRTT
	}
	if segmentsAcked > 0 {
		t.totalBytesAcked += protocol.ByteCount(segmentsAcked) * tcb.SegmentSize()
	}
	t.updatePeak(now)
}

// updatePeak folds the cumulative delivery rate into the peak estimate.
func (t *metricsTracker) updatePeak(now time.Time) {
	if t.connStart.IsZero() || t.totalBytesAcked == 0 {
		return
	}
	elapsed := now.Sub(t.connStart)
	if elapsed <= 0 {
		return
	}
	rate := float64(t.totalBytesAcked) / elapsed.Seconds()
	if rate > t.peakThroughput {
		t.peakThroughput = rate
	}
}

// decayPeak scales the peak estimate down after a congestion event so that
// it tracks the surviving window instead of a stale epoch.
func (t *metricsTracker) decayPeak(retention float64) {
	t.peakThroughput *= retention
}

func (t *metricsTracker) recordCE(now time.Time) {
	t.ecnEvents.push(now)
	t.ecnRecent = true
}

func (t *metricsTracker) clearCE() {
	t.ecnRecent = false
}

// ceCount returns the number of CE marks inside the sliding window.
func (t *metricsTracker) ceCount(now time.Time) int {
	t.ecnEvents.pruneBefore(now.Add(-t.ecnWindow))
	return t.ecnEvents.len()
}

// ceRate returns CE marks per second over the sliding window.
func (t *metricsTracker) ceRate(now time.Time) float64 {
	if t.ecnWindow <= 0 {
		return 0
	}
	return float64(t.ceCount(now)) / t.ecnWindow.Seconds()
}
