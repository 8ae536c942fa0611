package congestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/larknet/lark/internal/protocol"
	"github.com/larknet/lark/logging"
)

const testMSS = protocol.ByteCount(1448)

type mockClock time.Time

func (c *mockClock) Now() time.Time {
	return time.Time(*c)
}

func (c *mockClock) Advance(d time.Duration) {
	*c = mockClock(time.Time(*c).Add(d))
}

func newMockClock() *mockClock {
	c := mockClock(time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC))
	return &c
}

// fakeTCB is a scriptable transport control block.
type fakeTCB struct {
	cwnd          protocol.ByteCount
	ssthresh      protocol.ByteCount
	segmentSize   protocol.ByteCount
	bytesInFlight protocol.ByteCount
	lastRTT       time.Duration
	minRTT        time.Duration
	caState       CaState
	caEvent       CaEvent
	ecnState      EcnState
}

var _ TCB = &fakeTCB{}

func newFakeTCB() *fakeTCB {
	return &fakeTCB{
		cwnd:        10 * testMSS,
		ssthresh:    protocol.MaxByteCount,
		segmentSize: testMSS,
	}
}

func (f *fakeTCB) Cwnd() protocol.ByteCount          { return f.cwnd }
func (f *fakeTCB) SetCwnd(c protocol.ByteCount)      { f.cwnd = c }
func (f *fakeTCB) SsThresh() protocol.ByteCount      { return f.ssthresh }
func (f *fakeTCB) SegmentSize() protocol.ByteCount   { return f.segmentSize }
func (f *fakeTCB) BytesInFlight() protocol.ByteCount { return f.bytesInFlight }
func (f *fakeTCB) LastRTT() time.Duration            { return f.lastRTT }
func (f *fakeTCB) MinRTT() time.Duration             { return f.minRTT }
func (f *fakeTCB) CaState() CaState                  { return f.caState }
func (f *fakeTCB) CaEvent() CaEvent                  { return f.caEvent }
func (f *fakeTCB) EcnState() EcnState                { return f.ecnState }

type testLarkSender struct {
	sender *larkSender
	clock  *mockClock
	tcb    *fakeTCB
}

func newTestLarkSender(t *testing.T) *testLarkSender {
	t.Helper()
	clock := newMockClock()
	sender, err := NewLarkSender(clock, nil, nil)
	require.NoError(t, err)
	return &testLarkSender{
		sender: sender,
		clock:  clock,
		tcb:    newFakeTCB(),
	}
}

// ackAndGrow delivers one RTT sample and the matching increase opportunity.
func (s *testLarkSender) ackAndGrow(segmentsAcked int, rtt time.Duration) {
	s.tcb.lastRTT = rtt
	s.sender.PktsAcked(s.tcb, segmentsAcked, rtt)
	s.sender.IncreaseWindow(s.tcb, segmentsAcked)
}

// markCE delivers n CE events spaced evenly over the given span.
func (s *testLarkSender) markCE(n int, span time.Duration) {
	for i := 0; i < n; i++ {
		s.sender.CwndEvent(s.tcb, CaEventEcnIsCe)
		if n > 1 {
			s.clock.Advance(span / time.Duration(n))
		}
	}
}

func TestLarkCleanSlowStart(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.minRTT = 100 * time.Microsecond
	s.tcb.caState = CaOpen

	for i := 0; i < 10; i++ {
		s.ackAndGrow(1, 100*time.Microsecond)
		s.clock.Advance(100 * time.Microsecond)
	}

	// Growth factor is 2 per acked segment for the first three clean acks,
	// then 3 once the streak is established: 10 + 3*2 + 7*3 = 37 segments.
	require.Equal(t, 37*testMSS, s.tcb.cwnd)
	require.Equal(t, 10, s.sender.ConsecutiveGrowth())

	// Open state, flat RTT and the growth bonus all push alpha up until it
	// saturates at the upper clamp.
	require.Equal(t, 1.50, s.sender.Alpha())
}

func TestLarkSingleLoss(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.cwnd = 80 * testMSS
	s.tcb.bytesInFlight = 80 * testMSS
	s.tcb.caState = CaRecovery
	s.tcb.ecnState = EcnDisabled
	s.sender.tracker.consecutiveGrowth = 5

	ssthresh := s.sender.GetSsThresh(s.tcb, 80*testMSS)

	require.Equal(t, 56*testMSS, ssthresh)
	require.Equal(t, 56*testMSS, s.tcb.cwnd)
	require.Zero(t, s.sender.ConsecutiveGrowth())
}

func TestLarkEcnBurst(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.cwnd = 50 * testMSS
	s.tcb.bytesInFlight = 50 * testMSS
	s.tcb.caState = CaCwr
	s.tcb.ecnState = EcnCeRcvd

	s.markCE(40, 500*time.Millisecond)
	ssthresh := s.sender.GetSsThresh(s.tcb, 50*testMSS)

	// 40 CE marks inside the window outrank the explicit-loss rule and cut
	// the window only mildly.
	require.Equal(t, 46*testMSS, ssthresh)
	require.Equal(t, 46*testMSS, s.tcb.cwnd)
}

func TestLarkSingleEcnMarkSuppressed(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.caState = CaOpen

	s.sender.CwndEvent(s.tcb, CaEventEcnIsCe)
	s.clock.Advance(time.Second)

	before := s.tcb.cwnd
	s.sender.IncreaseWindow(s.tcb, 4)

	// No congestion response from one mark: the window keeps growing and
	// only alpha feels the recent CE.
	require.Greater(t, s.tcb.cwnd, before)
	require.Equal(t, 1, s.sender.ConsecutiveGrowth())
	require.InDelta(t, 1.23, s.sender.Alpha(), 1e-9) // +0.01 Open, -0.03 recent CE
}

func TestLarkRTTInflation(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.minRTT = 100 * time.Microsecond
	s.tcb.ssthresh = 5 * testMSS // congestion avoidance
	s.tcb.caState = CaOpen

	before := s.tcb.cwnd
	s.ackAndGrow(1, 400*time.Microsecond)

	// rho = 4: the RTT term bites, the Open bonus softens it.
	require.InDelta(t, 1.21, s.sender.Alpha(), 1e-9)
	require.Greater(t, s.tcb.cwnd, before)
}

func TestLarkTimeout(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.cwnd = 40 * testMSS
	s.tcb.bytesInFlight = 40 * testMSS
	s.tcb.caState = CaLoss

	ssthresh := s.sender.GetSsThresh(s.tcb, 40*testMSS)
	require.Equal(t, 30*testMSS, ssthresh)
	require.Equal(t, 30*testMSS, s.tcb.cwnd)

	// An increase opportunity while still in Loss keeps pushing alpha down.
	before := s.sender.Alpha()
	s.sender.IncreaseWindow(s.tcb, 1)
	require.LessOrEqual(t, s.sender.Alpha(), before-0.10+0.02+1e-9)
}

func TestLarkZeroBytesInFlightOnSsThresh(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.cwnd = 20 * testMSS

	ssthresh := s.sender.GetSsThresh(s.tcb, 0)
	require.Equal(t, 14*testMSS, ssthresh) // floor(0.70 * 20)
}

func TestLarkSsThreshNeverBelowTwoSegments(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.cwnd = testMSS
	s.tcb.bytesInFlight = 0

	ssthresh := s.sender.GetSsThresh(s.tcb, 0)
	require.Equal(t, 2*testMSS, ssthresh)
	require.Equal(t, 4*testMSS, s.tcb.cwnd) // cwnd floor is 4 segments
}

func TestLarkLossStrictlyDecreasesWindow(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.cwnd = 64 * testMSS
	s.tcb.bytesInFlight = 64 * testMSS

	s.sender.GetSsThresh(s.tcb, 64*testMSS)
	require.Less(t, s.tcb.cwnd, 64*testMSS)
}

func TestLarkEcnBurstCutsAtMostEightPercent(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.cwnd = 200 * testMSS
	s.tcb.bytesInFlight = 200 * testMSS

	s.markCE(40, 200*time.Millisecond)
	s.sender.GetSsThresh(s.tcb, 200*testMSS)

	require.GreaterOrEqual(t, float64(s.tcb.cwnd), 0.92*float64(200*testMSS))
	require.Less(t, s.tcb.cwnd, 200*testMSS)
}

func TestLarkCleanRunIsNonDecreasing(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.minRTT = 200 * time.Microsecond
	s.tcb.caState = CaOpen
	s.tcb.ssthresh = 20 * testMSS

	prev := s.tcb.cwnd
	for i := 0; i < 50; i++ {
		s.ackAndGrow(2, 200*time.Microsecond)
		s.clock.Advance(200 * time.Microsecond)
		require.GreaterOrEqual(t, s.tcb.cwnd, prev)
		prev = s.tcb.cwnd
	}
}

func TestLarkAlphaStaysInBounds(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.minRTT = 100 * time.Microsecond

	// Push down: timeouts plus a dense CE stream.
	s.tcb.caState = CaLoss
	for i := 0; i < 20; i++ {
		s.markCE(10, 10*time.Millisecond)
		s.ackAndGrow(1, 500*time.Microsecond)
	}
	require.GreaterOrEqual(t, s.sender.Alpha(), 1.10)

	// Push up: long clean run.
	s.tcb.caState = CaOpen
	s.sender.CwndEvent(s.tcb, CaEventEcnNoCe)
	s.clock.Advance(2 * time.Second)
	for i := 0; i < 40; i++ {
		s.ackAndGrow(1, 100*time.Microsecond)
		s.clock.Advance(time.Millisecond)
	}
	require.LessOrEqual(t, s.sender.Alpha(), 1.50)
}

func TestLarkCwndClampBounds(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.caState = CaOpen

	for i := 0; i < 100; i++ {
		s.ackAndGrow(4, 100*time.Microsecond)
		s.clock.Advance(100 * time.Microsecond)
		require.GreaterOrEqual(t, s.tcb.cwnd, 4*testMSS)
		bdp := s.sender.estimateBDP(s.tcb)
		require.LessOrEqual(t, s.tcb.cwnd, max(scaleCount(bdp, 8), 100*testMSS))
	}
}

func TestLarkNilTCBIsSafe(t *testing.T) {
	s := newTestLarkSender(t)

	require.NotPanics(t, func() {
		s.sender.PktsAcked(nil, 1, time.Millisecond)
		s.sender.IncreaseWindow(nil, 1)
		s.sender.CongestionStateSet(nil, CaLoss)
		s.sender.CwndEvent(nil, CaEventEcnIsCe)
	})

	// Before any decision, a nil-tcb GetSsThresh preserves the window by
	// returning no reduction.
	require.Equal(t, protocol.MaxByteCount, s.sender.GetSsThresh(nil, 0))

	// After a real decision it repeats the last threshold.
	s.tcb.cwnd = 40 * testMSS
	want := s.sender.GetSsThresh(s.tcb, 40*testMSS)
	require.Equal(t, want, s.sender.GetSsThresh(nil, 0))
}

func TestLarkPktsAckedDuplicateDelivery(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.minRTT = 100 * time.Microsecond

	s.sender.PktsAcked(s.tcb, 2, 150*time.Microsecond)
	cwnd := s.tcb.cwnd
	rtt := s.sender.tracker.lastRTT

	s.sender.PktsAcked(s.tcb, 2, 150*time.Microsecond)
	require.Equal(t, cwnd, s.tcb.cwnd)
	require.Equal(t, rtt, s.sender.tracker.lastRTT)
}

func TestLarkForkCarriesAlpha(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.caState = CaOpen
	for i := 0; i < 5; i++ {
		s.ackAndGrow(1, 100*time.Microsecond)
	}
	s.sender.CwndEvent(s.tcb, CaEventEcnIsCe)

	clone := s.sender.Fork().(*larkSender)
	require.Equal(t, s.sender.Alpha(), clone.Alpha())
	require.NotEqual(t, s.sender.UUID(), clone.UUID())
	// metrics start fresh
	require.Zero(t, clone.tracker.totalBytesAcked)
	require.Zero(t, clone.tracker.ceCount(s.clock.Now()))
	require.Zero(t, clone.ConsecutiveGrowth())
}

func TestLarkDebugAccessors(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.caState = CaOpen
	s.tcb.minRTT = 100 * time.Microsecond

	// Before any decision: slow start, no recovery, no window written yet.
	require.True(t, s.sender.InSlowStart())
	require.False(t, s.sender.InRecovery())
	require.Zero(t, s.sender.GetCongestionWindow())

	s.ackAndGrow(1, 100*time.Microsecond)
	require.True(t, s.sender.InSlowStart())
	require.False(t, s.sender.InRecovery())
	require.Equal(t, s.tcb.cwnd, s.sender.GetCongestionWindow())

	// A congestion event exits slow start and enters recovery.
	s.tcb.bytesInFlight = s.tcb.cwnd
	s.sender.GetSsThresh(s.tcb, s.tcb.bytesInFlight)
	require.False(t, s.sender.InSlowStart())
	require.True(t, s.sender.InRecovery())
	require.Equal(t, s.tcb.cwnd, s.sender.GetCongestionWindow())

	// The next clean increase leaves recovery.
	s.ackAndGrow(1, 100*time.Microsecond)
	require.False(t, s.sender.InRecovery())
}

func TestLarkName(t *testing.T) {
	s := newTestLarkSender(t)
	require.Equal(t, "Lark", s.sender.Name())
}

func TestLarkUUIDsAreUnique(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := 0; i < 100; i++ {
		sender, err := NewLarkSender(newMockClock(), nil, nil)
		require.NoError(t, err)
		require.False(t, seen[sender.UUID()])
		seen[sender.UUID()] = true
	}
}

func TestLarkBDPFallsBackToCwnd(t *testing.T) {
	s := newTestLarkSender(t)
	require.Equal(t, s.tcb.cwnd, s.sender.estimateBDP(s.tcb))
}

func TestLarkBDPUsesLastRTTWhenMinUnknown(t *testing.T) {
	s := newTestLarkSender(t)
	s.sender.tracker.lastRTT = 200 * time.Microsecond

	// min unknown: effective min is the last RTT, so the estimate collapses
	// to cwnd/lastRTT * lastRTT = cwnd (peak still zero).
	require.Equal(t, s.tcb.cwnd, s.sender.estimateBDP(s.tcb))
}

func TestLarkZeroSegmentsAckedStillCreepsInAvoidance(t *testing.T) {
	s := newTestLarkSender(t)
	s.tcb.ssthresh = 5 * testMSS // force congestion avoidance
	s.tcb.minRTT = 100 * time.Microsecond
	s.sender.tracker.lastRTT = 100 * time.Microsecond

	before := s.tcb.cwnd
	s.sender.IncreaseWindow(s.tcb, 0)

	// gamma floors at 1, so even a zero-segment opportunity adds one MSS
	// on top of the alpha*BDP floor (the BDP here is the old cwnd).
	require.Equal(t, scaleCount(before, s.sender.Alpha())+testMSS, s.tcb.cwnd)
}

func TestLarkExternalPolicyAppliesAgentWindows(t *testing.T) {
	clock := newMockClock()
	policy := &ExternalPolicy{}
	sender, err := NewExternalLarkSender(clock, nil, policy, nil)
	require.NoError(t, err)
	tcb := newFakeTCB()
	tcb.ssthresh = 50 * testMSS

	// Before any agent decision both paths keep current values.
	sender.IncreaseWindow(tcb, 1)
	require.Equal(t, 10*testMSS, tcb.cwnd)
	require.Equal(t, 50*testMSS, sender.GetSsThresh(tcb, 10*testMSS))

	policy.SetWindows(64*testMSS, 32*testMSS)
	sender.IncreaseWindow(tcb, 1)
	require.Equal(t, 64*testMSS, tcb.cwnd)

	require.Equal(t, 32*testMSS, sender.GetSsThresh(tcb, 0))
	require.Equal(t, 32*testMSS, tcb.cwnd)
}

func TestLarkCongestionStateSetIsIdempotent(t *testing.T) {
	var transitions int
	s := newTestLarkSender(t)
	s.sender.tracer = testTracerCountingStates(&transitions)

	s.sender.CongestionStateSet(s.tcb, CaOpen)
	s.sender.CongestionStateSet(s.tcb, CaOpen)
	require.Equal(t, 1, transitions)

	s.sender.CongestionStateSet(s.tcb, CaRecovery)
	require.Equal(t, 2, transitions)
}

func testTracerCountingStates(count *int) *logging.ConnectionTracer {
	return &logging.ConnectionTracer{
		UpdatedCongestionState: func(logging.CongestionState) { *count++ },
	}
}
