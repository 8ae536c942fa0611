package congestion

import (
	"sync/atomic"
	"time"

	"github.com/larknet/lark/internal/protocol"
	"github.com/larknet/lark/logging"
)

// connUUID mints per-connection identifiers. It is the only process-wide
// mutable state; everything else is owned by a single connection.
var connUUID atomic.Uint64

// larkSender is one connection's Lark controller. The host transport holds
// the sole reference and drives it synchronously, so no locking is needed.
type larkSender struct {
	config *Config
	clock  Clock
	tracer *logging.ConnectionTracer

	uuid    uint64
	tracker *metricsTracker
	fusion  *fusionDetector
	alpha   *alphaController
	policy  windowPolicy

	callingContext CallingContext
	lastCwnd       protocol.ByteCount
	lastSsThresh   protocol.ByteCount
	lastState      CaState
	haveState      bool
	inRecovery     bool
}

var _ CongestionControl = &larkSender{}

// NewLarkSender creates a rule-based Lark controller. A nil config selects
// the deployment defaults; a nil clock selects the wall clock.
func NewLarkSender(clock Clock, config *Config, tracer *logging.ConnectionTracer) (*larkSender, error) {
	return newLarkSender(clock, config, rulePolicy{}, tracer)
}

// NewExternalLarkSender creates a Lark controller whose window decisions
// come from an external agent through the given policy. Observation
// assembly and metrics tracking are unchanged.
func NewExternalLarkSender(clock Clock, config *Config, policy *ExternalPolicy, tracer *logging.ConnectionTracer) (*larkSender, error) {
	return newLarkSender(clock, config, policy, tracer)
}

func newLarkSender(clock Clock, config *Config, policy windowPolicy, tracer *logging.ConnectionTracer) (*larkSender, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	config = populateConfig(config)
	if clock == nil {
		clock = DefaultClock{}
	}
	tracker := newMetricsTracker(clock, config)
	l := &larkSender{
		config:       config,
		clock:        clock,
		tracer:       tracer,
		uuid:         connUUID.Add(1),
		tracker:      tracker,
		fusion:       &fusionDetector{config: config, tracker: tracker},
		alpha:        newAlphaController(config),
		policy:       policy,
		lastSsThresh: protocol.MaxByteCount,
	}
	return l, nil
}

// GetSsThresh runs the congestion-event path: classify the event, cut the
// window by the verdict's retention factor and return the new threshold.
func (l *larkSender) GetSsThresh(tcb TCB, bytesInFlight protocol.ByteCount) protocol.ByteCount {
	if tcb == nil {
		l.traceViolation("GetSsThresh")
		return l.lastSsThresh
	}
	l.callingContext = ContextLossSsThresh
	now := l.clock.Now()
	l.tracker.updatePeak(now)
	l.traceObservation(l.assembleObservation(tcb, 0, now))

	verdict := l.fusion.classify(tcb, l.callingContext, now)
	retention := l.fusion.retention(verdict)
	l.traceVerdict(verdict)

	mss := l.segmentSize(tcb)
	newSsThresh := l.policy.backoff(policyInput{
		cwnd:          tcb.Cwnd(),
		ssthresh:      tcb.SsThresh(),
		mss:           mss,
		bytesInFlight: bytesInFlight,
		retention:     retention,
	})
	newSsThresh = max(newSsThresh, 2*mss)
	newCwnd := max(newSsThresh, protocol.ByteCount(l.config.MinCwndSegments)*mss)

	oldCwnd := tcb.Cwnd()
	tcb.SetCwnd(newCwnd)
	l.tracker.consecutiveGrowth = 0
	l.tracker.lastCongestionTime = now
	l.tracker.decayPeak(retention)
	l.lastCwnd = newCwnd
	l.lastSsThresh = newSsThresh
	l.inRecovery = true

	l.traceWindow(oldCwnd, newCwnd)
	l.traceSsThresh(newSsThresh)
	return newSsThresh
}

// IncreaseWindow runs the increase path: adapt alpha, grow the window and
// write it back to the host.
func (l *larkSender) IncreaseWindow(tcb TCB, segmentsAcked int) {
	if tcb == nil {
		l.traceViolation("IncreaseWindow")
		return
	}
	l.callingContext = ContextIncrease
	now := l.clock.Now()
	l.tracker.updatePeak(now)
	l.traceObservation(l.assembleObservation(tcb, segmentsAcked, now))

	verdict := l.fusion.classify(tcb, l.callingContext, now)
	l.traceVerdict(verdict)

	delta := l.alpha.update(tcb, l.tracker, now)
	l.traceAlpha(delta)

	mss := l.segmentSize(tcb)
	bdp := l.estimateBDP(tcb)
	newCwnd := l.policy.increase(policyInput{
		cwnd:              tcb.Cwnd(),
		ssthresh:          tcb.SsThresh(),
		mss:               mss,
		bytesInFlight:     tcb.BytesInFlight(),
		segmentsAcked:     segmentsAcked,
		alpha:             l.alpha.alpha,
		bdp:               bdp,
		consecutiveGrowth: l.tracker.consecutiveGrowth,
	})
	newCwnd = l.clampCwnd(newCwnd, bdp, mss)

	oldCwnd := tcb.Cwnd()
	tcb.SetCwnd(newCwnd)
	l.lastCwnd = newCwnd
	l.traceWindow(oldCwnd, newCwnd)

	if verdict == VerdictBenign {
		l.tracker.consecutiveGrowth++
		l.inRecovery = false
	} else {
		l.tracker.consecutiveGrowth = 0
		l.tracker.lastCongestionTime = now
	}
}

// PktsAcked feeds delivery metrics. It never touches the window.
func (l *larkSender) PktsAcked(tcb TCB, segmentsAcked int, rtt time.Duration) {
	if tcb == nil {
		l.traceViolation("PktsAcked")
		return
	}
	l.tracker.onPktsAcked(tcb, segmentsAcked, rtt)
}

// CongestionStateSet records a host state transition. Repeated sets of the
// same state are absorbed.
func (l *larkSender) CongestionStateSet(tcb TCB, newState CaState) {
	if tcb == nil {
		l.traceViolation("CongestionStateSet")
		return
	}
	if l.haveState && l.lastState == newState {
		return
	}
	l.lastState = newState
	l.haveState = true
	if l.tracer != nil && l.tracer.UpdatedCongestionState != nil {
		l.tracer.UpdatedCongestionState(logging.CongestionState(newState))
	}
}

// CwndEvent records host CA events; only the ECN pair mutates state.
func (l *larkSender) CwndEvent(tcb TCB, event CaEvent) {
	if tcb == nil {
		l.traceViolation("CwndEvent")
		return
	}
	now := l.clock.Now()
	switch event {
	case CaEventEcnIsCe:
		l.tracker.recordCE(now)
		if l.tracer != nil && l.tracer.EcnCeCounted != nil {
			l.tracer.EcnCeCounted(l.tracker.ceCount(now))
		}
	case CaEventEcnNoCe:
		l.tracker.clearCE()
	}
}

// Fork creates the controller for a connection clone. Metrics start fresh;
// alpha carries over because the clone shares the parent's network path.
// The window policy instance is shared with the parent.
func (l *larkSender) Fork() CongestionControl {
	s, _ := newLarkSender(l.clock, l.config, l.policy, l.tracer)
	s.alpha.alpha = l.alpha.alpha
	return s
}

func (l *larkSender) Name() string {
	return "Lark"
}

// Alpha returns the current multiplicative factor.
func (l *larkSender) Alpha() float64 {
	return l.alpha.alpha
}

// UUID returns the connection identifier minted at bind time.
func (l *larkSender) UUID() uint64 {
	return l.uuid
}

// ConsecutiveGrowth returns the current clean-growth streak.
func (l *larkSender) ConsecutiveGrowth() int {
	return l.tracker.consecutiveGrowth
}

// InSlowStart reports whether the cwnd last written to the host is below the
// slow-start threshold Lark last returned (unbounded before the first
// congestion event). The host's own ssthresh is not consulted.
func (l *larkSender) InSlowStart() bool {
	return l.lastCwnd < l.lastSsThresh
}

// InRecovery reports whether a congestion event has cut the window without
// a clean increase since.
func (l *larkSender) InRecovery() bool {
	return l.inRecovery
}

// GetCongestionWindow returns the congestion window last written to the
// host, or 0 before the first decision.
func (l *larkSender) GetCongestionWindow() protocol.ByteCount {
	return l.lastCwnd
}

// BandwidthEstimate returns the peak delivery-rate estimate, or 0 while
// nothing has been acknowledged. Each congestion event scales the estimate
// down by the verdict's retention factor.
func (l *larkSender) BandwidthEstimate() Bandwidth {
	if l.tracker.peakThroughput <= 0 {
		return 0
	}
	return Bandwidth(l.tracker.peakThroughput) * BytesPerSecond
}

// estimateBDP computes the bandwidth-delay product in bytes from the peak
// throughput and the RTT mirrors. With no RTT measured yet it falls back to
// the current window.
func (l *larkSender) estimateBDP(tcb TCB) protocol.ByteCount {
	minRTT, lastRTT := l.tracker.minRTT, l.tracker.lastRTT
	if minRTT <= 0 && lastRTT <= 0 {
		return tcb.Cwnd()
	}
	effectiveMin := minRTT
	if effectiveMin <= 0 {
		effectiveMin = lastRTT
	}
	denom := max(minRTT, lastRTT)
	// The cwnd term is computed as a ratio of durations so that it stays
	// exactly cwnd when the two RTTs coincide.
	cwndTerm := float64(tcb.Cwnd()) * float64(effectiveMin) / float64(denom)
	peakTerm := l.tracker.peakThroughput * effectiveMin.Seconds()
	bdp := max(cwndTerm, peakTerm)
	if bdp >= float64(protocol.MaxByteCount) {
		return protocol.MaxByteCount
	}
	if bdp <= 0 {
		return 0
	}
	return protocol.ByteCount(bdp)
}

// clampCwnd applies the authoritative safety clamp: never below the
// configured floor, never above eight BDPs or the segment cap, whichever
// is larger.
func (l *larkSender) clampCwnd(cwnd, bdp, mss protocol.ByteCount) protocol.ByteCount {
	floor := protocol.ByteCount(l.config.MinCwndSegments) * mss
	ceiling := max(scaleCount(bdp, 8), protocol.ByteCount(l.config.CwndCapSegments)*mss)
	return min(max(cwnd, floor), ceiling)
}

// segmentSize reads the host MSS, substituting the default when the host
// has not populated it yet.
func (l *larkSender) segmentSize(tcb TCB) protocol.ByteCount {
	if mss := tcb.SegmentSize(); mss > 0 {
		return mss
	}
	return protocol.DefaultSegmentSize
}

func (l *larkSender) traceViolation(callback string) {
	if l.tracer != nil && l.tracer.ContractViolation != nil {
		l.tracer.ContractViolation(callback)
	}
}

func (l *larkSender) traceObservation(obs Observation) {
	if l.tracer != nil && l.tracer.ObservationTaken != nil {
		l.tracer.ObservationTaken(obs.Vector())
	}
}

func (l *larkSender) traceVerdict(v Verdict) {
	if l.tracer != nil && l.tracer.CongestionVerdict != nil {
		l.tracer.CongestionVerdict(v.String(), v.Severity())
	}
}

func (l *larkSender) traceAlpha(delta float64) {
	if l.tracer != nil && l.tracer.UpdatedAlpha != nil {
		l.tracer.UpdatedAlpha(l.alpha.alpha, delta)
	}
}

func (l *larkSender) traceWindow(oldCwnd, newCwnd protocol.ByteCount) {
	if l.tracer != nil && l.tracer.UpdatedCongestionWindow != nil {
		l.tracer.UpdatedCongestionWindow(oldCwnd, newCwnd)
	}
}

func (l *larkSender) traceSsThresh(ssthresh protocol.ByteCount) {
	if l.tracer != nil && l.tracer.UpdatedSsThresh != nil {
		l.tracer.UpdatedSsThresh(ssthresh)
	}
}
