package logging

// A ConnectionTracer observes one connection's controller. Every field is
// optional; the controller checks for nil before calling. Callbacks run
// synchronously on the transport's caller thread and must not block.
type ConnectionTracer struct {
	// UpdatedAlpha fires after each recomputation of the multiplicative
	// factor, with the summed delta before clamping.
	UpdatedAlpha func(alpha, delta float64)
	// CongestionVerdict fires with the fusion detector's classification of
	// a decision point.
	CongestionVerdict func(verdict string, severity float64)
	// UpdatedCongestionWindow fires whenever the controller writes a new
	// cwnd back to the host.
	UpdatedCongestionWindow func(oldCwnd, newCwnd ByteCount)
	// UpdatedSsThresh fires on the congestion-event path with the returned
	// threshold.
	UpdatedSsThresh func(ssthresh ByteCount)
	// UpdatedCongestionState fires on host state transitions.
	UpdatedCongestionState func(state CongestionState)
	// EcnCeCounted fires on each CE mark with the count inside the sliding
	// window.
	EcnCeCounted func(inWindow int)
	// ObservationTaken fires with the serialized observation vector at
	// every decision point, for the external training channel.
	ObservationTaken func(vector ObservationVector)
	// ContractViolation fires when a callback arrives with a nil control
	// block or otherwise violates the host contract. The controller has
	// already turned the call into a no-op.
	ContractViolation func(callback string)
}
