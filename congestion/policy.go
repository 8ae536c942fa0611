package congestion

import (
	"math"

	"github.com/larknet/lark/internal/protocol"
)

// policyInput is the snapshot a window policy decides on. The dispatcher
// assembles it and applies the authoritative safety clamp to whatever the
// policy returns.
type policyInput struct {
	cwnd          protocol.ByteCount
	ssthresh      protocol.ByteCount
	mss           protocol.ByteCount
	bytesInFlight protocol.ByteCount
	segmentsAcked int

	alpha             float64
	bdp               protocol.ByteCount
	retention         float64
	consecutiveGrowth int
}

// A windowPolicy produces the raw window targets. The rule variant runs the
// fused-signal math; the external variant forwards values received from an
// agent bridge.
type windowPolicy interface {
	increase(in policyInput) protocol.ByteCount
	backoff(in policyInput) protocol.ByteCount
}

// rulePolicy is the deterministic controller.
type rulePolicy struct{}

var _ windowPolicy = rulePolicy{}

func (rulePolicy) increase(in policyInput) protocol.ByteCount {
	if in.cwnd < in.ssthresh {
		// Slow start: exponential growth toward a BDP-derived target. A
		// sustained clean-growth streak earns the steeper factor.
		factor := 2
		if in.consecutiveGrowth >= 3 {
			factor = 3
		}
		target := scaleCount(in.bdp, 3)
		grown := in.cwnd + protocol.ByteCount(factor*in.segmentsAcked)*in.mss
		return min(target, grown)
	}

	// Congestion avoidance: the alpha-scaled BDP is a floor, never a cut.
	gamma := max(in.segmentsAcked, 1)
	floor := scaleCount(in.bdp, in.alpha)
	return max(floor, in.cwnd) + protocol.ByteCount(gamma)*in.mss
}

func (rulePolicy) backoff(in policyInput) protocol.ByteCount {
	base := max(in.cwnd, in.bytesInFlight)
	return scaleCount(base, in.retention)
}

// ExternalPolicy applies windows computed by an external agent. Until the
// agent has pushed a decision, both paths keep the connection's current
// values.
type ExternalPolicy struct {
	cwnd     protocol.ByteCount
	ssthresh protocol.ByteCount
	set      bool
}

var _ windowPolicy = &ExternalPolicy{}

// SetWindows records the agent's decision. It takes effect on the next
// dispatcher callback for this connection.
func (p *ExternalPolicy) SetWindows(cwnd, ssthresh protocol.ByteCount) {
	p.cwnd = cwnd
	p.ssthresh = ssthresh
	p.set = true
}

func (p *ExternalPolicy) increase(in policyInput) protocol.ByteCount {
	if p.set && p.cwnd > 0 {
		return p.cwnd
	}
	return in.cwnd
}

func (p *ExternalPolicy) backoff(in policyInput) protocol.ByteCount {
	if p.set && p.ssthresh > 0 {
		return p.ssthresh
	}
	return in.ssthresh
}

// scaleCount multiplies a byte count by a factor and floors the result,
// saturating instead of overflowing. The relative epsilon keeps products
// that are integral in exact arithmetic, like 0.70 of 80 segments, from
// landing one byte short.
func scaleCount(c protocol.ByteCount, factor float64) protocol.ByteCount {
	scaled := math.Floor(float64(c) * factor * (1 + 1e-12))
	if scaled >= float64(protocol.MaxByteCount) {
		return protocol.MaxByteCount
	}
	if scaled <= 0 {
		return 0
	}
	return protocol.ByteCount(scaled)
}
