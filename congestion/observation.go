package congestion

import (
	"time"

	"github.com/larknet/lark/internal/protocol"
)

// CallingContext tags which dispatcher entry point produced an observation.
type CallingContext uint8

const (
	ContextLossSsThresh CallingContext = 0
	ContextIncrease     CallingContext = 1
)

func (c CallingContext) String() string {
	if c == ContextIncrease {
		return "Increase"
	}
	return "Loss-SsThresh"
}

// ObservationVectorLen is the number of fields in the wire serialization.
const ObservationVectorLen = 15

// An Observation snapshots the per-flow state at a decision point. It is
// carried as a typed record internally and serialized to a flat uint64
// vector only at the export boundary.
type Observation struct {
	UUID          uint64
	SimTime       time.Time
	NodeID        uint64
	SsThresh      protocol.ByteCount
	Cwnd          protocol.ByteCount
	SegmentSize   protocol.ByteCount
	SegmentsAcked int
	BytesInFlight protocol.ByteCount
	LastRTT       time.Duration
	MinRTT        time.Duration
	Context       CallingContext
	CaState       CaState
	CaEvent       CaEvent
	EcnState      EcnState
}

// Vector serializes the observation into the 15-element export format.
// Field order is part of the external agent contract. Negative byte counts
// and the unmeasured min-RTT sentinel are rendered as 0.
func (o *Observation) Vector() [ObservationVectorLen]uint64 {
	return [ObservationVectorLen]uint64{
		0:  o.UUID,
		1:  0, // env type: event-driven
		2:  uint64(max(o.SimTime.UnixMicro(), 0)),
		3:  o.NodeID,
		4:  clampCount(o.SsThresh),
		5:  clampCount(o.Cwnd),
		6:  clampCount(o.SegmentSize),
		7:  uint64(max(o.SegmentsAcked, 0)),
		8:  clampCount(o.BytesInFlight),
		9:  clampDuration(o.LastRTT),
		10: clampDuration(o.MinRTT),
		11: uint64(o.Context),
		12: uint64(o.CaState),
		13: uint64(o.CaEvent),
		14: uint64(o.EcnState),
	}
}

func clampCount(c protocol.ByteCount) uint64 {
	if c < 0 {
		return 0
	}
	return uint64(c)
}

func clampDuration(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	return uint64(d.Microseconds())
}

// assembleObservation builds the snapshot for the current callback. The rtt
// fields come from the tracker mirrors, not the tcb, so that the exported
// value matches what the controller actually decided on.
func (l *larkSender) assembleObservation(tcb TCB, segmentsAcked int, now time.Time) Observation {
	return Observation{
		UUID:          l.uuid,
		SimTime:       now,
		NodeID:        l.config.NodeID,
		SsThresh:      tcb.SsThresh(),
		Cwnd:          tcb.Cwnd(),
		SegmentSize:   tcb.SegmentSize(),
		SegmentsAcked: segmentsAcked,
		BytesInFlight: tcb.BytesInFlight(),
		LastRTT:       l.tracker.lastRTT,
		MinRTT:        l.tracker.minRTT,
		Context:       l.callingContext,
		CaState:       tcb.CaState(),
		CaEvent:       tcb.CaEvent(),
		EcnState:      tcb.EcnState(),
	}
}
