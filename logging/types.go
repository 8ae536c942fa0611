// Package logging carries the trace types the congestion controller emits
// through. Observers attach a ConnectionTracer; the LarkLogger turns traces
// into prefixed text output for debugging.
package logging

import "github.com/larknet/lark/internal/protocol"

// A ByteCount in QUIC-style byte units.
type ByteCount = protocol.ByteCount

// ObservationVector is the flat export format of a decision-point
// observation. Field order is fixed by the external agent contract.
type ObservationVector = [15]uint64

// CongestionState mirrors the host's coarse congestion state for tracing.
type CongestionState uint8

const (
	CongestionStateOpen CongestionState = iota
	CongestionStateDisorder
	CongestionStateCwr
	CongestionStateRecovery
	CongestionStateLoss
)

func (s CongestionState) String() string {
	switch s {
	case CongestionStateOpen:
		return "Open"
	case CongestionStateDisorder:
		return "Disorder"
	case CongestionStateCwr:
		return "CWR"
	case CongestionStateRecovery:
		return "Recovery"
	case CongestionStateLoss:
		return "Loss"
	default:
		return "Unknown"
	}
}
