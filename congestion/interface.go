// Package congestion implements Lark, a sender-side congestion controller
// for data-center TCP. The host transport owns one controller per connection
// and drives it through the CongestionControl callbacks; Lark fuses loss,
// ECN, RTT and coarse-state signals into window decisions.
package congestion

import (
	"time"

	"github.com/larknet/lark/internal/protocol"
)

// CaState is the host's coarse congestion state machine.
type CaState uint8

const (
	CaOpen CaState = iota
	CaDisorder
	CaCwr
	CaRecovery
	CaLoss
)

func (s CaState) String() string {
	switch s {
	case CaOpen:
		return "Open"
	case CaDisorder:
		return "Disorder"
	case CaCwr:
		return "CWR"
	case CaRecovery:
		return "Recovery"
	case CaLoss:
		return "Loss"
	default:
		return "Unknown"
	}
}

// CaEvent is the most recent congestion-avoidance event reported by the host.
type CaEvent uint8

const (
	CaEventTxStart CaEvent = iota
	CaEventCwndRestart
	CaEventCompleteCwr
	CaEventLoss
	CaEventEcnNoCe
	CaEventEcnIsCe
)

func (e CaEvent) String() string {
	switch e {
	case CaEventTxStart:
		return "TxStart"
	case CaEventCwndRestart:
		return "CwndRestart"
	case CaEventCompleteCwr:
		return "CompleteCwr"
	case CaEventLoss:
		return "Loss"
	case CaEventEcnNoCe:
		return "EcnNoCe"
	case CaEventEcnIsCe:
		return "EcnIsCe"
	default:
		return "Unknown"
	}
}

// EcnState is the host's ECN sub-state machine.
type EcnState uint8

const (
	EcnDisabled EcnState = iota
	EcnIdle
	EcnCeRcvd
	EcnSendingEce
	EcnEceRcvd
	EcnCwrSent
)

func (s EcnState) String() string {
	switch s {
	case EcnDisabled:
		return "Disabled"
	case EcnIdle:
		return "Idle"
	case EcnCeRcvd:
		return "CeRcvd"
	case EcnSendingEce:
		return "SendingEce"
	case EcnEceRcvd:
		return "EceRcvd"
	case EcnCwrSent:
		return "CwrSent"
	default:
		return "Unknown"
	}
}

// TCB is the transport control block the host exposes for a connection.
// All fields are read-only to Lark except the congestion window, which
// IncreaseWindow and GetSsThresh write back through SetCwnd.
//
// MinRTT returns 0 while no minimum has been measured yet.
type TCB interface {
	Cwnd() protocol.ByteCount
	SetCwnd(protocol.ByteCount)
	SsThresh() protocol.ByteCount
	SegmentSize() protocol.ByteCount
	BytesInFlight() protocol.ByteCount
	LastRTT() time.Duration
	MinRTT() time.Duration
	CaState() CaState
	CaEvent() CaEvent
	EcnState() EcnState
}

// CongestionControl is the callback contract the host transport binds per
// connection. Entry points tolerate a nil tcb by logging and returning a
// safe no-op; nothing propagates back as an error.
type CongestionControl interface {
	// GetSsThresh runs the congestion-event path and returns the new
	// slow-start threshold. It also writes the post-event cwnd into the tcb.
	GetSsThresh(tcb TCB, bytesInFlight protocol.ByteCount) protocol.ByteCount
	// IncreaseWindow runs the increase path and writes the new cwnd into
	// the tcb.
	IncreaseWindow(tcb TCB, segmentsAcked int)
	// PktsAcked feeds an RTT sample and the acked segment count into the
	// per-flow metrics. It never changes the window.
	PktsAcked(tcb TCB, segmentsAcked int, rtt time.Duration)
	// CongestionStateSet records a host state transition.
	CongestionStateSet(tcb TCB, newState CaState)
	// CwndEvent records a host CA event, in particular ECN CE marks.
	CwndEvent(tcb TCB, event CaEvent)
	// Fork creates an independent controller for a connection clone. The
	// clone starts with fresh metrics but inherits the current alpha.
	Fork() CongestionControl
	Name() string
}
