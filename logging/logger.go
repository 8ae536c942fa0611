package logging

import (
	"fmt"
	"log"
	"os"
)

// LarkLogger provides debugging output for the Lark congestion controller
type LarkLogger struct {
	logger     *log.Logger
	enabled    bool
	connection string // connection identifier for multi-connection debugging
}

// NewLarkLogger creates a new Lark-specific logger
func NewLarkLogger(connectionID string, enabled bool) *LarkLogger {
	return &LarkLogger{
		logger:     log.New(os.Stderr, fmt.Sprintf("[Lark:%s] ", connectionID), log.LstdFlags|log.Lmicroseconds),
		enabled:    enabled,
		connection: connectionID,
	}
}

// LogAlphaUpdate logs multiplicative-factor updates
func (l *LarkLogger) LogAlphaUpdate(alpha, delta float64) {
	if !l.enabled {
		return
	}
	l.logger.Printf("Alpha updated: alpha=%.4f delta=%+.4f", alpha, delta)
}

// LogVerdict logs the fusion detector's classification
func (l *LarkLogger) LogVerdict(verdict string, severity float64) {
	if !l.enabled {
		return
	}
	l.logger.Printf("Verdict: %s severity=%.2f", verdict, severity)
}

// LogWindowChange logs congestion window changes
func (l *LarkLogger) LogWindowChange(oldCwnd, newCwnd ByteCount) {
	if !l.enabled || oldCwnd == 0 {
		return
	}
	change := float64(newCwnd) / float64(oldCwnd)
	l.logger.Printf("Cwnd change: %d -> %d (%.3fx)", oldCwnd, newCwnd, change)
}

// LogSsThresh logs a new slow-start threshold after a congestion event
func (l *LarkLogger) LogSsThresh(ssthresh ByteCount) {
	if !l.enabled {
		return
	}
	l.logger.Printf("SsThresh: %d", ssthresh)
}

// LogCongestionState logs host state transitions
func (l *LarkLogger) LogCongestionState(state CongestionState) {
	if !l.enabled {
		return
	}
	l.logger.Printf("Congestion state: %s", state)
}

// LogCeMark logs an ECN CE mark and the count inside the sliding window
func (l *LarkLogger) LogCeMark(inWindow int) {
	if !l.enabled {
		return
	}
	l.logger.Printf("CE mark: %d in window", inWindow)
}

// LogObservation logs the serialized observation vector emitted on the
// export channel
func (l *LarkLogger) LogObservation(vector ObservationVector) {
	if !l.enabled {
		return
	}
	l.logger.Printf("Observation: %v", vector)
}

// LogContractViolation warns about a callback that violated the host
// contract and was dropped
func (l *LarkLogger) LogContractViolation(callback string) {
	// contract violations are logged even when debug output is off
	l.logger.Printf("WARN: %s called with invalid control block, ignoring", callback)
}

// NewLarkConnectionTracer creates a ConnectionTracer that logs controller
// events for one connection
func NewLarkConnectionTracer(connectionID string, enabled bool) *ConnectionTracer {
	if !enabled {
		return nil
	}

	logger := NewLarkLogger(connectionID, true)

	return &ConnectionTracer{
		UpdatedAlpha: func(alpha, delta float64) {
			logger.LogAlphaUpdate(alpha, delta)
		},
		CongestionVerdict: func(verdict string, severity float64) {
			logger.LogVerdict(verdict, severity)
		},
		UpdatedCongestionWindow: func(oldCwnd, newCwnd ByteCount) {
			logger.LogWindowChange(oldCwnd, newCwnd)
		},
		UpdatedSsThresh: func(ssthresh ByteCount) {
			logger.LogSsThresh(ssthresh)
		},
		UpdatedCongestionState: func(state CongestionState) {
			logger.LogCongestionState(state)
		},
		EcnCeCounted: func(inWindow int) {
			logger.LogCeMark(inWindow)
		},
		ObservationTaken: func(vector ObservationVector) {
			logger.LogObservation(vector)
		},
		ContractViolation: func(callback string) {
			logger.LogContractViolation(callback)
		},
	}
}
