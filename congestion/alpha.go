package congestion

import "time"

// RTT inflation thresholds for the alpha adjustment, as ratios of the last
// RTT over the minimum RTT.
const (
	rttInflationLow  = 1.5
	rttInflationHigh = 3.0
)

// alphaController adapts the multiplicative factor used by the window
// policy. Adjustments from the individual signals are summed, then the
// result is clamped to the configured bounds.
type alphaController struct {
	config *Config
	alpha  float64
}

func newAlphaController(config *Config) *alphaController {
	return &alphaController{config: config, alpha: config.AlphaInitial}
}

// update recomputes alpha for one increase opportunity and returns the
// summed delta before clamping. RTT terms are skipped while either RTT is
// still unknown.
func (a *alphaController) update(tcb TCB, tracker *metricsTracker, now time.Time) float64 {
	var delta float64

	if tracker.minRTT > 0 && tracker.lastRTT > 0 {
		switch rho := float64(tracker.lastRTT) / float64(tracker.minRTT); {
		case rho < rttInflationLow:
			delta += 0.02
		case rho >= rttInflationHigh:
			delta -= 0.05
		}
	}

	if tracker.ceCount(now) > 0 {
		delta -= 0.03
	}
	if tracker.ceRate(now) > float64(a.config.EcnRateHigh) {
		delta -= 0.05
	}

	switch tcb.CaState() {
	case CaLoss:
		delta -= 0.10
	case CaRecovery:
		delta -= 0.03
	case CaOpen:
		delta += 0.01
	}

	if tracker.consecutiveGrowth >= 3 {
		delta += 0.02
	}
	if tracker.consecutiveGrowth >= 6 {
		delta += 0.02
	}

	a.alpha += delta
	if a.alpha < a.config.AlphaMin {
		a.alpha = a.config.AlphaMin
	}
	if a.alpha > a.config.AlphaMax {
		a.alpha = a.config.AlphaMax
	}
	return delta
}
