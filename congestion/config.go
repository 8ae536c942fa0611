package congestion

import (
	"fmt"
	"time"
)

// Config carries the controller parameters. They are read once at
// instantiation and stay fixed for the life of the connection.
type Config struct {
	// AlphaInitial is the starting multiplicative factor.
	AlphaInitial float64
	// AlphaMin and AlphaMax clamp the adaptive factor.
	AlphaMin float64
	AlphaMax float64

	// EcnWindow is the sliding window for CE-rate calculations.
	EcnWindow time.Duration
	// EcnBurstThreshold is the CE count within EcnWindow that classifies an
	// ECN burst.
	EcnBurstThreshold int
	// EcnRateHigh is the CE rate (events per second) that triggers the
	// additional alpha reduction.
	EcnRateHigh int

	// Retention factors: the fraction of the pre-congestion window kept
	// after each verdict kind.
	RetentionLoss    float64
	RetentionEcn     float64
	RetentionTimeout float64
	RetentionDefault float64

	// MinCwndSegments floors the congestion window.
	MinCwndSegments int
	// CwndCapSegments is the lowest value of the congestion window ceiling:
	// the ceiling is eight BDPs or this many segments, whichever is larger.
	CwndCapSegments int

	// NodeID identifies the hosting node, for diagnostics only.
	NodeID uint64
}

// DefaultConfig returns the deployment defaults.
func DefaultConfig() *Config {
	return &Config{
		AlphaInitial:      1.25,
		AlphaMin:          1.10,
		AlphaMax:          1.50,
		EcnWindow:         time.Second,
		EcnBurstThreshold: 30,
		EcnRateHigh:       50,
		RetentionLoss:     0.70,
		RetentionEcn:      0.92,
		RetentionTimeout:  0.75,
		RetentionDefault:  0.90,
		MinCwndSegments:   4,
		CwndCapSegments:   100,
	}
}

// populateConfig fills zero values with defaults so callers can set only
// the parameters they care about.
func populateConfig(config *Config) *Config {
	if config == nil {
		return DefaultConfig()
	}
	defaults := DefaultConfig()
	c := *config
	if c.AlphaInitial == 0 {
		c.AlphaInitial = defaults.AlphaInitial
	}
	if c.AlphaMin == 0 {
		c.AlphaMin = defaults.AlphaMin
	}
	if c.AlphaMax == 0 {
		c.AlphaMax = defaults.AlphaMax
	}
	if c.EcnWindow == 0 {
		c.EcnWindow = defaults.EcnWindow
	}
	if c.EcnBurstThreshold == 0 {
		c.EcnBurstThreshold = defaults.EcnBurstThreshold
	}
	if c.EcnRateHigh == 0 {
		c.EcnRateHigh = defaults.EcnRateHigh
	}
	if c.RetentionLoss == 0 {
		c.RetentionLoss = defaults.RetentionLoss
	}
	if c.RetentionEcn == 0 {
		c.RetentionEcn = defaults.RetentionEcn
	}
	if c.RetentionTimeout == 0 {
		c.RetentionTimeout = defaults.RetentionTimeout
	}
	if c.RetentionDefault == 0 {
		c.RetentionDefault = defaults.RetentionDefault
	}
	if c.MinCwndSegments == 0 {
		c.MinCwndSegments = defaults.MinCwndSegments
	}
	if c.CwndCapSegments == 0 {
		c.CwndCapSegments = defaults.CwndCapSegments
	}
	return &c
}

func validateConfig(config *Config) error {
	if config == nil {
		return nil
	}
	if config.AlphaMin != 0 && config.AlphaMax != 0 && config.AlphaMin > config.AlphaMax {
		return fmt.Errorf("alpha bounds inverted: min %.2f > max %.2f", config.AlphaMin, config.AlphaMax)
	}
	if config.AlphaInitial != 0 {
		lo, hi := config.AlphaMin, config.AlphaMax
		if lo == 0 {
			lo = DefaultConfig().AlphaMin
		}
		if hi == 0 {
			hi = DefaultConfig().AlphaMax
		}
		if config.AlphaInitial < lo || config.AlphaInitial > hi {
			return fmt.Errorf("initial alpha %.2f outside [%.2f, %.2f]", config.AlphaInitial, lo, hi)
		}
	}
	for _, r := range []struct {
		name  string
		value float64
	}{
		{"loss", config.RetentionLoss},
		{"ecn", config.RetentionEcn},
		{"timeout", config.RetentionTimeout},
		{"default", config.RetentionDefault},
	} {
		if r.value < 0 || r.value > 1 {
			return fmt.Errorf("retention factor %s out of range: %.2f", r.name, r.value)
		}
	}
	if config.EcnWindow < 0 {
		return fmt.Errorf("negative ECN window: %v", config.EcnWindow)
	}
	if config.EcnBurstThreshold < 0 || config.EcnRateHigh < 0 {
		return fmt.Errorf("negative ECN threshold")
	}
	if config.MinCwndSegments < 0 || config.CwndCapSegments < 0 {
		return fmt.Errorf("negative window bound")
	}
	if config.MinCwndSegments != 0 && config.CwndCapSegments != 0 && config.MinCwndSegments > config.CwndCapSegments {
		return fmt.Errorf("cwnd floor %d segments above cap %d", config.MinCwndSegments, config.CwndCapSegments)
	}
	return nil
}
