// Command larkprobe drives a single synthetic flow through the Lark
// controller and serves the resulting Prometheus metrics. It exists to
// exercise the public API against a scripted congestion pattern; the host
// transport it fakes is deliberately minimal.
package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/larknet/lark/congestion"
	"github.com/larknet/lark/internal/protocol"
	"github.com/larknet/lark/logging"
	"github.com/larknet/lark/metrics"
)

const mss = protocol.ByteCount(1448)

// probeTCB is a scripted transport control block for one flow.
type probeTCB struct {
	cwnd          protocol.ByteCount
	ssthresh      protocol.ByteCount
	bytesInFlight protocol.ByteCount
	lastRTT       time.Duration
	minRTT        time.Duration
	caState       congestion.CaState
	caEvent       congestion.CaEvent
	ecnState      congestion.EcnState
}

func (p *probeTCB) Cwnd() protocol.ByteCount          { return p.cwnd }
func (p *probeTCB) SetCwnd(c protocol.ByteCount)      { p.cwnd = c }
func (p *probeTCB) SsThresh() protocol.ByteCount      { return p.ssthresh }
func (p *probeTCB) SegmentSize() protocol.ByteCount   { return mss }
func (p *probeTCB) BytesInFlight() protocol.ByteCount { return p.bytesInFlight }
func (p *probeTCB) LastRTT() time.Duration            { return p.lastRTT }
func (p *probeTCB) MinRTT() time.Duration             { return p.minRTT }
func (p *probeTCB) CaState() congestion.CaState       { return p.caState }
func (p *probeTCB) CaEvent() congestion.CaEvent       { return p.caEvent }
func (p *probeTCB) EcnState() congestion.EcnState     { return p.ecnState }

func main() {
	addr := flag.String("addr", "localhost:9090", "metrics listen address")
	interval := flag.Int("interval", 10, "milliseconds between synthetic acks")
	verbose := flag.Bool("v", false, "log controller events to stderr")
	flag.Parse()

	reg := prometheus.NewRegistry()
	m := metrics.NewLarkMetrics(reg)
	tracer := composeTracers(m.ConnectionTracer(), logging.NewLarkConnectionTracer("probe", *verbose))

	sender, err := congestion.NewLarkSender(nil, &congestion.Config{NodeID: 1}, tracer)
	if err != nil {
		log.Fatalf("creating controller: %v", err)
	}

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		log.Printf("serving metrics on http://%s/metrics", *addr)
		log.Fatal(http.ListenAndServe(*addr, nil))
	}()

	tcb := &probeTCB{
		cwnd:     10 * mss,
		ssthresh: protocol.MaxByteCount,
		minRTT:   100 * time.Microsecond,
	}

	log.Printf("probe flow %d starting with %s", sender.UUID(), sender.Name())
	for tick := 0; ; tick++ {
		step(sender, tcb, tick)
		time.Sleep(time.Duration(*interval) * time.Millisecond)
	}
}

// step advances the synthetic congestion pattern by one ack interval:
// steady growth, a CE burst every 200 ticks, a loss every 500.
func step(sender congestion.CongestionControl, tcb *probeTCB, tick int) {
	rtt := 100 * time.Microsecond
	if tick%50 > 40 {
		// queue building up toward the burst
		rtt = 350 * time.Microsecond
	}
	tcb.lastRTT = rtt
	tcb.bytesInFlight = tcb.cwnd

	switch {
	case tick%500 == 499:
		tcb.caState = congestion.CaRecovery
		sender.GetSsThresh(tcb, tcb.bytesInFlight)
		tcb.caState = congestion.CaOpen
	case tick%200 == 199:
		tcb.ecnState = congestion.EcnCeRcvd
		for i := 0; i < 35; i++ {
			sender.CwndEvent(tcb, congestion.CaEventEcnIsCe)
		}
		sender.GetSsThresh(tcb, tcb.bytesInFlight)
		sender.CwndEvent(tcb, congestion.CaEventEcnNoCe)
		tcb.ecnState = congestion.EcnIdle
	default:
		sender.PktsAcked(tcb, 2, rtt)
		sender.IncreaseWindow(tcb, 2)
	}
}

// composeTracers fans controller events out to every non-nil tracer.
func composeTracers(tracers ...*logging.ConnectionTracer) *logging.ConnectionTracer {
	var active []*logging.ConnectionTracer
	for _, t := range tracers {
		if t != nil {
			active = append(active, t)
		}
	}
	return &logging.ConnectionTracer{
		UpdatedAlpha: func(alpha, delta float64) {
			for _, t := range active {
				if t.UpdatedAlpha != nil {
					t.UpdatedAlpha(alpha, delta)
				}
			}
		},
		CongestionVerdict: func(verdict string, severity float64) {
			for _, t := range active {
				if t.CongestionVerdict != nil {
					t.CongestionVerdict(verdict, severity)
				}
			}
		},
		UpdatedCongestionWindow: func(oldCwnd, newCwnd logging.ByteCount) {
			for _, t := range active {
				if t.UpdatedCongestionWindow != nil {
					t.UpdatedCongestionWindow(oldCwnd, newCwnd)
				}
			}
		},
		UpdatedSsThresh: func(ssthresh logging.ByteCount) {
			for _, t := range active {
				if t.UpdatedSsThresh != nil {
					t.UpdatedSsThresh(ssthresh)
				}
			}
		},
		UpdatedCongestionState: func(state logging.CongestionState) {
			for _, t := range active {
				if t.UpdatedCongestionState != nil {
					t.UpdatedCongestionState(state)
				}
			}
		},
		EcnCeCounted: func(inWindow int) {
			for _, t := range active {
				if t.EcnCeCounted != nil {
					t.EcnCeCounted(inWindow)
				}
			}
		},
		ObservationTaken: func(vector logging.ObservationVector) {
			for _, t := range active {
				if t.ObservationTaken != nil {
					t.ObservationTaken(vector)
				}
			}
		},
		ContractViolation: func(callback string) {
			for _, t := range active {
				if t.ContractViolation != nil {
					t.ContractViolation(callback)
				}
			}
		},
	}
}
