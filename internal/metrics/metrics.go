// Package metrics exposes per-channel gauges via Prometheus: one GaugeVec
// per metric family, labeled by channel ssrc, scoped to the core's
// channel/demod state.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the core's Prometheus collectors, one GaugeVec per
// family, labeled by channel ssrc (as a string, since Prometheus labels
// are strings).
type Metrics struct {
	snr            *prometheus.GaugeVec
	basebandPower  *prometheus.GaugeVec
	pllLock        *prometheus.GaugeVec
	squelchState   *prometheus.GaugeVec
	agcGain        *prometheus.GaugeVec
	blockDrops     *prometheus.GaugeVec
	masterSequence prometheus.Gauge
}

// New registers the core's collectors against reg (pass
// prometheus.NewRegistry() for an isolated registry, or
// prometheus.DefaultRegisterer's underlying registry for the process
// default).
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		snr: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "radiocore", Subsystem: "channel", Name: "snr_db",
			Help: "Estimated signal-to-noise ratio in dB.",
		}, []string{"ssrc"}),
		basebandPower: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "radiocore", Subsystem: "channel", Name: "baseband_power",
			Help: "Mean squared baseband power.",
		}, []string{"ssrc"}),
		pllLock: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "radiocore", Subsystem: "channel", Name: "pll_locked",
			Help: "1 if the channel's PLL is locked, else 0.",
		}, []string{"ssrc"}),
		squelchState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "radiocore", Subsystem: "channel", Name: "squelch_state",
			Help: "0=closed 1=open 2=closing.",
		}, []string{"ssrc"}),
		agcGain: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "radiocore", Subsystem: "channel", Name: "agc_gain",
			Help: "Current AGC gain multiplier.",
		}, []string{"ssrc"}),
		blockDrops: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "radiocore", Subsystem: "channel", Name: "block_drops_total",
			Help: "Cumulative blocks this channel fell behind and resynchronized.",
		}, []string{"ssrc"}),
		masterSequence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "radiocore", Subsystem: "fft", Name: "master_sequence",
			Help: "Latest published master FFT block sequence number.",
		}),
	}
	reg.MustRegister(m.snr, m.basebandPower, m.pllLock, m.squelchState, m.agcGain, m.blockDrops, m.masterSequence)
	return m
}

// ObserveChannel records one block's worth of per-channel gauges.
func (m *Metrics) ObserveChannel(ssrc uint32, snr, basebandPower float64, pllLocked bool, squelchState int, agcGain float64, blockDrops uint64) {
	label := strconv.FormatUint(uint64(ssrc), 10)
	m.snr.WithLabelValues(label).Set(snr)
	m.basebandPower.WithLabelValues(label).Set(basebandPower)
	if pllLocked {
		m.pllLock.WithLabelValues(label).Set(1)
	} else {
		m.pllLock.WithLabelValues(label).Set(0)
	}
	m.squelchState.WithLabelValues(label).Set(float64(squelchState))
	m.agcGain.WithLabelValues(label).Set(agcGain)
	m.blockDrops.WithLabelValues(label).Set(float64(blockDrops))
}

// ObserveMasterSequence records the latest master FFT block sequence.
func (m *Metrics) ObserveMasterSequence(seq uint64) {
	m.masterSequence.Set(float64(seq))
}
