// Package worker implements the per-channel worker goroutine:
// waits on the master FFT's next sequence, runs the channelizer and
// demodulator, applies any queued command at the block boundary, ticks
// lifetime, and triggers STATUS emission.
package worker

import (
	"log"
	"math"
	"time"

	"github.com/cwsl/radiocore/internal/channel"
	"github.com/cwsl/radiocore/internal/channelizer"
	"github.com/cwsl/radiocore/internal/control"
	"github.com/cwsl/radiocore/internal/demod"
	"github.com/cwsl/radiocore/internal/estimator"
	"github.com/cwsl/radiocore/internal/fftstage"
	"github.com/cwsl/radiocore/internal/frontend"
	"github.com/cwsl/radiocore/internal/output"
	"github.com/cwsl/radiocore/internal/preset"
	"github.com/cwsl/radiocore/internal/rtprio"
	"github.com/cwsl/radiocore/internal/tlv"
)

// Deemphasis time constants: 75us for wideband broadcast FM (US), and a
// longer 300us for narrowband two-way FM.
const (
	fmDeemphTau  = 300e-6
	wfmDeemphTau = 75e-6
)

// Deps bundles everything a worker needs beyond the channel itself.
type Deps struct {
	Stage       *fftstage.Stage
	Frontend    *frontend.Descriptor
	Presets     *preset.Table
	Dispatcher  *control.Dispatcher
	IdleTimeout int
	// StatusFn is called whenever a STATUS reply should be sent:
	// immediately after a command, on a staggered broadcast tick, or
	// when output_interval elapses.
	StatusFn func(c *channel.Channel, blockSeq uint64)
	// SinkFn receives each block's demodulated output frame. nil is
	// legal (silently drops output), matching output transport being
	// out of scope.
	SinkFn func(*output.Frame)
}

// state is the worker's private, non-shared-outside-mutex engine state,
// rebuilt whenever a restart or filter rebuild is triggered.
type state struct {
	params    channelizer.Params
	chz       *channelizer.Channelizer
	fm        *demod.FM
	wfm       *demod.WFM
	linear    *demod.Linear
	spectrum  *demod.Spectrum
	noise     *estimator.NoiseFloor
	pktz      *output.Packetizer
	afterSeq  uint64

	// tuned/lastBinShift track the previously applied bin shift so a
	// retune that lands on a different master-FFT bin forces the
	// channelizer's fine mixer to reinit rather than phase-jump.
	tuned        bool
	lastBinShift int
}

// Run is the channel worker's main loop. It returns when the channel's
// StopCh is closed or the master FFT posts its shutdown sequence.
func Run(c *channel.Channel, d Deps) {
	if err := rtprio.Raise(50); err != nil {
		log.Printf("worker: ssrc %#x: %v", c.SSRC, err)
	}

	st := &state{noise: estimator.NewNoiseFloor(), pktz: output.NewPacketizer(c.SSRC, 0)}
	rebuild(c, d, st)

	for {
		select {
		case <-c.StopCh:
			return
		default:
		}

		blk := d.Stage.WaitNext(st.afterSeq)
		if blk.Seq == fftstage.ShutdownSequence {
			return
		}
		st.afterSeq = blk.Seq

		if cmd := c.TakeCommand(); cmd != nil {
			fields := tlv.Decode(cmd)
			outcome := control.ApplyCommand(c, fields, d.Presets)
			// Refresh lifetime only after the command is actually
			// applied: a retune away from freq==0 must be visible
			// before IsIdle() is checked, or the refresh no-ops.
			c.RefreshLifetime(d.IdleTimeout)
			if outcome.RestartNeeded {
				flushAndRestart(c, d, st)
			} else if outcome.FilterRebuild {
				rebuild(c, d, st)
			}
			if d.StatusFn != nil {
				d.StatusFn(c, blk.Seq)
			}
		}

		if expired := c.TickLifetime(); expired {
			Teardown(c, d)
			return
		}

		processBlock(c, d, st, blk)

		c.Mu.Lock()
		if c.Ctrl.GlobalTimer > 0 {
			c.Ctrl.GlobalTimer--
			if c.Ctrl.GlobalTimer == 0 {
				c.Mu.Unlock()
				if d.StatusFn != nil {
					d.StatusFn(c, blk.Seq)
				}
				c.Mu.Lock()
			}
		}
		if c.Ctrl.OutputInterval > 0 {
			if int(blk.Seq)%c.Ctrl.OutputInterval == 0 {
				c.Mu.Unlock()
				if d.StatusFn != nil {
					d.StatusFn(c, blk.Seq)
				}
				c.Mu.Lock()
			}
		}
		c.Mu.Unlock()
	}
}

func flushAndRestart(c *channel.Channel, d Deps, st *state) {
	// Restart flushes output and re-enters at the new parameters; there
	// is no separate in-flight output buffer owned by the worker beyond
	// the current block, so "flush" is simply discarding in-progress
	// state and rebuilding.
	rebuild(c, d, st)
}

func rebuild(c *channel.Channel, d Deps, st *state) {
	c.Mu.Lock()
	// The wire protocol has no tag to set the second filter's own
	// passband edges independently (ka9q-radio's status.h enum, which
	// this protocol stays bit-compatible with, doesn't define one): a
	// channel enabling Filter2 without ever touching Filter2MinIF/MaxIF
	// gets the same passband as the primary filter, just re-windowed
	// through its own (narrower-capable) Kaiser beta, rather than the
	// degenerate zero-width passband that leaving them at 0 would build.
	filter2MinIF, filter2MaxIF := c.Filter.Filter2MinIF, c.Filter.Filter2MaxIF
	if c.Filter.Filter2Enabled && filter2MinIF == 0 && filter2MaxIF == 0 {
		filter2MinIF, filter2MaxIF = c.Filter.MinIF, c.Filter.MaxIF
	}
	params := channelizer.Params{
		OutputSampleRate:  c.Output.SampleRate,
		MinIF:             c.Filter.MinIF,
		MaxIF:             c.Filter.MaxIF,
		KaiserBeta:        c.Filter.KaiserBeta,
		Doppler:           c.Tune.Doppler,
		DopplerRate:       c.Tune.DopplerRate,
		Filter2Enabled:    c.Filter.Filter2Enabled,
		Filter2MinIF:      filter2MinIF,
		Filter2MaxIF:      filter2MaxIF,
		Filter2KaiserBeta: c.Filter.Filter2KaiserBeta,
	}
	demodType := c.DemodType
	sampleRate := c.Output.SampleRate
	cfg := c.DemodCfg
	headroom := c.Output.Headroom
	outChannels := c.Output.Channels
	squelchOpen, squelchClose, tailBlocks := c.Squelch.Open, c.Squelch.Close, c.Squelch.TailBlocks
	binCount := 0
	binBW := 0.0
	if c.SpectrumState != nil {
		binCount = c.SpectrumState.BinCount
		binBW = c.SpectrumState.BinBandwidth
	}
	c.Mu.Unlock()

	if params.OutputSampleRate <= 0 {
		params.OutputSampleRate = d.Frontend.SampleRate
	}

	st.params = params
	st.chz = channelizer.New(d.Frontend, d.Stage.NFFT(), params)
	st.tuned = false

	switch demodType {
	case channel.FM:
		st.fm = &demod.FM{
			SampleRate:    sampleRate,
			PeakDeviation: 5000,
			ThreshExtend:  cfg.ThreshExtend,
			Squelch: demod.Squelch{
				OpenThreshold: squelchOpen, CloseThreshold: squelchClose, TailBlocks: tailBlocks,
			},
		}
		st.fm.Deemph.Alpha = demod.AlphaFromTimeConstant(fmDeemphTau, sampleRate)
		if cfg.ToneFreq != 0 {
			st.fm.Tone = demod.TonePLL{Freq: cfg.ToneFreq, SampleRate: sampleRate, Threshold: 0.1}
		}
	case channel.WFM:
		st.wfm = &demod.WFM{
			SampleRate:    48000,
			PeakDeviation: 75000,
			StereoWanted:  outChannels == 2,
			Squelch: demod.Squelch{
				OpenThreshold: squelchOpen, CloseThreshold: squelchClose, TailBlocks: tailBlocks,
			},
		}
		st.wfm.DeemphLeft.Alpha = demod.AlphaFromTimeConstant(wfmDeemphTau, st.wfm.SampleRate)
		st.wfm.DeemphRight.Alpha = st.wfm.DeemphLeft.Alpha
	case channel.Linear:
		mode := demod.Coherent
		if cfg.Envelope {
			mode = demod.Envelope
		}
		// Headroom/Threshold default to full scale (1.0, normalized PCM)
		// when the client never sent HEADROOM/AGC_THRESHOLD: a zero value
		// would make the attack branch immediately collapse Gain to 0
		// (Headroom/peak) with no way for the recovery branch to climb
		// back out, since Gain *= constant is still 0 forever after.
		agcHeadroom := headroom
		if agcHeadroom <= 0 {
			agcHeadroom = 1
		}
		agcThreshold := cfg.AGCThreshold
		if agcThreshold <= 0 {
			agcThreshold = 1
		}
		lin := &demod.Linear{
			Mode:       mode,
			PLLEnabled: cfg.PLLEnable,
			AGC: demod.AGC{
				Enabled: cfg.AGCEnable, Threshold: agcThreshold,
				RecoveryRate: cfg.AGCRecoveryRate, Hangtime: cfg.AGCHangtime,
				Headroom:  agcHeadroom,
				Gain:      1,
				BlockRate: sampleRate / float64(st.chz.Width()),
			},
		}
		if cfg.PLLEnable {
			lin.PLL = demod.PLL{LoopBW: cfg.PLLBW, Square: cfg.PLLSquare, SampleRate: sampleRate}
			lin.PLL.Init()
		}
		st.linear = lin
	case channel.Spectrum:
		st.spectrum = &demod.Spectrum{BinCount: binCount, BinBW: binBW}
	}

	st.pktz = output.NewPacketizer(c.SSRC, uint32(sampleRate))
}

func processBlock(c *channel.Channel, d Deps, st *state, blk *fftstage.Block) {
	c.Mu.Lock()
	freq := c.Tune.Frequency
	doppler := c.Tune.Doppler
	dopplerRate := c.Tune.DopplerRate
	sampleRate := c.Output.SampleRate
	demodType := c.DemodType
	binShift, remainder := channelizer.Tune(d.Frontend, blk.NFFT, freq)
	c.Filter.BinShift = binShift
	c.Filter.Remainder = remainder
	c.Mu.Unlock()

	if sampleRate <= 0 {
		sampleRate = d.Frontend.SampleRate
	}

	reinit := !st.tuned || binShift != st.lastBinShift
	st.tuned = true
	st.lastBinShift = binShift

	mixRemainder := remainder
	if reinit {
		mixRemainder = math.NaN()
	}

	width := st.chz.Width()
	raw := channelizer.Extract(blk, d.Frontend, binShift, width)

	bbPower := estimator.BasebandPower(raw)
	noiseFloor := st.noise.Update(bbPower)
	snr := estimator.SNR(bbPower, noiseFloor)

	var frame *output.Frame

	if demodType == channel.Spectrum && st.spectrum != nil {
		frame = processSpectrum(c, st, blk, d.Frontend, binShift, width)
	} else {
		baseband := st.chz.Process(raw, mixRemainder, doppler, dopplerRate, sampleRate)

		switch demodType {
		case channel.FM:
			res := st.fm.Process(baseband, snr)
			frame = &output.Frame{SSRC: c.SSRC, Mono: res.PCM, Encoding: "pcm"}
			updateFMEstimators(c, snr, bbPower, noiseFloor, res)
		case channel.WFM:
			res := st.wfm.Process(baseband, snr)
			frame = &output.Frame{SSRC: c.SSRC, Left: res.Left, Right: res.Right, Encoding: "pcm"}
			updateWFMEstimators(c, snr, bbPower, noiseFloor, res)
		default:
			res := st.linear.Process(baseband)
			frame = &output.Frame{SSRC: c.SSRC, Mono: res.PCM, Encoding: "pcm"}
			updateLinearEstimators(c, snr, bbPower, noiseFloor, res)
		}
	}

	c.Mu.Lock()
	c.Counters.PacketsIn++
	if frame != nil {
		c.Counters.PacketsOut++
		c.Counters.OutputSamples += uint64(len(frame.Mono) + len(frame.Left))
	}
	c.Mu.Unlock()

	if frame != nil && d.SinkFn != nil {
		frame.TimestampNs = time.Now().UnixNano()
		d.SinkFn(frame)
	}
}

func processSpectrum(c *channel.Channel, st *state, blk *fftstage.Block, fe *frontend.Descriptor, binShift, width int) *output.Frame {
	inputBins := st.spectrum.InputBins(blk.NFFT, fe.SampleRate)
	raw := channelizer.Extract(blk, fe, binShift, inputBins)

	var bins []float32
	if fe.Kind == frontend.Real && demod.FullCoverage(binShift, inputBins, len(blk.Bins)) {
		bins = demod.MapRealFull(raw, st.spectrum.BinCount)
	} else {
		bins = demod.MapComplex(raw, st.spectrum.BinCount)
	}

	c.Mu.Lock()
	if c.SpectrumState != nil {
		c.SpectrumState.BinData = bins
		c.SpectrumState.Reallocating = false
	}
	c.Mu.Unlock()

	return &output.Frame{SSRC: c.SSRC, Encoding: "spectrum"}
}

func updateFMEstimators(c *channel.Channel, snr, bbPower, noiseFloor float64, res demod.FMResult) {
	c.Mu.Lock()
	c.Estimators.SNR = snr
	c.Estimators.BasebandPower = bbPower
	c.Estimators.NoiseDensity = noiseFloor
	c.Squelch.State = wireSquelchState(res.SquelchOpen)
	c.Mu.Unlock()
}

func updateWFMEstimators(c *channel.Channel, snr, bbPower, noiseFloor float64, res demod.WFMResult) {
	c.Mu.Lock()
	c.Estimators.SNR = snr
	c.Estimators.BasebandPower = bbPower
	c.Estimators.NoiseDensity = noiseFloor
	c.Squelch.State = wireSquelchState(res.SquelchOpen)
	c.Mu.Unlock()
}

func updateLinearEstimators(c *channel.Channel, snr, bbPower, noiseFloor float64, res demod.LinearResult) {
	c.Mu.Lock()
	c.Estimators.SNR = snr
	c.Estimators.BasebandPower = bbPower
	c.Estimators.NoiseDensity = noiseFloor
	c.Estimators.PLLLock = res.PLLLock
	c.Estimators.PLLPhase = res.PLLPhase
	c.Mu.Unlock()
}

func wireSquelchState(open bool) channel.SquelchState {
	if open {
		return channel.SquelchOpen
	}
	return channel.SquelchClosed
}

// Teardown flushes output and releases the channel's ssrc back to the
// registry so a later command can reuse it.
func Teardown(c *channel.Channel, d Deps) {
	d.Dispatcher.Teardown(c)
}
