// Package channel defines the central Channel entity and the
// ssrc-keyed registry that owns channel lifecycle.
package channel

import (
	"math"
	"sync"
)

// DemodType selects which demodulator variant a channel runs. The channel
// worker dispatches per variant, and only one of the Demod* payloads on
// Channel is meaningful at a time.
type DemodType int

const (
	Linear DemodType = iota
	FM
	WFM
	Spectrum
)

// SquelchState is the three-state squelch machine.
type SquelchState int

const (
	SquelchClosed SquelchState = iota
	SquelchOpen
	SquelchClosing
)

// Reserved ssrc values.
const (
	ReservedSSRC   uint32 = 0
	BroadcastSSRC  uint32 = 0xFFFFFFFF
)

// Tune holds the frequency-domain targeting of a channel.
type Tune struct {
	Frequency  float64 // Hz, target center frequency
	Shift      float64 // Hz, added to Frequency for display only
	Doppler    float64 // Hz
	DopplerRate float64 // Hz/s
}

// Filter holds the channelizer's passband parameters.
type Filter struct {
	MinIF      float64
	MaxIF      float64
	KaiserBeta float64
	BinShift   int     // integer bin offset of passband center from DC
	Remainder  float64 // sub-bin residual; NaN forces oscillator reinit

	Filter2Enabled   bool
	Filter2MinIF     float64
	Filter2MaxIF     float64
	Filter2KaiserBeta float64
	IndependentSideband bool
}

// Output holds the channel's output-side configuration.
type Output struct {
	SampleRate  float64
	Channels    int // 1 or 2
	Encoding    string
	Dest        string // destination socket, "host:port"
	MinPacket   int
	Gain        float64
	Headroom    float64
	TTL         int
	OpusBitRate int
}

// DemodConfig holds the demod-agnostic configuration tags the control
// plane can set before a demod-specific payload exists yet (e.g. before
// the worker has built FMState/LinearState for a freshly (re)tuned
// channel). The worker reads these into its live State on (re)build.
type DemodConfig struct {
	AGCEnable       bool
	AGCThreshold    float64
	AGCHangtime     float64
	AGCRecoveryRate float64
	PLLEnable       bool
	PLLBW           float64
	PLLSquare       bool
	Envelope        bool
	ThreshExtend    bool
	ToneFreq        float64
}

// Squelch holds squelch configuration and state.
type Squelch struct {
	Open            float64 // linear power ratio; 0.0 = sentinel "always open"
	Close           float64
	SNREnable       bool
	ThreshExtend    bool
	State           SquelchState
	TailBlocks      int
	tailRemaining   int
}

// AlwaysOpen reports whether both thresholds are at the sentinel value
// that forces the squelch unconditionally open.
func (s *Squelch) AlwaysOpen() bool { return s.Open == 0 && s.Close == 0 }

// Counters tracks per-channel aggregate statistics surfaced in STATUS.
type Counters struct {
	PacketsIn     uint64
	PacketsOut    uint64
	OutputSamples uint64
	Errors        uint64
	BlockDrops    uint64
}

// Estimators holds the shared signal-quality fields, updated by the
// per-demod estimator code each block.
type Estimators struct {
	BasebandPower  float64
	NoiseDensity   float64
	SNR            float64
	PLLPhase       float64
	PLLFrequencyOffset float64
	PLLLock        bool
}

// Control holds the shared-and-guarded scheduling state: the pending
// command slot, lifetime countdown, and status scheduling.
type Control struct {
	GlobalTimer     int // staggered status schedule; counts down to 0
	OutputInterval  int // status period in blocks
	Lifetime        int // idle-expire countdown in blocks; <0 means infinite
	LastCommandTag  uint32
	PresetName      string

	pendingCmd []byte // single-slot command queue
}

// Channel is the central entity identified by ssrc. All fields that are
// read by goroutines other than the channel's own worker (the status
// emitter, the control dispatcher) must be accessed with Mu held.
type Channel struct {
	SSRC  uint32
	InUse bool

	Tune       Tune
	Filter     Filter
	Output     Output
	DemodType  DemodType
	DemodCfg   DemodConfig
	Squelch    Squelch
	Estimators Estimators
	Counters   Counters
	Ctrl       Control

	// Demod-specific payloads; only the one matching DemodType is valid.
	FMState       *FMState
	WFMState      *WFMState
	LinearState   *LinearState
	SpectrumState *SpectrumState

	Mu sync.Mutex

	// StopCh is closed by teardown to signal the worker goroutine to
	// flush output and exit.
	StopCh chan struct{}
}

// FMState holds narrowband-FM-specific demodulator state.
type FMState struct {
	LastSample      complex128
	DeemphasisY     float64
	DeemphasisAlpha float64
	PeakDeviation   float64
	ToneFreq        float64
	TonePhase       float64
}

// WFMState holds wideband broadcast-FM stereo decoder state.
type WFMState struct {
	FMState
	PilotPhase    float64
	PilotFreq     float64
	PilotLocked   bool
	StereoEnabled bool
}

// LinearState holds SSB/CW/AM demodulator state.
type LinearState struct {
	AGCGain     float64
	AGCHang     int
	PLLPhase    float64
	PLLFreq     float64
	PLLRotations int64
	PLLLocked   bool
	Square      bool
}

// SpectrumState holds the spectrum analyzer's owned bin buffer. Only its
// own worker reallocates BinData; readers must snapshot under Channel.Mu
// and must skip polling while Reallocating is true.
type SpectrumState struct {
	BinCount      int
	BinBandwidth  float64
	BinData       []float32
	Reallocating  bool
}

// NewChannel constructs a channel in the not-yet-running state. Registry
// callers flip InUse and start the worker once construction succeeds.
func NewChannel(ssrc uint32) *Channel {
	return &Channel{
		SSRC:   ssrc,
		StopCh: make(chan struct{}),
		Ctrl:   Control{Lifetime: -1},
		Filter: Filter{Remainder: math.NaN()},
	}
}

// IsIdle reports whether this channel is the "template" idle state: a
// channel with freq == 0 is considered idle/template.
func (c *Channel) IsIdle() bool { return c.Tune.Frequency == 0 }

// QueueCommand installs bytes into the single-slot pending command queue.
// An overwrite is refused: if a command is already pending, the new one
// is dropped and false is returned.
func (c *Channel) QueueCommand(cmd []byte) bool {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if c.Ctrl.pendingCmd != nil {
		return false
	}
	c.Ctrl.pendingCmd = cmd
	return true
}

// TakeCommand removes and returns the pending command, or nil if none is
// queued. Called by the channel's own worker at a block boundary.
func (c *Channel) TakeCommand() []byte {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	cmd := c.Ctrl.pendingCmd
	c.Ctrl.pendingCmd = nil
	return cmd
}

// RefreshLifetime resets the idle-expire countdown. Only channels with
// freq != 0 are refreshed by commands.
func (c *Channel) RefreshLifetime(idleTimeoutBlocks int) {
	if c.IsIdle() {
		return
	}
	c.Mu.Lock()
	c.Ctrl.Lifetime = idleTimeoutBlocks
	c.Mu.Unlock()
}

// TickLifetime decrements the idle countdown once per block and reports
// whether the channel has just expired (reached exactly zero).
func (c *Channel) TickLifetime() (expired bool) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if c.Ctrl.Lifetime < 0 {
		return false
	}
	if c.Ctrl.Lifetime == 0 {
		return true
	}
	c.Ctrl.Lifetime--
	return c.Ctrl.Lifetime == 0
}
