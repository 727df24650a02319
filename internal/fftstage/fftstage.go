// Package fftstage implements the master FFT stage: an
// overlap-save forward transform run once per input block and fanned out
// to every channel worker via a sequence-numbered, lock-free-to-read
// published block.
package fftstage

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/cwsl/radiocore/internal/frontend"
	"github.com/cwsl/radiocore/internal/ring"
)

// ShutdownSequence is the distinguished sequence value that wakes every
// channel worker blocked waiting for the next block, so it can exit.
const ShutdownSequence = ^uint64(0)

// Block is one published frequency-domain snapshot. Bins holds N_fft/2+1
// entries for a real-sampled frontend, N_fft entries for complex.
type Block struct {
	Seq       uint64
	Bins      []complex128
	StartNano int64
	NFFT      int
}

// Stage owns the overlap-save history buffer and the published block. A
// single goroutine calls RunOnce; any number of goroutines call
// WaitNext/Latest.
type Stage struct {
	fe       *frontend.Descriptor
	input    *ring.Buffer
	block    int
	impulse  int
	nfft     int

	realFFT  *fourier.FFT
	cmplxFFT *fourier.CmplxFFT

	mu      sync.Mutex
	cond    *sync.Cond
	seq     atomic.Uint64
	current atomic.Pointer[Block]
}

// New builds a master FFT stage. blockSize is the number of new input
// samples consumed per cycle; impulseLength is the overlap-save filter
// length (the impulse_length), giving N_fft = block+impulse-1.
func New(fe *frontend.Descriptor, input *ring.Buffer, blockSize, impulseLength int) *Stage {
	nfft := blockSize + impulseLength - 1
	s := &Stage{
		fe:      fe,
		input:   input,
		block:   blockSize,
		impulse: impulseLength,
		nfft:    nfft,
	}
	s.cond = sync.NewCond(&s.mu)
	if fe.Kind == frontend.Real {
		s.realFFT = fourier.NewFFT(nfft)
	} else {
		s.cmplxFFT = fourier.NewCmplxFFT(nfft)
	}
	return s
}

// NFFT returns the transform length.
func (s *Stage) NFFT() int { return s.nfft }

// BlockSize returns the number of new samples consumed per cycle.
func (s *Stage) BlockSize() int { return s.block }

// ImpulseLength returns the configured overlap-save filter length.
func (s *Stage) ImpulseLength() int { return s.impulse }

// Latest returns the most recently published block, or nil before the
// first cycle completes.
func (s *Stage) Latest() *Block { return s.current.Load() }

// WaitNext blocks until a block newer than afterSeq is published (or the
// shutdown sequence is posted) and returns it.
func (s *Stage) WaitNext(afterSeq uint64) *Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		if b := s.current.Load(); b != nil && (b.Seq > afterSeq || b.Seq == ShutdownSequence) {
			return b
		}
		s.cond.Wait()
	}
}

// Shutdown posts the distinguished shutdown sequence and wakes every
// waiter so it can exit.
func (s *Stage) Shutdown() {
	s.mu.Lock()
	s.current.Store(&Block{Seq: ShutdownSequence})
	s.mu.Unlock()
	s.cond.Broadcast()
}

// RunOnce returns nil without blocking when fewer than one block of new
// samples is buffered. Otherwise it assembles the
// overlap-save window (block new samples plus impulse-1 of history),
// transforms it, and publishes the result. nowNano is supplied by the
// caller since the core never calls time.Now() itself in the hot path of
// tests; production callers pass time.Now().UnixNano().
func (s *Stage) RunOnce(nowNano int64) *Block {
	for s.input.Available() < uint64(s.block) {
		return nil
	}

	window := make([]complex128, s.nfft)
	s.input.Peek(window, s.nfft)
	s.input.Advance(s.block)

	var bins []complex128
	if s.realFFT != nil {
		samples := make([]float64, s.nfft)
		for i, c := range window {
			samples[i] = real(c)
		}
		bins = s.realFFT.Coefficients(nil, samples)
	} else {
		bins = s.cmplxFFT.Coefficients(nil, window)
	}

	seq := s.seq.Add(1)
	blk := &Block{Seq: seq, Bins: bins, StartNano: nowNano, NFFT: s.nfft}

	s.mu.Lock()
	s.current.Store(blk)
	s.mu.Unlock()
	s.cond.Broadcast()

	return blk
}
