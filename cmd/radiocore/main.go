// Command radiocore runs the real-time demodulation core: master FFT
// stage, per-channel workers, the TLV control listener, and the STATUS
// emitter, wired from a YAML configuration file.
package main

import (
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cwsl/radiocore/internal/channel"
	"github.com/cwsl/radiocore/internal/config"
	"github.com/cwsl/radiocore/internal/control"
	"github.com/cwsl/radiocore/internal/fftstage"
	"github.com/cwsl/radiocore/internal/frontend"
	"github.com/cwsl/radiocore/internal/mcast"
	"github.com/cwsl/radiocore/internal/metrics"
	"github.com/cwsl/radiocore/internal/preset"
	"github.com/cwsl/radiocore/internal/ring"
	"github.com/cwsl/radiocore/internal/rtprio"
	"github.com/cwsl/radiocore/internal/status"
	"github.com/cwsl/radiocore/internal/telemetry"
	"github.com/cwsl/radiocore/internal/tlv"
	"github.com/cwsl/radiocore/internal/worker"
)

func main() {
	configPath := flag.String("config", "radiocore.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("radiocore: %v", err)
	}

	var presets *preset.Table
	if cfg.Presets != "" {
		presets, err = preset.Load(cfg.Presets)
		if err != nil {
			log.Fatalf("radiocore: loading presets: %v", err)
		}
	}

	kind := frontend.Real
	if cfg.Frontend.Complex {
		kind = frontend.Complex
	}
	fe := frontend.NewDescriptor(
		cfg.Frontend.SampleRate, kind, cfg.Frontend.BitsPerSample,
		cfg.Frontend.CalibratePPM, cfg.Frontend.MinIF, cfg.Frontend.MaxIF,
		nil, frontend.Capability{}, cfg.Frontend.CenterFreq,
	)

	blockSize := cfg.Frontend.BlockSize
	if blockSize <= 0 {
		blockSize = 4096
	}
	impulseLength := cfg.Frontend.ImpulseLength
	if impulseLength <= 0 {
		impulseLength = 1025
	}
	nfft := blockSize + impulseLength - 1

	input := ring.New(4 * nfft)
	stage := fftstage.New(fe, input, blockSize, impulseLength)

	registry := channel.NewRegistry(cfg.Control.MaxChannels)

	statusConn, statusGroup := mustStatusSocket(cfg.Control.StatusGroup, cfg.Control.Interface)
	emitter := status.NewEmitter(statusConn, statusGroup, fe)

	var reg *metrics.Metrics
	if cfg.Metrics.Enabled {
		promReg := prometheus.NewRegistry()
		reg = metrics.New(promReg)
		listen := cfg.Metrics.Listen
		if listen == "" {
			listen = ":9090"
		}
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(listen, mux); err != nil {
				log.Printf("radiocore: metrics server: %v", err)
			}
		}()
	}

	var telemetryPub *telemetry.Publisher
	if cfg.MQTT.Enabled {
		telemetryPub, err = telemetry.NewPublisher(cfg.MQTT.Broker, cfg.MQTT.Topic, registry)
		if err != nil {
			log.Printf("radiocore: mqtt telemetry disabled: %v", err)
		} else {
			interval := time.Duration(cfg.MQTT.IntervalSecs) * time.Second
			if interval <= 0 {
				interval = 5 * time.Second
			}
			telemetryPub.Start(interval, func() int64 { return time.Now().UnixNano() })
		}
	}

	stopAll := make(chan struct{})

	deps := worker.Deps{
		Stage:       stage,
		Frontend:    fe,
		Presets:     presets,
		IdleTimeout: cfg.Control.IdleTimeout,
		StatusFn: func(c *channel.Channel, blockSeq uint64) {
			if err := emitter.Send(c, blockSeq); err != nil {
				log.Printf("radiocore: status send ssrc %#x: %v", c.SSRC, err)
			}
			if reg != nil {
				c.Mu.Lock()
				snr, bb := c.Estimators.SNR, c.Estimators.BasebandPower
				pllLock := c.Estimators.PLLLock
				sq := int(c.Squelch.State)
				drops := c.Counters.BlockDrops
				c.Mu.Unlock()
				// The channel does not track AGC gain, so agc_gain is
				// always reported as 0.
				reg.ObserveChannel(c.SSRC, snr, bb, pllLock, sq, 0, drops)
			}
		},
	}

	dispatcher := &control.Dispatcher{
		Registry:    registry,
		Presets:     presets,
		IdleTimeout: cfg.Control.IdleTimeout,
		DefaultDest: cfg.Control.DataGroup,
		OnCreate: func(c *channel.Channel) {
			go worker.Run(c, deps)
		},
	}
	deps.Dispatcher = dispatcher

	for _, spec := range cfg.Channels {
		startStaticChannel(registry, dispatcher, presets, spec)
		if c := registry.Lookup(spec.SSRC); c != nil {
			go worker.Run(c, deps)
		}
	}

	listener, err := control.NewListener(cfg.Control.StatusGroup, cfg.Control.Interface)
	if err != nil {
		log.Fatalf("radiocore: control listener: %v", err)
	}
	go listener.Serve(dispatcher, stopAll)

	go runMasterFFT(stage, input, stopAll)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Print("radiocore: shutting down")
	close(stopAll)
	stage.Shutdown()
	var all []*channel.Channel
	registry.Each(func(c *channel.Channel) { all = append(all, c) })
	for _, c := range all {
		dispatcher.Teardown(c)
	}
	listener.Close()
	if telemetryPub != nil {
		telemetryPub.Stop()
	}
}

// runMasterFFT drives the overlap-save transform once per block's worth
// of newly available input, running at elevated real-time priority for
// the process lifetime.
func runMasterFFT(stage *fftstage.Stage, input *ring.Buffer, stop <-chan struct{}) {
	if err := rtprio.Raise(60); err != nil {
		log.Printf("radiocore: master fft: %v", err)
	}
	for {
		select {
		case <-stop:
			return
		default:
		}
		if blk := stage.RunOnce(time.Now().UnixNano()); blk == nil {
			time.Sleep(time.Millisecond)
		}
	}
}

func startStaticChannel(registry *channel.Registry, d *control.Dispatcher, presets *preset.Table, spec config.ChannelSpec) {
	c, err := registry.Create(spec.SSRC)
	if err != nil {
		log.Printf("radiocore: static channel ssrc %#x: %v", spec.SSRC, err)
		return
	}
	c.Tune.Frequency = spec.Frequency
	c.Output.Dest = spec.Dest
	if spec.Dest == "" {
		c.Output.Dest = d.DefaultDest
	}
	if spec.SampleRate > 0 {
		c.Output.SampleRate = spec.SampleRate
	}

	enc := tlv.NewEncoder()
	if spec.Preset != "" {
		enc.String(tlv.Preset, spec.Preset)
	}
	fields := tlv.Decode(enc.Bytes())
	control.ApplyCommand(c, fields, presets)
	c.RefreshLifetime(d.IdleTimeout)
}

func mustStatusSocket(groupAddr, ifaceName string) (*net.UDPConn, *net.UDPAddr) {
	addr, err := mcast.Resolve(groupAddr)
	if err != nil {
		log.Fatalf("radiocore: status group %s: %v", groupAddr, err)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		log.Fatalf("radiocore: status socket: %v", err)
	}
	return conn, addr
}
