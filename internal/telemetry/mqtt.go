// Package telemetry optionally republishes channel status snapshots to an
// MQTT broker on a ticker, the same publish-on-interval shape as the
// teacher's mqtt_publisher.go (which does this for noise-floor/decoder
// metrics; here it's channel status instead).
package telemetry

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/cwsl/radiocore/internal/channel"
)

// Snapshot is the JSON payload published per channel per tick.
type Snapshot struct {
	Timestamp int64   `json:"timestamp"`
	SSRC      uint32  `json:"ssrc"`
	Frequency float64 `json:"frequency"`
	DemodType int     `json:"demod_type"`
	SNR       float64 `json:"snr_db"`
	Squelch   int     `json:"squelch_state"`
}

// Publisher periodically publishes a Snapshot per in-use channel.
type Publisher struct {
	client mqtt.Client
	topic  string
	reg    *channel.Registry
	stop   chan struct{}
}

func generateClientID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return "radiocore_" + hex.EncodeToString(b)
}

// NewPublisher connects to broker and returns a Publisher ready to Start.
func NewPublisher(broker, topic string, reg *channel.Registry) (*Publisher, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker).SetClientID(generateClientID())
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("telemetry: connect %s: %w", broker, token.Error())
	}
	return &Publisher{client: client, topic: topic, reg: reg, stop: make(chan struct{})}, nil
}

// Start begins publishing on the given interval until Stop is called.
func (p *Publisher) Start(interval time.Duration, nowNano func() int64) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				p.publishAll(nowNano())
			}
		}
	}()
}

func (p *Publisher) publishAll(nowNano int64) {
	p.reg.Each(func(c *channel.Channel) {
		c.Mu.Lock()
		snap := Snapshot{
			Timestamp: nowNano,
			SSRC:      c.SSRC,
			Frequency: c.Tune.Frequency,
			DemodType: int(c.DemodType),
			SNR:       c.Estimators.SNR,
			Squelch:   int(c.Squelch.State),
		}
		c.Mu.Unlock()

		payload, err := json.Marshal(snap)
		if err != nil {
			log.Printf("telemetry: marshal snapshot for ssrc %#x: %v", c.SSRC, err)
			return
		}
		topic := fmt.Sprintf("%s/%d", p.topic, c.SSRC)
		p.client.Publish(topic, 0, false, payload)
	})
}

// Stop disconnects the MQTT client and halts the publish loop.
func (p *Publisher) Stop() {
	close(p.stop)
	p.client.Disconnect(250)
}
