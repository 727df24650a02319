// Package config loads the process configuration the core is driven by:
// a YAML file parsed with yaml.v3 into a Config struct-of-structs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level parsed configuration.
type Config struct {
	Frontend FrontendConfig `yaml:"frontend"`
	Control  ControlConfig  `yaml:"control"`
	Presets  string         `yaml:"presets"` // path to a preset table file
	Channels []ChannelSpec  `yaml:"channels"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
}

// FrontendConfig describes the already-initialized frontend descriptor's
// fields, as handed in rather than discovered.
type FrontendConfig struct {
	SampleRate    float64 `yaml:"sample_rate"`
	Complex       bool    `yaml:"complex"`
	BitsPerSample int     `yaml:"bits_per_sample"`
	CalibratePPM  float64 `yaml:"calibrate_ppm"`
	MinIF         float64 `yaml:"min_if"`
	MaxIF         float64 `yaml:"max_if"`
	CenterFreq    float64 `yaml:"center_frequency"`
	BlockSize     int     `yaml:"block_size"`
	ImpulseLength int     `yaml:"impulse_length"`
}

// ControlConfig configures the two injected datagram sockets: the
// control/status socket and the default data-destination socket.
type ControlConfig struct {
	StatusGroup  string `yaml:"status_group"`
	DataGroup    string `yaml:"data_group"`
	Interface    string `yaml:"interface"`
	IdleTimeout  int    `yaml:"idle_timeout_blocks"`
	MaxChannels  int    `yaml:"max_channels"`
}

// ChannelSpec is a statically-configured channel created at startup. An
// entry that omits ssrc gets Frequency/1000 as its ssrc.
type ChannelSpec struct {
	SSRC       uint32  `yaml:"ssrc"`
	Preset     string  `yaml:"preset"`
	Frequency  float64 `yaml:"frequency"`
	DemodType  string  `yaml:"demod_type"`
	SampleRate float64 `yaml:"sample_rate"`
	Dest       string  `yaml:"dest"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// MQTTConfig configures the optional telemetry publisher.
type MQTTConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Broker       string `yaml:"broker"`
	Topic        string `yaml:"topic"`
	IntervalSecs int    `yaml:"interval_secs"`
}

// Load reads and parses a YAML config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if c.Control.IdleTimeout == 0 {
		c.Control.IdleTimeout = 300
	}
	for i := range c.Channels {
		if c.Channels[i].SSRC == 0 {
			c.Channels[i].SSRC = uint32(c.Channels[i].Frequency / 1000)
		}
	}
	return &c, nil
}
