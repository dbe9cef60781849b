package config

import (
	"errors"
	"strings"

	"github.com/abgdnv/storesync/pkg/config"
	"github.com/abgdnv/storesync/pkg/config/configloader"
)

var _ configloader.Validator = (*Config)(nil)

type Config struct {
	HTTPServer     config.HTTPConfig           `koanf:"server"`
	Gateway        config.GatewayConfig        `koanf:"gateway"`
	CircuitBreaker config.CircuitBreakerConfig `koanf:"circuitbreaker"`
	Notify         config.NotifyConfig         `koanf:"notify"`
	Nats           config.NATSConfig           `koanf:"nats"`
	Log            config.LogConfig            `koanf:"log"`
	PProf          config.PProfConfig          `koanf:"pprof"`
	Telemetry      config.TelemetryConfig      `koanf:"telemetry"`
	Shutdown       config.ShutdownConfig       `koanf:"shutdown"`
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.Gateway.String())
	b.WriteString(c.CircuitBreaker.String())
	b.WriteString(c.Notify.String())
	b.WriteString(c.Nats.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("configuration is empty")
	}
	validators := []configloader.Validator{
		&c.HTTPServer,
		&c.Gateway,
		&c.CircuitBreaker,
		&c.Notify,
		&c.Nats,
		&c.Log,
		&c.PProf,
		&c.Telemetry,
		&c.Shutdown,
	}
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

var _ configloader.Validator = (*TailConfig)(nil)

// TailConfig is the configuration of storesync-tail, read from the same sources as Config.
type TailConfig struct {
	Nats       config.NATSConfig       `koanf:"nats"`
	Subscriber config.SubscriberConfig `koanf:"subscriber"`
	Log        config.LogConfig        `koanf:"log"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
}

func (c *TailConfig) String() string {
	var b strings.Builder
	b.WriteString(c.Nats.String())
	b.WriteString(c.Subscriber.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.Shutdown.String())
	return b.String()
}

func (c *TailConfig) Validate() error {
	if c == nil {
		return errors.New("configuration is empty")
	}
	if !c.Nats.Enabled() {
		return errors.New("NATS url is not configured")
	}
	if err := c.Nats.Validate(); err != nil {
		return err
	}
	if err := c.Subscriber.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return c.Shutdown.Validate()
}
