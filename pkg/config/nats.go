package config

import (
	"fmt"
	"strings"
	"time"
)

// NATSConfig configures the optional NATS sink for notifications.
// Leaving Url empty disables the sink.
type NATSConfig struct {
	Url     string        `koanf:"url"`
	Stream  string        `koanf:"stream"`
	Subject string        `koanf:"subject"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *NATSConfig) Enabled() bool {
	return c.Url != ""
}

// String returns a string representation of the NATS configuration.
func (c *NATSConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- NATS ---\n")
	b.WriteString(fmt.Sprintf("  url: %s\n", c.Url))
	b.WriteString(fmt.Sprintf("  stream: %s\n", c.Stream))
	b.WriteString(fmt.Sprintf("  subject: %s\n", c.Subject))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	return b.String()
}

func (c *NATSConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if c.Stream == "" {
		return fmt.Errorf("NATS stream is not configured")
	}
	if c.Subject == "" {
		return fmt.Errorf("NATS subject is not configured")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("nats dial timeout is not configured")
	}
	return nil
}
