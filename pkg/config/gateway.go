package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// GatewayConfig describes how the remote storefront API is reached.
type GatewayConfig struct {
	BaseURL string        `koanf:"baseurl"`
	Timeout time.Duration `koanf:"timeout"`
	Token   string        `koanf:"token"`
}

// String returns a string representation of the gateway configuration.
func (c *GatewayConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Gateway ---\n")
	b.WriteString(fmt.Sprintf("  baseurl: %s\n", c.BaseURL))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  token: %s\n", maskSecret(c.Token)))
	return b.String()
}

func (c *GatewayConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("gateway base URL is not configured")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("gateway base URL must be absolute: %s", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("gateway timeout is not configured")
	}
	return nil
}

func maskSecret(s string) string {
	if s == "" {
		return "<not configured>"
	}
	return "****"
}
