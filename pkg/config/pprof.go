package config

import (
	"fmt"
	"log"
	"strings"
)

const defaultPProfAddr = "localhost:6060"

// PProfConfig enables the net/http/pprof endpoints on a separate listener.
type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// String returns a string representation of the pprof configuration.
func (c *PProfConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- PProf ---\n")
	b.WriteString(fmt.Sprintf("  enabled: %t\n", c.Enabled))
	b.WriteString(fmt.Sprintf("  addr: %s\n", c.Addr))
	return b.String()
}

func (c *PProfConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		log.Println("Using default value for pprof addr")
		c.Addr = defaultPProfAddr
	}
	if !strings.Contains(c.Addr, ":") {
		return fmt.Errorf("pprof addr must be host:port: %s", c.Addr)
	}
	return nil
}
