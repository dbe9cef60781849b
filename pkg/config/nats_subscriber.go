package config

import (
	"fmt"
	"log"
	"strings"
	"time"
)

const (
	defaultSubscriberBatch    = 10
	defaultSubscriberTimeout  = 5 * time.Second
	defaultSubscriberInterval = time.Second
	defaultSubscriberWorkers  = 1
)

// SubscriberConfig configures the durable pull consumer of storesync-tail.
// Stream and subject are taken from NATSConfig.
type SubscriberConfig struct {
	Consumer string        `koanf:"consumer"`
	Batch    int           `koanf:"batch"`
	Timeout  time.Duration `koanf:"timeout"`
	Interval time.Duration `koanf:"interval"`
	Workers  int           `koanf:"workers"`
}

// String returns a string representation of the NATS Subscriber configuration.
func (c *SubscriberConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- NATS Subscriber ---\n")
	b.WriteString(fmt.Sprintf("  consumer: %s\n", c.Consumer))
	b.WriteString(fmt.Sprintf("  batch: %d\n", c.Batch))
	b.WriteString(fmt.Sprintf("  timeout: %s\n", c.Timeout))
	b.WriteString(fmt.Sprintf("  interval: %s\n", c.Interval))
	b.WriteString(fmt.Sprintf("  workers: %d\n", c.Workers))
	return b.String()
}

// Validate requires a consumer name and fills in defaults for the fetch settings.
func (c *SubscriberConfig) Validate() error {
	if c.Consumer == "" {
		return fmt.Errorf("subscriber consumer is not configured")
	}
	if c.Batch < 0 || c.Timeout < 0 || c.Interval < 0 || c.Workers < 0 {
		return fmt.Errorf("subscriber settings must not be negative")
	}
	if c.Batch == 0 {
		log.Println("Using default value for subscriber batch")
		c.Batch = defaultSubscriberBatch
	}
	if c.Timeout == 0 {
		log.Println("Using default value for subscriber timeout")
		c.Timeout = defaultSubscriberTimeout
	}
	if c.Interval == 0 {
		log.Println("Using default value for subscriber interval")
		c.Interval = defaultSubscriberInterval
	}
	if c.Workers == 0 {
		log.Println("Using default value for subscriber workers")
		c.Workers = defaultSubscriberWorkers
	}
	return nil
}
