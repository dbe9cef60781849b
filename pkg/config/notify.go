package config

import (
	"fmt"
	"strings"
)

const defaultNotifyQueueSize = 64

type NotifyConfig struct {
	QueueSize int `koanf:"queuesize"`
}

// String returns a string representation of the notification channel configuration.
func (c *NotifyConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Notifications ---\n")
	b.WriteString(fmt.Sprintf("  queuesize: %d\n", c.QueueSize))
	return b.String()
}

func (c *NotifyConfig) Validate() error {
	if c.QueueSize < 0 {
		return fmt.Errorf("notify queue size must not be negative: %d", c.QueueSize)
	}
	if c.QueueSize == 0 {
		c.QueueSize = defaultNotifyQueueSize
	}
	return nil
}
