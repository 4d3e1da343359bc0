package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidServerConfig = errors.New("invalid server config")

// Validate rejects server settings that cannot start a listener.
func (c ServerConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.ListenAddr) == "":
		return fmt.Errorf("%w: listen_addr is empty", ErrInvalidServerConfig)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidServerConfig, c.Workers)
	case c.MaxTextBytes <= 0:
		return fmt.Errorf("%w: max_text_bytes must be > 0, got %d", ErrInvalidServerConfig, c.MaxTextBytes)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("%w: request_timeout must be > 0, got %d", ErrInvalidServerConfig, c.RequestTimeout)
	case c.ShutdownTimeout < 0:
		return fmt.Errorf("%w: shutdown_timeout must be >= 0, got %d", ErrInvalidServerConfig, c.ShutdownTimeout)
	}

	return nil
}
