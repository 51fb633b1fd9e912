package config

import (
	"errors"
	"fmt"

	"github.com/AtriumDB/atrium/pkg/telemetry"
)

const (
	CurrentConfigVersion = 1

	// DefaultPageSize is the extent size handed to fresh pages when the
	// owning layer does not dictate one.
	DefaultPageSize = 4 * 1024 * 1024 // 4MB

	// MinPageSize leaves room for the header, index slots and entries.
	MinPageSize = 4096

	// MaxPageSize mirrors the page format's 32-bit offset limit.
	MaxPageSize = 0xFFFFFFFF
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config carries the tunables of the page store.
type Config struct {
	Version int `json:"version"`

	// Page configuration
	PageSize uint64 `json:"page_size"`

	// Telemetry configuration
	Telemetry telemetry.Config `json:"telemetry"`
}

// NewDefaultConfig creates a Config with recommended default values
func NewDefaultConfig() *Config {
	return &Config{
		Version:   CurrentConfigVersion,
		PageSize:  DefaultPageSize,
		Telemetry: telemetry.DefaultConfig(),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version <= 0 {
		return fmt.Errorf("%w: invalid version %d", ErrInvalidConfig, c.Version)
	}

	if c.PageSize < MinPageSize {
		return fmt.Errorf("%w: page size %d below minimum %d", ErrInvalidConfig, c.PageSize, MinPageSize)
	}

	if c.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page size %d above maximum %d", ErrInvalidConfig, c.PageSize, uint64(MaxPageSize))
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("%w: telemetry: %v", ErrInvalidConfig, err)
	}

	return nil
}
