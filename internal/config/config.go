// Package config handles tertool configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Nielk1/bz2terraineditor/pkg/flatzone"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all tertool settings.
type Config struct {
	Flatten FlattenConfig `yaml:"flatten"`
	Output  OutputConfig  `yaml:"output"`
	Slopes  SlopeConfig   `yaml:"slopes"`
	Logging LoggingConfig `yaml:"logging"`
}

// FlattenConfig holds flat-zone resolution settings.
type FlattenConfig struct {
	MaxRange       float32 `yaml:"max_range"`       // Largest flatness a cluster may have to join a region
	MergeTolerance float32 `yaml:"merge_tolerance"` // Largest height gap between merged regions
}

// Options converts the settings into resolver options.
func (f FlattenConfig) Options() flatzone.Options {
	return flatzone.Options{
		MaxRange:       f.MaxRange,
		MergeTolerance: f.MergeTolerance,
	}
}

// OutputConfig controls how edited terrains are written.
type OutputConfig struct {
	CompatVersionTag bool   `yaml:"compat_version_tag"` // Tag versions below 4 as 3
	Suffix           string `yaml:"suffix"`             // Appended to the input name when -o is not given
}

// SlopeConfig holds slope classification settings.
type SlopeConfig struct {
	MaxAngleDegrees float32 `yaml:"max_angle_degrees"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	opts := flatzone.DefaultOptions()
	return &Config{
		Flatten: FlattenConfig{
			MaxRange:       opts.MaxRange,
			MergeTolerance: opts.MergeTolerance,
		},
		Output: OutputConfig{
			CompatVersionTag: false,
			Suffix:           ".edited",
		},
		Slopes: SlopeConfig{
			MaxAngleDegrees: 45,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate rejects settings no command can work with.
func (c *Config) Validate() error {
	if err := c.Flatten.Options().Validate(); err != nil {
		return fmt.Errorf("%w: flatten: %w", ErrInvalidConfig, err)
	}
	if c.Slopes.MaxAngleDegrees <= 0 || c.Slopes.MaxAngleDegrees > 90 {
		return fmt.Errorf("%w: slopes: max angle %v outside (0, 90]", ErrInvalidConfig, c.Slopes.MaxAngleDegrees)
	}
	if c.Output.Suffix == "" {
		return fmt.Errorf("%w: output: empty suffix would overwrite the input", ErrInvalidConfig)
	}
	return nil
}
