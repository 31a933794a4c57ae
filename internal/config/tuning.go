// Package config loads the JSON tuning file shared by the scanner and scope
// binaries. Fields omitted from the file keep their defaults, so partial
// configs are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldscan/sonarscope/internal/serialmux"
)

// TuningConfig is the root tuning schema. All fields are optional pointers;
// the Get* accessors supply defaults for unset values.
type TuningConfig struct {
	// Sweep params
	StepDegrees    *int    `json:"step_degrees,omitempty"`
	SettleDelay    *string `json:"settle_delay,omitempty"`     // duration string like "15ms"
	MeasureTimeout *string `json:"measure_timeout,omitempty"`  // duration string like "30ms"
	MaxDistanceCM  *int    `json:"max_distance_cm,omitempty"`

	// Scope params
	CanvasSize     *int `json:"canvas_size,omitempty"`
	FrameRateHz    *int `json:"frame_rate_hz,omitempty"`
	TrailTTLFrames *int `json:"trail_ttl_frames,omitempty"`

	// Serial port params
	Serial *serialmux.PortOptions `json:"serial,omitempty"`
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &TuningConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	if c.StepDegrees != nil && (*c.StepDegrees < 1 || *c.StepDegrees > 180) {
		return fmt.Errorf("step_degrees must be between 1 and 180, got %d", *c.StepDegrees)
	}
	if c.SettleDelay != nil && *c.SettleDelay != "" {
		if _, err := time.ParseDuration(*c.SettleDelay); err != nil {
			return fmt.Errorf("invalid settle_delay %q: %w", *c.SettleDelay, err)
		}
	}
	if c.MeasureTimeout != nil && *c.MeasureTimeout != "" {
		if _, err := time.ParseDuration(*c.MeasureTimeout); err != nil {
			return fmt.Errorf("invalid measure_timeout %q: %w", *c.MeasureTimeout, err)
		}
	}
	if c.MaxDistanceCM != nil && *c.MaxDistanceCM <= 0 {
		return fmt.Errorf("max_distance_cm must be positive, got %d", *c.MaxDistanceCM)
	}
	if c.CanvasSize != nil && *c.CanvasSize < 11 {
		return fmt.Errorf("canvas_size must be at least 11, got %d", *c.CanvasSize)
	}
	if c.FrameRateHz != nil && (*c.FrameRateHz < 1 || *c.FrameRateHz > 240) {
		return fmt.Errorf("frame_rate_hz must be between 1 and 240, got %d", *c.FrameRateHz)
	}
	if c.TrailTTLFrames != nil && *c.TrailTTLFrames < 1 {
		return fmt.Errorf("trail_ttl_frames must be positive, got %d", *c.TrailTTLFrames)
	}
	if c.Serial != nil {
		if _, err := c.Serial.Normalize(); err != nil {
			return fmt.Errorf("invalid serial options: %w", err)
		}
	}
	return nil
}

// GetStepDegrees returns step_degrees or the default.
func (c *TuningConfig) GetStepDegrees() int {
	if c.StepDegrees == nil {
		return 1
	}
	return *c.StepDegrees
}

// GetSettleDelay parses settle_delay or returns the default.
func (c *TuningConfig) GetSettleDelay() time.Duration {
	if c.SettleDelay == nil || *c.SettleDelay == "" {
		return 15 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.SettleDelay)
	if err != nil {
		return 15 * time.Millisecond
	}
	return d
}

// GetMeasureTimeout parses measure_timeout or returns the default.
func (c *TuningConfig) GetMeasureTimeout() time.Duration {
	if c.MeasureTimeout == nil || *c.MeasureTimeout == "" {
		return 30 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.MeasureTimeout)
	if err != nil {
		return 30 * time.Millisecond
	}
	return d
}

// GetMaxDistanceCM returns max_distance_cm or the default.
func (c *TuningConfig) GetMaxDistanceCM() int {
	if c.MaxDistanceCM == nil {
		return 400
	}
	return *c.MaxDistanceCM
}

// GetCanvasSize returns canvas_size or the default.
func (c *TuningConfig) GetCanvasSize() int {
	if c.CanvasSize == nil {
		return 41
	}
	return *c.CanvasSize
}

// GetFrameRateHz returns frame_rate_hz or the default.
func (c *TuningConfig) GetFrameRateHz() int {
	if c.FrameRateHz == nil {
		return 30
	}
	return *c.FrameRateHz
}

// GetTrailTTLFrames returns trail_ttl_frames or the default.
func (c *TuningConfig) GetTrailTTLFrames() int {
	if c.TrailTTLFrames == nil {
		return 30
	}
	return *c.TrailTTLFrames
}

// GetSerial returns the serial options, or the zero options (which normalize
// to 115200 8N1).
func (c *TuningConfig) GetSerial() serialmux.PortOptions {
	if c.Serial == nil {
		return serialmux.PortOptions{}
	}
	return *c.Serial
}
