package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds latency values for the supported operation classes.
type TimingConfig struct {
	// AddLatency is the execution latency of the + operation. Default: 1 cycle.
	AddLatency uint64 `json:"add_latency"`

	// SubLatency is the execution latency of the - operation. Default: 1 cycle.
	SubLatency uint64 `json:"sub_latency"`

	// MultiplyLatency is the execution latency of the * operation.
	// Default: 2 cycles.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// LoadLatency is the execution latency of Load. Default: 3 cycles.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the execution latency of Store. Default: 3 cycles.
	StoreLatency uint64 `json:"store_latency"`
}

// DefaultTimingConfig returns a TimingConfig with the standard latencies.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		AddLatency:      1,
		SubLatency:      1,
		MultiplyLatency: 2,
		LoadLatency:     3,
		StoreLatency:    3,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.AddLatency == 0 {
		return fmt.Errorf("add_latency must be > 0")
	}
	if c.SubLatency == 0 {
		return fmt.Errorf("sub_latency must be > 0")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
