package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the machine parameters of the Tomasulo engine.
// Defaults follow the classic configuration of five integer and three
// floating-point reservation stations feeding three integer units and one
// floating-point unit.
type Config struct {
	// InstrQueueSize is the capacity of the instruction queue. Default: 16.
	InstrQueueSize int `json:"instr_queue_size"`

	// IntRSSize is the number of integer reservation stations. Default: 5.
	IntRSSize int `json:"int_rs_size"`

	// FPRSSize is the number of floating-point reservation stations. Default: 3.
	FPRSSize int `json:"fp_rs_size"`

	// IntFUCount is the number of integer functional units. Default: 3.
	IntFUCount int `json:"int_fu_count"`

	// FPFUCount is the number of floating-point functional units. Default: 1.
	FPFUCount int `json:"fp_fu_count"`

	// IntFULatency is the occupancy of an integer unit in cycles.
	// Loads and stores also use it. Default: 5 cycles.
	IntFULatency uint64 `json:"int_fu_latency"`

	// FPFULatency is the occupancy of a floating-point unit in cycles.
	// Default: 7 cycles.
	FPFULatency uint64 `json:"fp_fu_latency"`

	// NumRegs is the size of the logical register file tracked by the map
	// table. Default: insts.NumRegs.
	NumRegs int `json:"num_regs"`
}

// DefaultConfig returns a Config with the classic Tomasulo parameters.
func DefaultConfig() *Config {
	return &Config{
		InstrQueueSize: 16,
		IntRSSize:      5,
		FPRSSize:       3,
		IntFUCount:     3,
		FPFUCount:      1,
		IntFULatency:   5,
		FPFULatency:    7,
		NumRegs:        defaultNumRegs,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse machine config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize machine config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write machine config file: %w", err)
	}

	return nil
}

// Validate checks that every size and latency is positive.
func (c *Config) Validate() error {
	if c.InstrQueueSize <= 0 {
		return fmt.Errorf("instr_queue_size must be > 0")
	}
	if c.IntRSSize <= 0 {
		return fmt.Errorf("int_rs_size must be > 0")
	}
	if c.FPRSSize <= 0 {
		return fmt.Errorf("fp_rs_size must be > 0")
	}
	if c.IntFUCount <= 0 {
		return fmt.Errorf("int_fu_count must be > 0")
	}
	if c.FPFUCount <= 0 {
		return fmt.Errorf("fp_fu_count must be > 0")
	}
	if c.IntFULatency == 0 {
		return fmt.Errorf("int_fu_latency must be > 0")
	}
	if c.FPFULatency == 0 {
		return fmt.Errorf("fp_fu_latency must be > 0")
	}
	if c.NumRegs <= 0 {
		return fmt.Errorf("num_regs must be > 0")
	}
	return nil
}

// Clone returns a copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
