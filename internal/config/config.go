package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Athlete   AthleteConfig   `json:"athlete"`
	Detection DetectionConfig `json:"detection"`
	Display   DisplayConfig   `json:"display"`
	Server    ServerConfig    `json:"server"`
	Storage   StorageConfig   `json:"storage"`
}

// AthleteConfig holds athlete-specific settings used for zone fallbacks
type AthleteConfig struct {
	Age          int     `json:"age"`
	Gender       string  `json:"gender"`
	MaxHR        int     `json:"max_hr"`
	FitnessLevel string  `json:"fitness_level"`
	LT1Pct       float64 `json:"lt1_pct"`
	LT2Pct       float64 `json:"lt2_pct"`
}

// DetectionConfig tunes the threshold detectors
type DetectionConfig struct {
	RiseDelta      float64 `json:"rise_delta"`
	DickhuthOffset float64 `json:"dickhuth_offset"`
}

// DisplayConfig holds display preferences
type DisplayConfig struct {
	PaceUnit string `json:"pace_unit"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Addr string `json:"addr"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DBPath string `json:"db_path"`
}

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

var validGenders = map[string]bool{"": true, "MALE": true, "FEMALE": true}

var validFitnessLevels = map[string]bool{
	"":               true,
	"UNTRAINED":      true,
	"RECREATIONAL":   true,
	"TRAINED":        true,
	"WELL_TRAINED":   true,
	"HIGHLY_TRAINED": true,
	"ELITE":          true,
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Detection: DetectionConfig{
			RiseDelta:      0.5,
			DickhuthOffset: 1.5,
		},
		Display: DisplayConfig{
			PaceUnit: "min/km",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load reads the configuration from ~/.lactest/config.json
func Load() (*Config, error) {
	path, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from path and fills missing values with
// defaults
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if cfg.Detection.RiseDelta == 0 {
		cfg.Detection.RiseDelta = defaults.Detection.RiseDelta
	}
	if cfg.Detection.DickhuthOffset == 0 {
		cfg.Detection.DickhuthOffset = defaults.Detection.DickhuthOffset
	}
	if cfg.Display.PaceUnit == "" {
		cfg.Display.PaceUnit = defaults.Display.PaceUnit
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}

	return &cfg, nil
}

// ApplyEnv overrides settings from LACTEST_* environment variables. A .env
// file in the working directory is loaded first when present.
func (c *Config) ApplyEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading .env: %w", err)
	}

	if v := os.Getenv("LACTEST_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("LACTEST_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LACTEST_MAX_HR"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LACTEST_MAX_HR: %w", err)
		}
		c.Athlete.MaxHR = n
	}
	if v := os.Getenv("LACTEST_AGE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LACTEST_AGE: %w", err)
		}
		c.Athlete.Age = n
	}
	return nil
}

// Save writes the configuration to ~/.lactest/config.json
func Save(cfg *Config) error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Athlete = AthleteConfig{
		Age:          35,
		Gender:       "MALE",
		FitnessLevel: "TRAINED",
	}

	return Save(&example)
}

// Validate checks that configured values are usable
func (c *Config) Validate() error {
	if c.Athlete.Age < 0 || c.Athlete.Age > 100 {
		return fmt.Errorf("athlete.age must be between 0 and 100, got %d", c.Athlete.Age)
	}
	if !validGenders[c.Athlete.Gender] {
		return fmt.Errorf("athlete.gender must be \"MALE\" or \"FEMALE\", got %q", c.Athlete.Gender)
	}
	if c.Athlete.MaxHR != 0 && (c.Athlete.MaxHR < 100 || c.Athlete.MaxHR > 240) {
		return fmt.Errorf("athlete.max_hr must be between 100 and 240, got %d", c.Athlete.MaxHR)
	}
	if !validFitnessLevels[c.Athlete.FitnessLevel] {
		return fmt.Errorf("athlete.fitness_level %q is not a known level", c.Athlete.FitnessLevel)
	}

	// Percentages are optional but must come as an ordered pair
	if c.Athlete.LT1Pct != 0 || c.Athlete.LT2Pct != 0 {
		if c.Athlete.LT1Pct <= 0 || c.Athlete.LT1Pct >= c.Athlete.LT2Pct || c.Athlete.LT2Pct >= 100 {
			return fmt.Errorf("athlete.lt1_pct (%v) must be below athlete.lt2_pct (%v) and both below 100", c.Athlete.LT1Pct, c.Athlete.LT2Pct)
		}
	}

	if c.Detection.RiseDelta < 0 {
		return fmt.Errorf("detection.rise_delta must be positive, got %v", c.Detection.RiseDelta)
	}
	if c.Detection.DickhuthOffset < 0 {
		return fmt.Errorf("detection.dickhuth_offset must be positive, got %v", c.Detection.DickhuthOffset)
	}

	// Validate display units
	if c.Display.PaceUnit != "" && c.Display.PaceUnit != "min/km" && c.Display.PaceUnit != "min/mi" {
		return fmt.Errorf("display.pace_unit must be \"min/km\" or \"min/mi\", got %q", c.Display.PaceUnit)
	}

	return nil
}

// DBPath returns the configured database path or ~/.lactest/lactest.db
func (c *Config) DBPath() (string, error) {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath, nil
	}
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "lactest.db"), nil
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".lactest"), nil
}
