package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stellarforge/fleet-tactics/pkg/logger"
)

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*BattleConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config BattleConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadConfigOrDefault loads config from file or returns the default, with
// environment overrides applied in both cases
func LoadConfigOrDefault(path string) (*BattleConfig, error) {
	var config *BattleConfig
	var err error

	if path != "" {
		config, err = LoadConfig(path)
		if err != nil {
			logger.Warnf("could not load config from %s: %v", path, err)
			config = nil
		}
	}

	if config == nil {
		defaultPaths := []string{
			"config.yaml",
			"fleet-battle.yaml",
			filepath.Join("cmd", "fleet-battle", "config.yaml"),
		}

		for _, p := range defaultPaths {
			if _, statErr := os.Stat(p); statErr == nil {
				config, err = LoadConfig(p)
				if err == nil {
					logger.Infof("loaded config from: %s", p)
					break
				}
			}
		}
	}

	if config == nil {
		logger.Info("using default configuration")
		config = GetDefaultConfig()
	}

	MergeWithEnvironment(config)

	return config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *BattleConfig, path string) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// LoadConfigWithOverrides loads config and applies environment then CLI overrides
func LoadConfigWithOverrides(path string, cliOverrides map[string]interface{}) (*BattleConfig, error) {
	config, err := LoadConfigOrDefault(path)
	if err != nil {
		return nil, err
	}

	if cliOverrides != nil {
		MergeWithCLIOverrides(config, cliOverrides)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed after overrides: %w", err)
	}

	return config, nil
}

// MergeWithCLIOverrides applies CLI parameter overrides to the configuration
func MergeWithCLIOverrides(config *BattleConfig, overrides map[string]interface{}) {
	for key, value := range overrides {
		switch key {
		case "blue_ships":
			if count, ok := value.(int); ok && count > 0 {
				config.BlueFleet.NumShips = count
			}
		case "red_ships":
			if count, ok := value.(int); ok && count > 0 {
				config.RedFleet.NumShips = count
			}
		case "seed":
			switch v := value.(type) {
			case int:
				config.Simulation.Seed = int64(v)
			case int64:
				config.Simulation.Seed = v
			}
		case "tick_interval":
			switch v := value.(type) {
			case time.Duration:
				if v > 0 {
					config.Simulation.TickInterval = Duration(v)
				}
			case string:
				// Manifest defaults surface durations as strings.
				if duration, err := time.ParseDuration(v); err == nil && duration > 0 {
					config.Simulation.TickInterval = Duration(duration)
				}
			}
		case "aggression":
			if agg, ok := value.(float64); ok && agg >= 0 && agg <= 1 {
				config.Combat.Aggression = agg
			}
		case "base_engager_limit":
			if limit, ok := value.(int); ok && limit > 0 {
				config.Targeting.BaseEngagerLimit = limit
			}
		case "max_ticks":
			if ticks, ok := value.(int); ok && ticks > 0 {
				config.Termination.MaxTicks = ticks
			}
		case "enable_aar":
			if enable, ok := value.(bool); ok {
				config.Logging.EnableAAR = enable
			}
		case "log_level":
			if level, ok := value.(string); ok && isValidLogLevel(level) {
				config.Logging.ConsoleLevel = level
			}
		}
	}
}

// MergeWithEnvironment merges config with environment variables
func MergeWithEnvironment(config *BattleConfig) {
	if tickInterval := os.Getenv("FLEET_TICK_INTERVAL"); tickInterval != "" {
		if duration, err := time.ParseDuration(tickInterval); err == nil && duration > 0 {
			config.Simulation.TickInterval = Duration(duration)
		}
	}

	if blueShips := os.Getenv("FLEET_BLUE_SHIPS"); blueShips != "" {
		if count, err := strconv.Atoi(blueShips); err == nil && count > 0 {
			config.BlueFleet.NumShips = count
		}
	}

	if redShips := os.Getenv("FLEET_RED_SHIPS"); redShips != "" {
		if count, err := strconv.Atoi(redShips); err == nil && count > 0 {
			config.RedFleet.NumShips = count
		}
	}

	if seed := os.Getenv("FLEET_SEED"); seed != "" {
		if value, err := strconv.ParseInt(seed, 10, 64); err == nil {
			config.Simulation.Seed = value
		}
	}

	if aggression := os.Getenv("FLEET_AGGRESSION"); aggression != "" {
		if value, err := strconv.ParseFloat(aggression, 64); err == nil && value >= 0 && value <= 1 {
			config.Combat.Aggression = value
		}
	}

	if limit := os.Getenv("FLEET_BASE_ENGAGER_LIMIT"); limit != "" {
		if value, err := strconv.Atoi(limit); err == nil && value > 0 {
			config.Targeting.BaseEngagerLimit = value
		}
	}

	if workerPool := os.Getenv("FLEET_WORKER_POOL_SIZE"); workerPool != "" {
		if size, err := strconv.Atoi(workerPool); err == nil && size > 0 {
			config.Performance.WorkerPoolSize = size
		}
	}

	if logLevel := os.Getenv("FLEET_LOG_LEVEL"); logLevel != "" {
		if isValidLogLevel(strings.ToLower(logLevel)) {
			config.Logging.ConsoleLevel = strings.ToLower(logLevel)
		}
	}

	if telemetryPath := os.Getenv("FLEET_TELEMETRY_PATH"); telemetryPath != "" {
		config.Logging.TelemetryPath = telemetryPath
	}
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
