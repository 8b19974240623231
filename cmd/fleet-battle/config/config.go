package config

import (
	"fmt"
	"time"
)

// BattleConfig holds the complete fleet battle configuration
type BattleConfig struct {
	// Basic simulation settings
	Simulation SimulationSettings `yaml:"simulation"`

	// Performance settings
	Performance PerformanceConfig `yaml:"performance"`

	// Fleet compositions
	BlueFleet FleetConfig `yaml:"blue_fleet"`
	RedFleet  FleetConfig `yaml:"red_fleet"`

	// Per-ship combat behavior
	Combat CombatConfig `yaml:"combat"`

	// Fleet-wide targeting
	Targeting TargetingConfig `yaml:"targeting"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Termination conditions
	Termination TerminationConfig `yaml:"termination"`
}

// SimulationSettings holds basic simulation settings
type SimulationSettings struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	TickInterval Duration `yaml:"tick_interval"`
	Seed         int64    `yaml:"seed"`
	ArenaSize    float64  `yaml:"arena_size"`
}

// ShipStats defines the hull and weapon loadout shared by a fleet's ships
type ShipStats struct {
	Hull           float64  `yaml:"hull"`
	Shield         float64  `yaml:"shield"`
	Armor          float64  `yaml:"armor"`
	MaxSpeed       float64  `yaml:"max_speed"`
	TurnRate       float64  `yaml:"turn_rate"` // degrees per second
	WeaponRange    float64  `yaml:"weapon_range"`
	WeaponDamage   float64  `yaml:"weapon_damage"`
	WeaponCooldown Duration `yaml:"weapon_cooldown"`
}

// FleetConfig defines one side's composition
type FleetConfig struct {
	NumShips int       `yaml:"num_ships"`
	Stats    ShipStats `yaml:"stats"`
}

// CombatConfig defines the default per-ship combat profile
type CombatConfig struct {
	Aggression         float64  `yaml:"aggression"` // 0.0 to 1.0
	PreferredRange     float64  `yaml:"preferred_range"`
	RangeTolerance     float64  `yaml:"range_tolerance"`
	MinSafeDistance    float64  `yaml:"min_safe_distance"`
	MaxEngagementRange float64  `yaml:"max_engagement_range"`
	IntentPersistence  Duration `yaml:"intent_persistence"`
}

// TargetingConfig defines fleet-wide target assignment settings
type TargetingConfig struct {
	BaseEngagerLimit int `yaml:"base_engager_limit"`
}

// LoggingConfig defines logging and reporting settings
type LoggingConfig struct {
	ConsoleLevel    string `yaml:"console_level"` // "debug", "info", "warn", "error"
	EnableAAR       bool   `yaml:"enable_aar"`
	AAROutputPath   string `yaml:"aar_output_path"`
	EventBufferSize int    `yaml:"event_buffer_size"`
	TelemetryPath   string `yaml:"telemetry_path"`
}

// TerminationConfig defines how a battle ends
type TerminationConfig struct {
	MaxTicks    int      `yaml:"max_ticks"`
	MaxDuration Duration `yaml:"max_duration"`
}

// PerformanceConfig defines performance settings
type PerformanceConfig struct {
	WorkerPoolSize         int      `yaml:"worker_pool_size"`
	TelemetryFlushInterval Duration `yaml:"telemetry_flush_interval"`
}

// Validate checks if the configuration is valid
func (c *BattleConfig) Validate() error {
	if c.Simulation.Name == "" {
		return fmt.Errorf("simulation name is required")
	}

	if c.Simulation.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}

	if c.BlueFleet.NumShips <= 0 || c.RedFleet.NumShips <= 0 {
		return fmt.Errorf("both fleets must have at least one ship")
	}

	for _, fleet := range []struct {
		name  string
		stats ShipStats
	}{
		{"blue", c.BlueFleet.Stats},
		{"red", c.RedFleet.Stats},
	} {
		if fleet.stats.Hull <= 0 {
			return fmt.Errorf("%s fleet hull must be positive", fleet.name)
		}
		if fleet.stats.WeaponRange <= 0 {
			return fmt.Errorf("%s fleet weapon range must be positive", fleet.name)
		}
		if fleet.stats.WeaponDamage <= 0 {
			return fmt.Errorf("%s fleet weapon damage must be positive", fleet.name)
		}
		if fleet.stats.WeaponCooldown <= 0 {
			return fmt.Errorf("%s fleet weapon cooldown must be positive", fleet.name)
		}
		if fleet.stats.MaxSpeed <= 0 {
			return fmt.Errorf("%s fleet max speed must be positive", fleet.name)
		}
	}

	if c.Combat.Aggression < 0 || c.Combat.Aggression > 1 {
		return fmt.Errorf("aggression must be between 0.0 and 1.0")
	}

	if c.Combat.MinSafeDistance >= c.Combat.PreferredRange {
		return fmt.Errorf("min safe distance must be less than preferred range")
	}

	if c.Combat.PreferredRange >= c.Combat.MaxEngagementRange {
		return fmt.Errorf("preferred range must be less than max engagement range")
	}

	if c.Combat.IntentPersistence <= 0 {
		return fmt.Errorf("intent persistence must be positive")
	}

	if c.Targeting.BaseEngagerLimit <= 0 {
		return fmt.Errorf("base engager limit must be positive")
	}

	if c.Termination.MaxTicks <= 0 && c.Termination.MaxDuration <= 0 {
		return fmt.Errorf("a termination condition is required (max_ticks or max_duration)")
	}

	return nil
}

// String returns a human-readable representation of the configuration
func (c *BattleConfig) String() string {
	return fmt.Sprintf(`Battle Configuration:
  Name: %s
  Description: %s
  Tick Interval: %v
  Seed: %d
  Arena Size: %.0f

Fleets:
  Blue Ships: %d (hull %.0f, range %.0f)
  Red Ships: %d (hull %.0f, range %.0f)

Combat Profile:
  Aggression: %.2f
  Preferred Range: %.0f (+/- %.0f)
  Min Safe Distance: %.0f
  Max Engagement Range: %.0f
  Intent Persistence: %v

Targeting:
  Base Engager Limit: %d

Performance:
  Worker Pool Size: %d
  Telemetry Flush Interval: %v

Logging:
  Console Level: %s
  AAR Enabled: %t`,
		c.Simulation.Name,
		c.Simulation.Description,
		c.Simulation.TickInterval,
		c.Simulation.Seed,
		c.Simulation.ArenaSize,
		c.BlueFleet.NumShips,
		c.BlueFleet.Stats.Hull,
		c.BlueFleet.Stats.WeaponRange,
		c.RedFleet.NumShips,
		c.RedFleet.Stats.Hull,
		c.RedFleet.Stats.WeaponRange,
		c.Combat.Aggression,
		c.Combat.PreferredRange,
		c.Combat.RangeTolerance,
		c.Combat.MinSafeDistance,
		c.Combat.MaxEngagementRange,
		c.Combat.IntentPersistence,
		c.Targeting.BaseEngagerLimit,
		c.Performance.WorkerPoolSize,
		c.Performance.TelemetryFlushInterval,
		c.Logging.ConsoleLevel,
		c.Logging.EnableAAR,
	)
}

// GetDefaultConfig returns a default two-fleet skirmish configuration
func GetDefaultConfig() *BattleConfig {
	defaultStats := ShipStats{
		Hull:           100,
		Shield:         50,
		Armor:          5,
		MaxSpeed:       40,
		TurnRate:       90,
		WeaponRange:    200,
		WeaponDamage:   12,
		WeaponCooldown: Duration(1500 * time.Millisecond),
	}

	return &BattleConfig{
		Simulation: SimulationSettings{
			Name:         "fleet-battle",
			Description:  "Two-fleet space combat engagement",
			TickInterval: Duration(100 * time.Millisecond),
			Seed:         1,
			ArenaSize:    2000,
		},

		Performance: PerformanceConfig{
			WorkerPoolSize:         8,
			TelemetryFlushInterval: Duration(time.Second),
		},

		BlueFleet: FleetConfig{
			NumShips: 6,
			Stats:    defaultStats,
		},

		RedFleet: FleetConfig{
			NumShips: 6,
			Stats:    defaultStats,
		},

		Combat: CombatConfig{
			Aggression:         0.7,
			PreferredRange:     150,
			RangeTolerance:     50,
			MinSafeDistance:    80,
			MaxEngagementRange: 300,
			IntentPersistence:  Duration(2 * time.Second),
		},

		Targeting: TargetingConfig{
			BaseEngagerLimit: 3,
		},

		Logging: LoggingConfig{
			ConsoleLevel:    "info",
			EnableAAR:       true,
			AAROutputPath:   "./reports/",
			EventBufferSize: 1000,
			TelemetryPath:   "",
		},

		Termination: TerminationConfig{
			MaxTicks:    3000,
			MaxDuration: Duration(5 * time.Minute),
		},
	}
}
