package simulation

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stellarforge/fleet-tactics/cmd/fleet-battle/config"
	"github.com/stellarforge/fleet-tactics/cmd/fleet-battle/core"
)

// Fleet identifiers
const (
	FleetBlue = "BLUE"
	FleetRed  = "RED"
)

// Ship status
const (
	ShipStatusActive    = "ACTIVE"
	ShipStatusDestroyed = "DESTROYED"
)

// Ship is a single combat vessel. Decision state (intent, target, waypoint)
// is written by the battle loop's sequential phase; the telemetry and
// assessment phases only read.
type Ship struct {
	ID      string    // stable battle id, e.g. "BLUE-03"
	TrackID uuid.UUID // unique id carried into telemetry and reports
	Fleet   string
	Status  string

	// Kinematics
	Position core.Vector2
	Heading  float64 // degrees
	Velocity core.Vector2
	MaxSpeed float64
	TurnRate float64 // degrees per second

	// Durability
	Hull      float64
	MaxHull   float64
	Shield    float64
	MaxShield float64
	Armor     float64

	// Weapon
	WeaponRange    float64
	WeaponDamage   float64
	WeaponCooldown time.Duration
	cooldownLeft   float64 // seconds

	// Decision state
	Profile   core.CombatProfile
	Intents   *core.IntentController
	Planner   *core.ManeuverPlanner
	TargetID  string
	Waypoint  core.Vector2
	Firing    bool
	Situation core.Situation

	// Battle record
	ShotsFired  int
	DamageDealt float64
	Kills       int

	mu sync.RWMutex
}

// NewShip creates a ship from fleet stats at the given spawn position.
func NewShip(fleet string, index int, stats config.ShipStats, profile core.CombatProfile, position core.Vector2, heading float64, jitter core.JitterSource) *Ship {
	return &Ship{
		ID:      fmt.Sprintf("%s-%02d", fleet, index),
		TrackID: uuid.New(),
		Fleet:   fleet,
		Status:  ShipStatusActive,

		Position: position,
		Heading:  heading,
		MaxSpeed: stats.MaxSpeed,
		TurnRate: stats.TurnRate,

		Hull:      stats.Hull,
		MaxHull:   stats.Hull,
		Shield:    stats.Shield,
		MaxShield: stats.Shield,
		Armor:     stats.Armor,

		WeaponRange:    stats.WeaponRange,
		WeaponDamage:   stats.WeaponDamage,
		WeaponCooldown: stats.WeaponCooldown.Std(),

		Profile: profile,
		Intents: core.NewIntentController(profile),
		Planner: core.NewManeuverPlanner(profile, jitter),
	}
}

// Alive reports whether the ship is still in the fight.
func (s *Ship) Alive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status == ShipStatusActive
}

// Info returns the snapshot consumed by tactical assessment. Hull and
// shield are reported as 0-100 percentages of the ship's maximums.
func (s *Ship) Info() core.ShipInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.ShipInfo{
		ID:          s.ID,
		Position:    s.Position,
		Heading:     s.Heading,
		Velocity:    s.Velocity,
		Hull:        percentOf(s.Hull, s.MaxHull),
		Shield:      percentOf(s.Shield, s.MaxShield),
		WeaponRange: s.WeaponRange,
	}
}

func percentOf(value, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return value / max * 100.0
}

// HealthFraction returns combined hull and shield as a fraction of maximum.
func (s *Ship) HealthFraction() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := s.MaxHull + s.MaxShield
	if total <= 0 {
		return 0
	}
	frac := (s.Hull + s.Shield) / total
	if frac < 0 {
		return 0
	}
	return frac
}

// WeaponReady reports whether the weapon is off cooldown.
func (s *Ship) WeaponReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cooldownLeft <= 0
}

// TriggerWeapon starts the cooldown and counts the shot.
func (s *Ship) TriggerWeapon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldownLeft = s.WeaponCooldown.Seconds()
	s.ShotsFired++
}

// TickCooldown advances the weapon cooldown by dt seconds.
func (s *Ship) TickCooldown(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cooldownLeft > 0 {
		s.cooldownLeft -= dt
		if s.cooldownLeft < 0 {
			s.cooldownLeft = 0
		}
	}
}

// ApplyDamage routes damage through shield then armored hull. Armor is a
// flat reduction on hull damage but a hit that lands always costs at least
// one point of hull. Returns true when the ship is destroyed by this hit.
func (s *Ship) ApplyDamage(amount float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != ShipStatusActive || amount <= 0 {
		return false
	}

	remaining := amount
	if s.Shield > 0 {
		absorbed := math.Min(s.Shield, remaining)
		s.Shield -= absorbed
		remaining -= absorbed
	}

	if remaining > 0 {
		hullDamage := remaining - s.Armor
		if hullDamage < 1 {
			hullDamage = 1
		}
		s.Hull -= hullDamage
	}

	if s.Hull <= 0 {
		s.Hull = 0
		s.Status = ShipStatusDestroyed
		s.Velocity = core.Vector2{}
		return true
	}
	return false
}

// SetDecision records the outcome of this tick's decision pass. An empty
// situation means no target was available to classify against.
func (s *Ship) SetDecision(targetID string, waypoint core.Vector2, firing bool, situation core.Situation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TargetID = targetID
	s.Waypoint = waypoint
	s.Firing = firing
	s.Situation = situation
}

// Decision returns the last recorded decision.
func (s *Ship) Decision() (targetID string, waypoint core.Vector2, firing bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.TargetID, s.Waypoint, s.Firing
}

// CurrentSituation returns the last classified tactical situation.
func (s *Ship) CurrentSituation() core.Situation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Situation
}

// RecordHit credits dealt damage and, when lethal, a kill.
func (s *Ship) RecordHit(damage float64, killed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DamageDealt += damage
	if killed {
		s.Kills++
	}
}

// MoveToward advances the ship toward the waypoint for dt seconds, turning
// no faster than the hull's turn rate.
func (s *Ship) MoveToward(waypoint core.Vector2, dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Status != ShipStatusActive {
		return
	}

	offset := waypoint.Sub(s.Position)
	distance := offset.Magnitude()
	if distance < 1e-6 {
		s.Velocity = core.Vector2{}
		return
	}

	desiredHeading := offset.Bearing()
	turn := core.NormalizeAngle(desiredHeading - s.Heading)
	maxTurn := s.TurnRate * dt
	if turn > maxTurn {
		turn = maxTurn
	} else if turn < -maxTurn {
		turn = -maxTurn
	}
	s.Heading = core.NormalizeAngle(s.Heading + turn)

	step := s.MaxSpeed * dt
	if step > distance {
		step = distance
	}
	s.Velocity = core.HeadingVector(s.Heading).Scale(s.MaxSpeed)
	s.Position = s.Position.Add(core.HeadingVector(s.Heading).Scale(step))
}
