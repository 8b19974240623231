package simulation

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stellarforge/fleet-tactics/cmd/fleet-battle/config"
	"github.com/stellarforge/fleet-tactics/cmd/fleet-battle/core"
)

func testStats() config.ShipStats {
	return config.ShipStats{
		Hull:           100,
		Shield:         50,
		Armor:          5,
		MaxSpeed:       40,
		TurnRate:       90,
		WeaponRange:    200,
		WeaponDamage:   12,
		WeaponCooldown: config.Duration(1500 * time.Millisecond),
	}
}

func newTestShip(t *testing.T) *Ship {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	return NewShip(FleetBlue, 1, testStats(), core.DefaultCombatProfile(), core.Vector2{}, 0, rng)
}

func TestNewShipIdentity(t *testing.T) {
	ship := newTestShip(t)

	if ship.ID != "BLUE-01" {
		t.Errorf("Expected id BLUE-01, got %s", ship.ID)
	}
	if !ship.Alive() {
		t.Error("Expected new ship to be active")
	}
	if !ship.WeaponReady() {
		t.Error("Expected new ship's weapon to be ready")
	}
}

func TestApplyDamageShieldFirst(t *testing.T) {
	ship := newTestShip(t)

	if killed := ship.ApplyDamage(30); killed {
		t.Fatal("30 damage should not kill a fresh ship")
	}
	if ship.Shield != 20 {
		t.Errorf("Expected shield 20, got %v", ship.Shield)
	}
	if ship.Hull != 100 {
		t.Errorf("Expected hull untouched, got %v", ship.Hull)
	}

	// Next hit burns the remaining shield, armor blunts the spillover.
	ship.ApplyDamage(30)
	if ship.Shield != 0 {
		t.Errorf("Expected shield depleted, got %v", ship.Shield)
	}
	if ship.Hull != 95 {
		t.Errorf("Expected hull 95 after armor reduction, got %v", ship.Hull)
	}
}

func TestApplyDamageArmorFloor(t *testing.T) {
	ship := newTestShip(t)
	ship.Shield = 0

	// A landed hit always chips at least one point even under heavy armor.
	ship.ApplyDamage(3)
	if ship.Hull != 99 {
		t.Errorf("Expected minimum one point of hull damage, hull %v", ship.Hull)
	}
}

func TestApplyDamageDestruction(t *testing.T) {
	ship := newTestShip(t)

	if killed := ship.ApplyDamage(1000); !killed {
		t.Fatal("Expected lethal damage to destroy the ship")
	}
	if ship.Alive() {
		t.Error("Expected destroyed ship to be inactive")
	}
	if ship.Hull != 0 {
		t.Errorf("Expected hull clamped to 0, got %v", ship.Hull)
	}

	// Dead ships absorb nothing further.
	if killed := ship.ApplyDamage(50); killed {
		t.Error("Expected no re-kill of a destroyed ship")
	}
}

func TestInfoReportsPercentages(t *testing.T) {
	ship := newTestShip(t)
	ship.Hull = 50
	ship.Shield = 25

	info := ship.Info()
	if info.Hull != 50 {
		t.Errorf("Expected hull 50%%, got %v", info.Hull)
	}
	if info.Shield != 50 {
		t.Errorf("Expected shield 50%%, got %v", info.Shield)
	}
	if info.WeaponRange != 200 {
		t.Errorf("Expected weapon range 200, got %v", info.WeaponRange)
	}
}

func TestHealthFractionCombinesHullAndShield(t *testing.T) {
	ship := newTestShip(t)
	ship.Hull = 50
	ship.Shield = 25

	want := 75.0 / 150.0
	if got := ship.HealthFraction(); math.Abs(got-want) > 1e-9 {
		t.Errorf("Expected health fraction %v, got %v", want, got)
	}
}

func TestWeaponCooldownCycle(t *testing.T) {
	ship := newTestShip(t)

	ship.TriggerWeapon()
	if ship.WeaponReady() {
		t.Fatal("Expected weapon on cooldown after firing")
	}
	if ship.ShotsFired != 1 {
		t.Errorf("Expected 1 shot recorded, got %d", ship.ShotsFired)
	}

	ship.TickCooldown(1.0)
	if ship.WeaponReady() {
		t.Error("Expected weapon still cooling at 1.0s of 1.5s")
	}

	ship.TickCooldown(0.6)
	if !ship.WeaponReady() {
		t.Error("Expected weapon ready after full cooldown")
	}
}

func TestMoveTowardRespectsTurnRate(t *testing.T) {
	ship := newTestShip(t) // heading 0, turn rate 90 deg/s

	// Waypoint straight to port: wants heading 90, but only 9 degrees of
	// turn fit into a 0.1s step.
	ship.MoveToward(core.Vector2{X: 0, Y: 100}, 0.1)

	if math.Abs(ship.Heading-9.0) > 1e-6 {
		t.Errorf("Expected heading 9 after one step, got %v", ship.Heading)
	}

	// Movement follows the actual heading, not the desired one.
	if ship.Position.X <= 0 {
		t.Errorf("Expected forward motion along current heading, got %+v", ship.Position)
	}
}

func TestMoveTowardStopsAtWaypoint(t *testing.T) {
	ship := newTestShip(t)
	waypoint := core.Vector2{X: 2, Y: 0}

	// Max speed 40 covers 4 units in 0.1s; the step clamps at the waypoint.
	ship.MoveToward(waypoint, 0.1)
	if math.Abs(ship.Position.X-2) > 1e-6 {
		t.Errorf("Expected clamped arrival at waypoint, got %+v", ship.Position)
	}
}

func TestDestroyedShipDoesNotMove(t *testing.T) {
	ship := newTestShip(t)
	ship.ApplyDamage(1000)

	before := ship.Position
	ship.MoveToward(core.Vector2{X: 500}, 1.0)
	if ship.Position != before {
		t.Errorf("Expected destroyed ship to stay put, moved to %+v", ship.Position)
	}
}
