package simulation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stellarforge/fleet-tactics/cmd/fleet-battle/config"
	"github.com/stellarforge/fleet-tactics/cmd/fleet-battle/core"
	"github.com/stellarforge/fleet-tactics/pkg/telemetry"
)

func newTestBattle(t *testing.T, blueShips, redShips int, seed int64) *FleetBattleSimulation {
	t.Helper()

	cfg := config.GetDefaultConfig()
	cfg.BlueFleet.NumShips = blueShips
	cfg.RedFleet.NumShips = redShips
	cfg.Simulation.Seed = seed
	cfg.Simulation.ArenaSize = 800
	cfg.Logging.EnableAAR = false
	cfg.Performance.WorkerPoolSize = 4

	s := NewFleetBattleSimulation().(*FleetBattleSimulation)
	s.cfg = cfg
	s.initialize()
	return s
}

func TestSpawnFormation(t *testing.T) {
	s := newTestBattle(t, 3, 4, 1)

	if got := len(s.fleets[FleetBlue].ships); got != 3 {
		t.Errorf("Expected 3 blue ships, got %d", got)
	}
	if got := len(s.fleets[FleetRed].ships); got != 4 {
		t.Errorf("Expected 4 red ships, got %d", got)
	}

	// Fleets face each other across the arena.
	for _, ship := range s.fleets[FleetBlue].ships {
		if ship.Position.X >= 0 {
			t.Errorf("Expected blue ship %s west of center, at %+v", ship.ID, ship.Position)
		}
		if ship.Heading != 0 {
			t.Errorf("Expected blue ship %s facing east, heading %v", ship.ID, ship.Heading)
		}
	}
	for _, ship := range s.fleets[FleetRed].ships {
		if ship.Position.X <= 0 {
			t.Errorf("Expected red ship %s east of center, at %+v", ship.ID, ship.Position)
		}
	}

	// Ship ids are unique and registered.
	if len(s.ships) != 7 {
		t.Errorf("Expected 7 registered ships, got %d", len(s.ships))
	}
}

func TestBattleRunsToCompletion(t *testing.T) {
	s := newTestBattle(t, 2, 2, 42)
	dt := s.cfg.Simulation.TickInterval.Seconds()

	for i := 0; i < s.cfg.Termination.MaxTicks && s.outcome == ""; i++ {
		s.advance(dt)
	}

	if s.outcome == "" {
		t.Fatal("Battle never terminated")
	}

	valid := map[string]bool{
		"BLUE fleet victorious":         true,
		"RED fleet victorious":          true,
		"mutual destruction":            true,
		"stalemate: tick limit reached": true,
	}
	if !valid[s.outcome] {
		t.Errorf("Unexpected outcome: %q", s.outcome)
	}

	// A decisive outcome means the losing fleet is fully destroyed.
	if s.outcome == "BLUE fleet victorious" {
		for _, ship := range s.fleets[FleetRed].ships {
			if ship.Alive() {
				t.Errorf("Expected red ship %s destroyed, still active", ship.ID)
			}
		}
	}
}

func TestBattleDeterminism(t *testing.T) {
	const ticks = 200

	run := func() map[string][3]float64 {
		s := newTestBattle(t, 3, 3, 7)
		dt := s.cfg.Simulation.TickInterval.Seconds()
		for i := 0; i < ticks && s.outcome == ""; i++ {
			s.advance(dt)
		}

		state := make(map[string][3]float64)
		for id, ship := range s.ships {
			state[id] = [3]float64{ship.Position.X, ship.Position.Y, ship.Hull}
		}
		return state
	}

	first := run()
	second := run()

	for id, want := range first {
		if got := second[id]; got != want {
			t.Errorf("Ship %s diverged between runs: %v vs %v", id, want, got)
		}
	}
}

func TestTickLimitStalemate(t *testing.T) {
	s := newTestBattle(t, 2, 2, 1)
	s.cfg.Termination.MaxTicks = 5
	dt := s.cfg.Simulation.TickInterval.Seconds()

	for i := 0; i < 10 && s.outcome == ""; i++ {
		s.advance(dt)
	}

	if s.outcome != "stalemate: tick limit reached" {
		t.Errorf("Expected tick-limit stalemate, got %q", s.outcome)
	}
	if s.tick != 5 {
		t.Errorf("Expected battle frozen at tick 5, got %d", s.tick)
	}
}

func TestFleetDPSSumsSurvivors(t *testing.T) {
	s := newTestBattle(t, 3, 3, 1)
	blue := s.fleets[FleetBlue]

	// Default loadout: 12 damage every 1.5s per ship.
	want := 3 * (12.0 / 1.5)
	if got := s.fleetDPS(blue); got != want {
		t.Errorf("Expected fleet dps %v, got %v", want, got)
	}

	blue.ships[0].ApplyDamage(100000)
	want = 2 * (12.0 / 1.5)
	if got := s.fleetDPS(blue); got != want {
		t.Errorf("Expected dps %v after a loss, got %v", want, got)
	}
}

func TestTargetRosterTracksDestruction(t *testing.T) {
	s := newTestBattle(t, 2, 2, 1)
	dt := s.cfg.Simulation.TickInterval.Seconds()

	s.advance(dt)

	blue := s.fleets[FleetBlue]
	if summary := blue.targeting.Summary(); summary.TotalTargets != 2 {
		t.Fatalf("Expected 2 tracked targets, got %d", summary.TotalTargets)
	}

	// Kill one red ship out-of-band; the roster notices next tick.
	s.ships["RED-01"].ApplyDamage(100000)
	s.advance(dt)

	if summary := blue.targeting.Summary(); summary.Destroyed != 1 {
		t.Errorf("Expected 1 destroyed target tracked, got %d", summary.Destroyed)
	}

	// No blue ship may stay assigned to the dead target.
	for _, ship := range blue.ships {
		if target, ok := blue.targeting.ShipTarget(ship.ID); ok && target == "RED-01" {
			t.Errorf("Ship %s still assigned to destroyed RED-01", ship.ID)
		}
	}
}

func TestSingleAssignmentInvariant(t *testing.T) {
	s := newTestBattle(t, 4, 2, 9)
	dt := s.cfg.Simulation.TickInterval.Seconds()

	for i := 0; i < 50 && s.outcome == ""; i++ {
		s.advance(dt)

		for _, fleet := range s.fleets {
			seen := make(map[string]string)
			for _, ship := range fleet.ships {
				if !ship.Alive() {
					continue
				}
				target, ok := fleet.targeting.ShipTarget(ship.ID)
				if !ok {
					continue
				}
				if prev, dup := seen[ship.ID]; dup {
					t.Fatalf("Ship %s assigned twice: %s and %s", ship.ID, prev, target)
				}
				seen[ship.ID] = target

				limit := fleet.targeting.DynamicLimit(target)
				if engagers := fleet.targeting.TargetEngagers(target); len(engagers) > limit {
					t.Fatalf("Target %s over capacity: %d > %d", target, len(engagers), limit)
				}
			}
		}
	}
}

func TestDestroyedShipFreesEngagerSlot(t *testing.T) {
	s := newTestBattle(t, 4, 2, 3)
	dt := s.cfg.Simulation.TickInterval.Seconds()

	for i := 0; i < s.cfg.Termination.MaxTicks && s.outcome == ""; i++ {
		s.advance(dt)

		for _, fleet := range s.fleets {
			enemy := s.enemyOf(fleet.name)

			// A dead ship holds no assignment in its own fleet's roster.
			for _, ship := range fleet.ships {
				if ship.Alive() {
					continue
				}
				if target, ok := fleet.targeting.ShipTarget(ship.ID); ok {
					t.Fatalf("Tick %d: destroyed ship %s still assigned to %s",
						s.tick, ship.ID, target)
				}
			}

			// No enemy engager list may carry a dead ship's id.
			for _, target := range fleet.ships {
				for _, engagerID := range enemy.targeting.TargetEngagers(target.ID) {
					if !s.ships[engagerID].Alive() {
						t.Fatalf("Tick %d: dead ship %s occupies a slot on %s",
							s.tick, engagerID, target.ID)
					}
				}
			}
		}
	}

	// With 4v2 and losses along the way, every surviving blue ship must still
	// have a living target assigned rather than idling at the fleet center.
	red := s.fleets[FleetRed]
	if len(s.alivePositions(red)) > 0 {
		blue := s.fleets[FleetBlue]
		for _, ship := range blue.ships {
			if !ship.Alive() {
				continue
			}
			if _, ok := blue.targeting.ShipTarget(ship.ID); !ok {
				t.Errorf("Ship %s left without a target while enemies remain", ship.ID)
			}
		}
	}
}

func TestNormalizeParams(t *testing.T) {
	params := map[string]interface{}{
		"blue_ships": float64(8),
		"red_ships":  5,
		"seed":       float64(3),
		"aggression": 0.4,
		"log_level":  "debug",
	}

	out := normalizeParams(params)

	if v, ok := out["blue_ships"].(int); !ok || v != 8 {
		t.Errorf("Expected blue_ships int 8, got %v", out["blue_ships"])
	}
	if v, ok := out["red_ships"].(int); !ok || v != 5 {
		t.Errorf("Expected red_ships passthrough 5, got %v", out["red_ships"])
	}
	if v, ok := out["seed"].(int); !ok || v != 3 {
		t.Errorf("Expected seed int 3, got %v", out["seed"])
	}
	if v, ok := out["aggression"].(float64); !ok || v != 0.4 {
		t.Errorf("Expected aggression float 0.4, got %v", out["aggression"])
	}
}

type captureSink struct {
	mu      sync.Mutex
	batches []telemetry.Batch
}

func (c *captureSink) WriteBatch(batch telemetry.Batch) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batches = append(c.batches, batch)
	return nil
}

func TestTelemetryCarriesSituation(t *testing.T) {
	s := newTestBattle(t, 2, 2, 1)
	sink := &captureSink{}
	s.buffer = telemetry.NewBuffer(sink, time.Second)

	s.advance(s.cfg.Simulation.TickInterval.Seconds())
	if err := s.buffer.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if len(sink.batches) != 1 {
		t.Fatalf("Expected 1 batch, got %d", len(sink.batches))
	}

	known := map[string]bool{
		string(core.SituationVictory):      true,
		string(core.SituationAdvantage):    true,
		string(core.SituationDisadvantage): true,
		string(core.SituationOverwhelmed):  true,
		string(core.SituationNeutral):      true,
	}

	engaged := 0
	for _, state := range sink.batches[0].Ships {
		if state.TargetID == "" {
			continue
		}
		engaged++
		if !known[state.Situation] {
			t.Errorf("Ship %s engaged %s with situation %q", state.ShipID, state.TargetID, state.Situation)
		}
	}
	if engaged == 0 {
		t.Error("Expected at least one engaged ship in the first tick's telemetry")
	}
}

func TestRunRequiresConfigure(t *testing.T) {
	s := NewFleetBattleSimulation().(*FleetBattleSimulation)
	if err := s.Run(context.Background()); err == nil {
		t.Error("Expected Run to fail before Configure")
	}
}
