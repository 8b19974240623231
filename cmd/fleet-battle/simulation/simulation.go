package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/stellarforge/fleet-tactics/cmd/fleet-battle/config"
	"github.com/stellarforge/fleet-tactics/cmd/fleet-battle/controllers"
	"github.com/stellarforge/fleet-tactics/cmd/fleet-battle/core"
	"github.com/stellarforge/fleet-tactics/cmd/fleet-battle/reporting"
	"github.com/stellarforge/fleet-tactics/pkg/logger"
	"github.com/stellarforge/fleet-tactics/pkg/simulation"
	"github.com/stellarforge/fleet-tactics/pkg/telemetry"
)

// formationBiasWeight is how far (in world units) the fleet-center bias
// displaces a ship's waypoint each tick.
const formationBiasWeight = 15.0

// focusFireHealthThreshold is the enemy health fraction below which the
// admiral concentrates fire.
const focusFireHealthThreshold = 0.3

// lineSpacing is the gap between ships in the initial battle line.
const lineSpacing = 60.0

// FleetBattleSimulation runs a two-fleet space combat engagement where every
// ship decides its own target, posture, waypoint and fire gate each tick.
type FleetBattleSimulation struct {
	cfg *config.BattleConfig
	rng *rand.Rand

	assessor core.Assessor
	fire     core.FireController

	ships  map[string]*Ship
	fleets map[string]*fleetState

	battleLog *reporting.BattleLogger
	buffer    *telemetry.Buffer

	tick    uint64
	outcome string

	stopChan chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
}

// fleetState bundles one side's ships with its command and targeting layers.
// The targeting controller tracks the OPPOSING fleet's ships as targets.
type fleetState struct {
	name      string
	command   *controllers.FleetController
	targeting *controllers.TargetingController
	ships     []*Ship // sorted by id

	// assessments holds this tick's geometry: own ship id -> enemy ship id.
	// Written by the parallel assessment phase, read by everything after.
	assessments map[string]map[string]core.TacticalPosition
}

// NewFleetBattleSimulation creates an unconfigured battle.
func NewFleetBattleSimulation() simulation.Simulation {
	return &FleetBattleSimulation{
		fire:     core.FireController{},
		ships:    make(map[string]*Ship),
		fleets:   make(map[string]*fleetState),
		stopChan: make(chan struct{}),
	}
}

// Name returns the simulation name.
func (s *FleetBattleSimulation) Name() string {
	return "Fleet Battle"
}

// Description returns a brief description.
func (s *FleetBattleSimulation) Description() string {
	return "Two-fleet space combat with per-ship tactical decision making"
}

// Configure loads the battle configuration and applies parameter overrides.
func (s *FleetBattleSimulation) Configure(params map[string]interface{}) error {
	cfg, err := config.LoadConfigWithOverrides(os.Getenv("FLEET_CONFIG"), normalizeParams(params))
	if err != nil {
		return fmt.Errorf("failed to load battle config: %w", err)
	}

	s.cfg = cfg
	logger.SetLevel(logger.ParseLevel(cfg.Logging.ConsoleLevel))
	logger.Debugf("configured battle:\n%s", cfg.String())
	return nil
}

// normalizeParams converts prompt values into the types the config override
// layer expects. YAML defaults can surface integers as float64.
func normalizeParams(params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for key, value := range params {
		switch key {
		case "blue_ships", "red_ships", "seed", "base_engager_limit", "max_ticks":
			if f, ok := value.(float64); ok {
				out[key] = int(f)
				continue
			}
		}
		out[key] = value
	}
	return out
}

// Run executes the battle until a fleet is destroyed, a limit is reached or
// the context is cancelled.
func (s *FleetBattleSimulation) Run(ctx context.Context) error {
	if s.cfg == nil {
		return fmt.Errorf("simulation not configured")
	}

	s.initialize()

	sink, closeSink, err := s.openTelemetrySink()
	if err != nil {
		return err
	}
	defer closeSink()

	s.buffer = telemetry.NewBuffer(sink, s.cfg.Performance.TelemetryFlushInterval.Std())
	s.buffer.Start(ctx)
	defer s.buffer.Stop()

	logger.Infof("battle begins: %d blue vs %d red",
		len(s.fleets[FleetBlue].ships), len(s.fleets[FleetRed].ships))

	dt := s.cfg.Simulation.TickInterval.Seconds()
	startTime := time.Now()
	ticker := time.NewTicker(s.cfg.Simulation.TickInterval.Std())
	defer ticker.Stop()

	for s.outcome == "" {
		select {
		case <-ctx.Done():
			logger.Info("battle cancelled by context")
			return ctx.Err()

		case <-s.stopChan:
			logger.Info("battle stopped")
			return nil

		case <-ticker.C:
			s.advance(dt)

			if s.outcome == "" && s.cfg.Termination.MaxDuration > 0 &&
				time.Since(startTime) > s.cfg.Termination.MaxDuration.Std() {
				s.outcome = "stalemate: time limit reached"
			}
		}
	}

	s.finish()
	return nil
}

// Stop requests a graceful shutdown.
func (s *FleetBattleSimulation) Stop() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	return nil
}

func (s *FleetBattleSimulation) openTelemetrySink() (telemetry.Sink, func(), error) {
	path := s.cfg.Logging.TelemetryPath
	if path == "" {
		return telemetry.DiscardSink{}, func() {}, nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open telemetry file: %w", err)
	}
	return telemetry.NewJSONLSink(file), func() { _ = file.Close() }, nil
}

// initialize builds both fleets facing each other across the arena.
func (s *FleetBattleSimulation) initialize() {
	s.rng = rand.New(rand.NewSource(s.cfg.Simulation.Seed))
	s.assessor = core.NewAssessor(s.cfg.Combat.MinSafeDistance)
	s.battleLog = reporting.NewBattleLogger(s.cfg.Logging.EventBufferSize)
	s.tick = 0
	s.outcome = ""
	s.ships = make(map[string]*Ship)
	s.fleets = make(map[string]*fleetState)

	profile := core.CombatProfile{
		Aggression:         s.cfg.Combat.Aggression,
		PreferredRange:     s.cfg.Combat.PreferredRange,
		RangeTolerance:     s.cfg.Combat.RangeTolerance,
		MinSafeDistance:    s.cfg.Combat.MinSafeDistance,
		MaxEngagementRange: s.cfg.Combat.MaxEngagementRange,
		IntentPersistence:  s.cfg.Combat.IntentPersistence.Seconds(),
	}

	separation := s.cfg.Simulation.ArenaSize / 4.0
	s.spawnFleet(FleetBlue, s.cfg.BlueFleet, profile, -separation, 0.0)
	s.spawnFleet(FleetRed, s.cfg.RedFleet, profile, separation, 180.0)
}

func (s *FleetBattleSimulation) spawnFleet(name string, fleetCfg config.FleetConfig, profile core.CombatProfile, lineX, heading float64) {
	state := &fleetState{
		name:        name,
		command:     controllers.NewFleetController(name),
		targeting:   controllers.NewTargetingController(s.cfg.Targeting.BaseEngagerLimit),
		assessments: make(map[string]map[string]core.TacticalPosition),
	}

	for i := 0; i < fleetCfg.NumShips; i++ {
		offset := (float64(i) - float64(fleetCfg.NumShips-1)/2.0) * lineSpacing
		position := core.Vector2{X: lineX, Y: offset}
		ship := NewShip(name, i+1, fleetCfg.Stats, profile, position, heading, s.rng)
		state.ships = append(state.ships, ship)
		s.ships[ship.ID] = ship
		s.battleLog.LogSpawn(s.tick, name, ship.ID)
	}

	sort.Slice(state.ships, func(i, j int) bool {
		return state.ships[i].ID < state.ships[j].ID
	})
	s.fleets[name] = state
}

func (s *FleetBattleSimulation) enemyOf(fleet string) *fleetState {
	if fleet == FleetBlue {
		return s.fleets[FleetRed]
	}
	return s.fleets[FleetBlue]
}

// advance runs one decision tick. Phases run in a fixed order and the
// per-ship passes iterate in sorted ship-id order, so a given seed and
// configuration always replays the same battle.
func (s *FleetBattleSimulation) advance(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++

	s.assessPhase()
	s.syncRosters()
	s.commandPhase()
	s.decisionPhase(dt)
	s.movementPhase(dt)
	s.combatPhase()
	s.publishTelemetry()

	if outcome, done := s.checkTermination(); done {
		s.outcome = outcome
	}
}

// assessPhase computes every alive ship's tactical position against every
// alive enemy. Assessment is pure, so ships are fanned out across a worker
// pool; each worker writes only its own ship's result map.
func (s *FleetBattleSimulation) assessPhase() {
	type job struct {
		fleet *fleetState
		ship  *Ship
	}

	var jobs []job
	for _, fleet := range s.fleets {
		fleet.assessments = make(map[string]map[string]core.TacticalPosition)
		for _, ship := range fleet.ships {
			if ship.Alive() {
				fleet.assessments[ship.ID] = make(map[string]core.TacticalPosition, len(s.enemyOf(fleet.name).ships))
				jobs = append(jobs, job{fleet: fleet, ship: ship})
			}
		}
	}

	workers := s.cfg.Performance.WorkerPoolSize
	if workers <= 0 {
		workers = 1
	}

	jobChan := make(chan job, len(jobs))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				own := j.ship.Info()
				result := j.fleet.assessments[j.ship.ID]
				for _, enemy := range s.enemyOf(j.fleet.name).ships {
					if !enemy.Alive() {
						continue
					}
					result[enemy.ID] = s.assessor.Assess(own, enemy.Info())
				}
			}
		}()
	}

	for _, j := range jobs {
		jobChan <- j
	}
	close(jobChan)
	wg.Wait()
}

// syncRosters refreshes each fleet's targeting controller with the current
// enemy picture: positions, health, armor and the fleet-wide threat read.
// Dead ships also surrender their own assignment here, so a ship lost to any
// cause frees its engager slot no later than the next tick.
func (s *FleetBattleSimulation) syncRosters() {
	for _, fleet := range s.fleets {
		enemy := s.enemyOf(fleet.name)

		fleet.targeting.UpdateFleetDPS(s.fleetDPS(fleet))

		for _, ship := range fleet.ships {
			if !ship.Alive() {
				fleet.targeting.ReleaseShip(ship.ID)
			}
		}

		for _, target := range enemy.ships {
			if !target.Alive() {
				fleet.targeting.UpdateHealth(target.ID, 0)
				continue
			}

			// Threat is the worst read any of our ships has on this target.
			threat := 0.0
			for _, byEnemy := range fleet.assessments {
				if tp, ok := byEnemy[target.ID]; ok && tp.ThreatScore > threat {
					threat = tp.ThreatScore
				}
			}

			fleet.targeting.AddTarget(target.ID, target.Position,
				target.Armor, target.HealthFraction(), threat)
		}
	}
}

// fleetDPS sums the sustained damage output of a fleet's surviving ships.
func (s *FleetBattleSimulation) fleetDPS(fleet *fleetState) float64 {
	dps := 0.0
	for _, ship := range fleet.ships {
		if !ship.Alive() {
			continue
		}
		if seconds := ship.WeaponCooldown.Seconds(); seconds > 0 {
			dps += ship.WeaponDamage / seconds
		}
	}
	return dps
}

// commandPhase runs each admiral: concentrate fire on a breaking enemy, and
// stand down to free engagement when the focus target is gone.
func (s *FleetBattleSimulation) commandPhase() {
	for _, fleet := range s.fleets {
		order := fleet.command.CurrentOrder()

		switch order.Kind {
		case controllers.OrderFocusFire:
			if _, ok := fleet.command.ResolveFocusTarget(fleet.targeting); !ok {
				fleet.command.IssueOrder(controllers.FleetOrder{Kind: controllers.OrderFreeEngage})
				s.battleLog.LogOrder(s.tick, fleet.name, string(controllers.OrderFreeEngage))
			}

		case controllers.OrderFreeEngage:
			if targetID := s.weakestEnemy(fleet); targetID != "" {
				fleet.command.IssueOrder(controllers.FleetOrder{
					Kind:     controllers.OrderFocusFire,
					TargetID: targetID,
				})
				s.battleLog.LogOrder(s.tick, fleet.name,
					fmt.Sprintf("%s %s", controllers.OrderFocusFire, targetID))
			}
		}
	}
}

// weakestEnemy returns the lowest-health living enemy under the focus-fire
// threshold, lowest id winning ties, or "" when none qualifies.
func (s *FleetBattleSimulation) weakestEnemy(fleet *fleetState) string {
	enemy := s.enemyOf(fleet.name)

	best := ""
	bestHealth := focusFireHealthThreshold
	for _, target := range enemy.ships {
		if !target.Alive() {
			continue
		}
		if health := target.HealthFraction(); health < bestHealth {
			best = target.ID
			bestHealth = health
		}
	}
	return best
}

// decisionPhase walks each fleet's ships in sorted id order and records
// target, posture, waypoint and fire decisions.
func (s *FleetBattleSimulation) decisionPhase(dt float64) {
	for _, fleetName := range []string{FleetBlue, FleetRed} {
		fleet := s.fleets[fleetName]

		focusTarget, _ := fleet.command.ResolveFocusTarget(fleet.targeting)
		centroid := controllers.Centroid(s.alivePositions(fleet))

		for _, ship := range fleet.ships {
			if !ship.Alive() {
				continue
			}

			targetID, ok := fleet.targeting.AssignShip(ship.ID, focusTarget)
			if !ok {
				// Nothing to shoot at; hold formation near the fleet center.
				ship.SetDecision("", centroid, false, "")
				continue
			}

			prevTarget, _, _ := ship.Decision()
			if targetID != prevTarget {
				s.battleLog.LogAssignment(s.tick, fleet.name, ship.ID, targetID)
			}

			target := s.ships[targetID]
			own := ship.Info()
			tp := fleet.assessments[ship.ID][targetID]

			situation := core.ClassifySituation(tp, target.HealthFraction())
			before := ship.Intents.Current()
			intent, changed := ship.Intents.Update(situation, own, tp, dt)
			if changed {
				s.battleLog.LogIntentChange(s.tick, fleet.name, ship.ID, string(before), string(intent))
			}

			waypoint := ship.Planner.Waypoint(intent, own, target.Info(), tp)

			bias := fleet.command.BiasFor(own.Position, centroid, func(id string) (core.Vector2, bool) {
				if t, ok := s.ships[id]; ok && t.Alive() {
					return t.Position, true
				}
				return core.Vector2{}, false
			})
			waypoint = waypoint.Add(core.Vector2{X: bias.FleetCenterX, Y: bias.FleetCenterY}.Scale(formationBiasWeight))

			firing := s.fire.ShouldFire(intent, tp, ship.WeaponReady(), ship.WeaponRange)
			ship.SetDecision(targetID, waypoint, firing, situation)
		}

		if released := fleet.targeting.RedistributeOverkill(); released > 0 {
			s.battleLog.LogOverkill(s.tick, fleet.name, released)
		}
	}
}

func (s *FleetBattleSimulation) alivePositions(fleet *fleetState) []core.Vector2 {
	positions := make([]core.Vector2, 0, len(fleet.ships))
	for _, ship := range fleet.ships {
		if ship.Alive() {
			positions = append(positions, ship.Position)
		}
	}
	return positions
}

// movementPhase advances kinematics and weapon cooldowns.
func (s *FleetBattleSimulation) movementPhase(dt float64) {
	for _, fleetName := range []string{FleetBlue, FleetRed} {
		for _, ship := range s.fleets[fleetName].ships {
			ship.TickCooldown(dt)
			if !ship.Alive() {
				continue
			}
			_, waypoint, _ := ship.Decision()
			ship.MoveToward(waypoint, dt)
		}
	}
}

// combatPhase resolves fire decisions into damage. Ships fire in sorted id
// order; a ship destroyed earlier in the pass does not get its shot off.
func (s *FleetBattleSimulation) combatPhase() {
	for _, fleetName := range []string{FleetBlue, FleetRed} {
		fleet := s.fleets[fleetName]

		for _, ship := range fleet.ships {
			if !ship.Alive() {
				continue
			}

			targetID, _, firing := ship.Decision()
			if !firing || targetID == "" || !ship.WeaponReady() {
				continue
			}

			target, ok := s.ships[targetID]
			if !ok || !target.Alive() {
				continue
			}

			ship.TriggerWeapon()
			killed := target.ApplyDamage(ship.WeaponDamage)
			ship.RecordHit(ship.WeaponDamage, killed)
			s.battleLog.LogFire(s.tick, fleet.name, ship.ID, targetID, ship.WeaponDamage)

			if killed {
				s.battleLog.LogDestruction(s.tick, target.Fleet, target.ID, ship.ID)
				fleet.targeting.UpdateHealth(target.ID, 0)
				// The victim's own assignment frees its engager slot too.
				s.fleets[target.Fleet].targeting.ReleaseShip(target.ID)
			}
		}
	}
}

// publishTelemetry queues this tick's ship and fleet snapshots.
func (s *FleetBattleSimulation) publishTelemetry() {
	if s.buffer == nil {
		return
	}

	s.buffer.SetTick(s.tick)

	for _, fleet := range s.fleets {
		summary := fleet.targeting.Summary()
		s.buffer.QueueFleetStats(telemetry.FleetStats{
			Fleet:         fleet.name,
			TotalTargets:  summary.TotalTargets,
			Available:     summary.Available,
			Engaged:       summary.Engaged,
			OverkillRisks: summary.OverkillRisks,
			Destroyed:     summary.Destroyed,
			AssignedShips: summary.AssignedShips,
			FleetDPS:      summary.FleetDPS,
		})

		for _, ship := range fleet.ships {
			if !ship.Alive() {
				continue
			}
			targetID, _, _ := ship.Decision()
			s.buffer.QueueShipState(telemetry.ShipState{
				ShipID:    ship.ID,
				Fleet:     ship.Fleet,
				X:         ship.Position.X,
				Y:         ship.Position.Y,
				Hull:      ship.Hull,
				Intent:    string(ship.Intents.Current()),
				TargetID:  targetID,
				Situation: string(ship.CurrentSituation()),
			})
		}
	}
}

// checkTermination reports the battle outcome once one is reached.
func (s *FleetBattleSimulation) checkTermination() (string, bool) {
	blueAlive := len(s.alivePositions(s.fleets[FleetBlue]))
	redAlive := len(s.alivePositions(s.fleets[FleetRed]))

	switch {
	case blueAlive == 0 && redAlive == 0:
		return "mutual destruction", true
	case redAlive == 0:
		return "BLUE fleet victorious", true
	case blueAlive == 0:
		return "RED fleet victorious", true
	}

	if s.cfg.Termination.MaxTicks > 0 && s.tick >= uint64(s.cfg.Termination.MaxTicks) {
		return "stalemate: tick limit reached", true
	}

	return "", false
}

// finish logs the outcome and emits the after-action report.
func (s *FleetBattleSimulation) finish() {
	s.battleLog.LogBattleEnd(s.tick, s.outcome)

	if !s.cfg.Logging.EnableAAR {
		return
	}

	report := s.battleLog.GenerateAAR(s.outcome, s.tick, s.collectResults())
	s.battleLog.PrintAAR(report)

	if s.cfg.Logging.AAROutputPath != "" {
		path, err := s.battleLog.WriteAAR(report, s.cfg.Logging.AAROutputPath)
		if err != nil {
			logger.Errorf("failed to write AAR: %v", err)
			return
		}
		logger.Successf("after-action report written to %s", path)
	}
}

func (s *FleetBattleSimulation) collectResults() []reporting.ShipResult {
	var results []reporting.ShipResult
	for _, fleetName := range []string{FleetBlue, FleetRed} {
		for _, ship := range s.fleets[fleetName].ships {
			results = append(results, reporting.ShipResult{
				ShipID:      ship.ID,
				Fleet:       ship.Fleet,
				Survived:    ship.Alive(),
				Hull:        ship.Hull,
				ShotsFired:  ship.ShotsFired,
				DamageDealt: ship.DamageDealt,
				Kills:       ship.Kills,
			})
		}
	}
	return results
}

func init() {
	simulation.DefaultRegistry.MustRegister("Fleet Battle", NewFleetBattleSimulation)
}
