package controllers

import (
	"sort"
	"sync"

	"github.com/stellarforge/fleet-tactics/cmd/fleet-battle/core"
	"github.com/stellarforge/fleet-tactics/pkg/logger"
)

// TargetStatus describes a target's engagement state.
type TargetStatus string

const (
	TargetStatusAvailable    TargetStatus = "AVAILABLE"
	TargetStatusEngaged      TargetStatus = "ENGAGED"
	TargetStatusOverkillRisk TargetStatus = "OVERKILL_RISK"
	TargetStatusDestroyed    TargetStatus = "DESTROYED"
)

// Priority scoring weights. Capacity here means the recommended engager
// count; the hard cap is the dynamic limit, which escalation can raise above
// the recommendation.
const (
	priorityThreatWeight    = 100.0
	priorityHealthWeight    = 50.0
	priorityCapacityPenalty = 200.0
	priorityAvailableBonus  = 25.0
)

// Target is one known enemy with its engagement accounting.
type Target struct {
	ID                     string
	Position               core.Vector2
	Armor                  float64 // flat damage reduction
	HealthFraction         float64 // 0..1
	ThreatLevel            float64 // 0..1
	MaxRecommendedEngagers int
	Status                 TargetStatus

	// engagers maps ship id to the assignment sequence number, so the
	// oldest assignment can be released first during redistribution.
	engagers map[string]uint64
}

// EngagerCount returns how many ships are currently assigned.
func (t *Target) EngagerCount() int {
	return len(t.engagers)
}

// Engagers returns the assigned ship ids in assignment order (oldest first).
func (t *Target) Engagers() []string {
	ids := make([]string, 0, len(t.engagers))
	for id := range t.engagers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return t.engagers[ids[i]] < t.engagers[ids[j]]
	})
	return ids
}

// updateStatus derives the status from health and engager count.
// DESTROYED holds exactly when health has reached zero.
func (t *Target) updateStatus() {
	switch {
	case t.HealthFraction <= 0:
		t.Status = TargetStatusDestroyed
	case len(t.engagers) >= t.MaxRecommendedEngagers:
		t.Status = TargetStatusOverkillRisk
	case len(t.engagers) > 0:
		t.Status = TargetStatusEngaged
	default:
		t.Status = TargetStatusAvailable
	}
}

// TargetingSummary is a read-only snapshot for telemetry consumers.
type TargetingSummary struct {
	TotalTargets  int     `json:"total_targets"`
	Available     int     `json:"available"`
	Engaged       int     `json:"engaged"`
	OverkillRisks int     `json:"overkill_risks"`
	Destroyed     int     `json:"destroyed"`
	AssignedShips int     `json:"assigned_ships"`
	FleetDPS      float64 `json:"fleet_dps"`
}

// TargetingController owns the set of known targets and assigns ships to
// them under a dynamic capacity rule. Assignment and release on a given
// target are serialized behind the controller mutex; the simulation runs the
// assignment pass single-threaded in stable ship-id order so tie-breaks and
// capacity exhaustion are reproducible.
type TargetingController struct {
	targets     map[string]*Target
	assignments map[string]string // ship id -> target id
	baseLimit   int
	fleetDPS    float64
	assignSeq   uint64
	mu          sync.RWMutex
}

// NewTargetingController creates a controller with the given base engager
// limit per target.
func NewTargetingController(baseLimit int) *TargetingController {
	if baseLimit <= 0 {
		baseLimit = 3
	}
	return &TargetingController{
		targets:     make(map[string]*Target),
		assignments: make(map[string]string),
		baseLimit:   baseLimit,
	}
}

// UpdateFleetDPS sets the fleet damage output used by escalation.
func (tc *TargetingController) UpdateFleetDPS(dps float64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.fleetDPS = dps
}

// AddTarget registers a new target or refreshes an existing one's position,
// armor and threat. Engagement accounting on an existing target is kept.
func (tc *TargetingController) AddTarget(id string, position core.Vector2, armor, healthFraction, threatLevel float64) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if existing, ok := tc.targets[id]; ok {
		existing.Position = position
		existing.Armor = armor
		existing.ThreatLevel = threatLevel
		tc.updateHealthLocked(existing, healthFraction)
		return
	}

	target := &Target{
		ID:                     id,
		Position:               position,
		Armor:                  armor,
		HealthFraction:         healthFraction,
		ThreatLevel:            threatLevel,
		MaxRecommendedEngagers: tc.baseLimit,
		engagers:               make(map[string]uint64),
	}
	target.updateStatus()
	tc.targets[id] = target

	logger.Debugf("targeting: added target %s (armor=%.0f, health=%.2f, threat=%.2f)",
		id, armor, healthFraction, threatLevel)
}

// RemoveTarget drops a target and releases all of its engagers back to the
// unassigned pool for reassignment on the next tick.
func (tc *TargetingController) RemoveTarget(id string) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	target, ok := tc.targets[id]
	if !ok {
		return false
	}

	for _, shipID := range target.Engagers() {
		tc.releaseShipLocked(shipID)
	}
	delete(tc.targets, id)

	logger.Debugf("targeting: removed target %s", id)
	return true
}

// UpdateHealth records a target's new health fraction. Reaching zero marks
// the target destroyed and immediately releases every engager.
func (tc *TargetingController) UpdateHealth(id string, healthFraction float64) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	target, ok := tc.targets[id]
	if !ok {
		return false
	}
	tc.updateHealthLocked(target, healthFraction)
	return true
}

func (tc *TargetingController) updateHealthLocked(target *Target, healthFraction float64) {
	target.HealthFraction = clampFraction(healthFraction)
	target.updateStatus()

	if target.Status == TargetStatusDestroyed {
		for _, shipID := range target.Engagers() {
			tc.releaseShipLocked(shipID)
		}
	}
}

// DynamicLimit computes the effective engager cap for a target. When the
// fleet's damage output cannot out-pace the target's armor, the cap rises
// above the recommendation so the fleet cannot stalemate against it.
func (tc *TargetingController) DynamicLimit(id string) int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	target, ok := tc.targets[id]
	if !ok {
		return tc.baseLimit
	}
	return tc.dynamicLimitLocked(target)
}

func (tc *TargetingController) dynamicLimitLocked(target *Target) int {
	limit := target.MaxRecommendedEngagers

	if tc.fleetDPS > 0 && target.Armor > 0 {
		ratio := tc.fleetDPS / target.Armor
		if ratio < 0.67 {
			return limit + 2
		}
		if ratio < 1.0 {
			return limit + 1
		}
	}

	return limit
}

// AssignShip binds a ship to a target, releasing any prior assignment first.
// A preferred target with spare dynamic capacity wins; otherwise the scan
// picks the highest-priority target, breaking ties by lowest engager count
// and then by target id. Returns the chosen target id, or false when no
// target can accept the ship.
func (tc *TargetingController) AssignShip(shipID string, preferred string) (string, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.assignShipLocked(shipID, preferred)
}

func (tc *TargetingController) assignShipLocked(shipID string, preferred string) (string, bool) {
	tc.releaseShipLocked(shipID)

	if preferred != "" {
		if target, ok := tc.targets[preferred]; ok && tc.canAcceptLocked(target) {
			tc.makeAssignmentLocked(shipID, target)
			return target.ID, true
		}
		// Nonexistent, destroyed or saturated preference: fall back to scan.
	}

	best := tc.scanBestTargetLocked()
	if best == nil {
		return "", false
	}

	tc.makeAssignmentLocked(shipID, best)
	return best.ID, true
}

func (tc *TargetingController) canAcceptLocked(target *Target) bool {
	return target.Status != TargetStatusDestroyed &&
		len(target.engagers) < tc.dynamicLimitLocked(target)
}

// priorityLocked scores one target for scan-based selection.
func (tc *TargetingController) priorityLocked(target *Target) float64 {
	score := target.ThreatLevel*priorityThreatWeight + target.HealthFraction*priorityHealthWeight

	if len(target.engagers) >= target.MaxRecommendedEngagers {
		score -= priorityCapacityPenalty
	}
	if len(target.engagers) > 0 && len(target.engagers) < tc.dynamicLimitLocked(target) {
		score += priorityAvailableBonus
	}

	return score
}

func (tc *TargetingController) scanBestTargetLocked() *Target {
	var best *Target
	var bestScore float64

	// Iterate in sorted id order so equal-score ties resolve to the lowest
	// target id, keeping the assignment pass reproducible.
	for _, id := range tc.sortedTargetIDsLocked() {
		target := tc.targets[id]
		if !tc.canAcceptLocked(target) {
			continue
		}

		score := tc.priorityLocked(target)
		switch {
		case best == nil:
			best, bestScore = target, score
		case score > bestScore:
			best, bestScore = target, score
		case score == bestScore && len(target.engagers) < len(best.engagers):
			best, bestScore = target, score
		}
	}

	return best
}

func (tc *TargetingController) sortedTargetIDsLocked() []string {
	ids := make([]string, 0, len(tc.targets))
	for id := range tc.targets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (tc *TargetingController) makeAssignmentLocked(shipID string, target *Target) {
	tc.assignSeq++
	target.engagers[shipID] = tc.assignSeq
	target.updateStatus()
	tc.assignments[shipID] = target.ID
}

// ReleaseShip drops a ship's current assignment, if any.
func (tc *TargetingController) ReleaseShip(shipID string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.releaseShipLocked(shipID)
}

func (tc *TargetingController) releaseShipLocked(shipID string) {
	targetID, ok := tc.assignments[shipID]
	if !ok {
		return
	}
	if target, exists := tc.targets[targetID]; exists {
		delete(target.engagers, shipID)
		target.updateStatus()
	}
	delete(tc.assignments, shipID)
}

// ShipTarget returns the ship's current target assignment.
func (tc *TargetingController) ShipTarget(shipID string) (string, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	targetID, ok := tc.assignments[shipID]
	return targetID, ok
}

// TargetEngagers returns the ships assigned to a target, oldest first.
func (tc *TargetingController) TargetEngagers(targetID string) []string {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	if target, ok := tc.targets[targetID]; ok {
		return target.Engagers()
	}
	return nil
}

// TargetSnapshot returns a copy of a target's current record.
func (tc *TargetingController) TargetSnapshot(targetID string) (Target, bool) {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	target, ok := tc.targets[targetID]
	if !ok {
		return Target{}, false
	}
	snapshot := *target
	snapshot.engagers = nil
	return snapshot, true
}

// RedistributeOverkill releases the excess engagers (oldest assignment first)
// from every target over its dynamic limit, then reassigns each released
// ship. Ships that cannot be reassigned are left unassigned. Returns the
// number of ships released.
func (tc *TargetingController) RedistributeOverkill() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	var released []string

	for _, id := range tc.sortedTargetIDsLocked() {
		target := tc.targets[id]
		limit := tc.dynamicLimitLocked(target)
		excess := len(target.engagers) - limit
		if excess <= 0 {
			continue
		}

		engagers := target.Engagers()
		for _, shipID := range engagers[:excess] {
			tc.releaseShipLocked(shipID)
			released = append(released, shipID)
		}

		logger.Debugf("targeting: released %d excess engagers from %s (limit=%d)",
			excess, id, limit)
	}

	for _, shipID := range released {
		if newTarget, ok := tc.assignShipLocked(shipID, ""); ok {
			logger.Debugf("targeting: redistributed %s -> %s", shipID, newTarget)
		}
	}

	return len(released)
}

// Summary returns the monitoring snapshot exposed to telemetry consumers.
func (tc *TargetingController) Summary() TargetingSummary {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	summary := TargetingSummary{
		TotalTargets:  len(tc.targets),
		AssignedShips: len(tc.assignments),
		FleetDPS:      tc.fleetDPS,
	}

	for _, target := range tc.targets {
		switch target.Status {
		case TargetStatusAvailable:
			summary.Available++
		case TargetStatusEngaged:
			summary.Engaged++
		case TargetStatusOverkillRisk:
			summary.OverkillRisks++
		case TargetStatusDestroyed:
			summary.Destroyed++
		}
	}

	return summary
}

func clampFraction(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
