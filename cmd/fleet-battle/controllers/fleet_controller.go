package controllers

import (
	"sync"

	"github.com/stellarforge/fleet-tactics/cmd/fleet-battle/core"
	"github.com/stellarforge/fleet-tactics/pkg/logger"
)

// OrderKind enumerates fleet-wide tactical orders.
type OrderKind string

const (
	OrderFreeEngage OrderKind = "FREE_ENGAGE" // ships choose their own targets
	OrderFocusFire  OrderKind = "FOCUS_FIRE"  // concentrate on one target
	OrderRally      OrderKind = "RALLY"       // converge on a point
	OrderDefend     OrderKind = "DEFEND"      // protect a designated ship
)

// FleetOrder is the advisory order currently in force for a fleet. It biases
// target selection and maneuvering but never overrides a ship's own survival
// rules; a disadvantaged ship may still retreat.
//
// RALLY and DEFEND orders are accepted and stored but only the bias vectors
// derived from FREE_ENGAGE and FOCUS_FIRE feed into ship decisions today;
// Point and VIPID are held for order bookkeeping, nothing reads them back.
type FleetOrder struct {
	Kind     OrderKind
	TargetID string       // FOCUS_FIRE target
	Point    core.Vector2 // RALLY point
	VIPID    string       // DEFEND ward
}

// TacticalBias is the fixed-order, strongly typed input vector the fleet
// layer exposes to higher-level behavior models. Field order is the
// contract: fleet-center X, fleet-center Y, focus-target X, focus-target Y.
// All components are normalized direction components in [-1, 1]; the focus
// pair is zero when no focus-fire order is active or its target is gone.
type TacticalBias struct {
	FleetCenterX float64
	FleetCenterY float64
	FocusX       float64
	FocusY       float64
}

// Values returns the bias components in their documented order.
func (b TacticalBias) Values() [4]float64 {
	return [4]float64{b.FleetCenterX, b.FleetCenterY, b.FocusX, b.FocusY}
}

// FleetController is the fleet command (admiral) layer: it holds the current
// fleet-wide order and derives formation and focus bias vectors for each
// ship. It decides nothing per-ship; ships keep their autonomy.
type FleetController struct {
	fleetID string
	order   FleetOrder
	mu      sync.RWMutex
}

// NewFleetController creates an admiral for the given fleet, defaulting to
// free engagement.
func NewFleetController(fleetID string) *FleetController {
	return &FleetController{
		fleetID: fleetID,
		order:   FleetOrder{Kind: OrderFreeEngage},
	}
}

// FleetID returns the fleet this controller commands.
func (fc *FleetController) FleetID() string {
	return fc.fleetID
}

// IssueOrder replaces the fleet-wide order, read by all ships next tick.
func (fc *FleetController) IssueOrder(order FleetOrder) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if order.Kind == "" {
		order.Kind = OrderFreeEngage
	}
	fc.order = order

	logger.Infof("fleet %s: order %s issued", fc.fleetID, order.Kind)
}

// CurrentOrder returns the order currently in force.
func (fc *FleetController) CurrentOrder() FleetOrder {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return fc.order
}

// ResolveFocusTarget returns the focus-fire target id if the current order
// is FOCUS_FIRE and the target still exists and is not destroyed. A stale
// reference degrades to free engagement for this tick and logs a warning;
// nothing here is fatal.
func (fc *FleetController) ResolveFocusTarget(targeting *TargetingController) (string, bool) {
	fc.mu.RLock()
	order := fc.order
	fc.mu.RUnlock()

	if order.Kind != OrderFocusFire || order.TargetID == "" {
		return "", false
	}

	snapshot, ok := targeting.TargetSnapshot(order.TargetID)
	if !ok || snapshot.Status == TargetStatusDestroyed {
		logger.Warnf("fleet %s: focus-fire target %s no longer exists, free engaging this tick",
			fc.fleetID, order.TargetID)
		return "", false
	}

	return order.TargetID, true
}

// Centroid returns the geometric average of the given ship positions.
func Centroid(positions []core.Vector2) core.Vector2 {
	if len(positions) == 0 {
		return core.Vector2{}
	}

	var sum core.Vector2
	for _, p := range positions {
		sum = sum.Add(p)
	}
	return sum.Scale(1.0 / float64(len(positions)))
}

// BiasFor computes the tactical bias vectors for one ship: the normalized
// direction to the fleet centroid (formation keeping) and to the focus
// target (command pressure). lookup resolves a target id to its position.
func (fc *FleetController) BiasFor(shipPos, centroid core.Vector2, lookup func(id string) (core.Vector2, bool)) TacticalBias {
	var bias TacticalBias

	toCenter := centroid.Sub(shipPos).Normalize()
	bias.FleetCenterX = toCenter.X
	bias.FleetCenterY = toCenter.Y

	fc.mu.RLock()
	order := fc.order
	fc.mu.RUnlock()

	if order.Kind == OrderFocusFire && order.TargetID != "" {
		if pos, ok := lookup(order.TargetID); ok {
			toFocus := pos.Sub(shipPos).Normalize()
			bias.FocusX = toFocus.X
			bias.FocusY = toFocus.Y
		}
		// Lost targets leave the focus pair zeroed.
	}

	return bias
}
