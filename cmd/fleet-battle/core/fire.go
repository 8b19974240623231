package core

import "math"

// MaxFireAngle returns the widest bearing-to-target a ship may hold while
// still firing under the given intent. Strafing runs allow the widest cone;
// a weapon lock demands the tightest.
func MaxFireAngle(intent CombatIntent) float64 {
	switch intent {
	case IntentStrafe:
		return 30.0
	case IntentLocked:
		return 10.0
	default:
		return 20.0
	}
}

// FireController turns posture, geometry and weapon readiness into a single
// fire/no-fire decision. Damage resolution belongs to the weapon component.
type FireController struct{}

// ShouldFire reports whether the ship should fire this tick.
func (FireController) ShouldFire(intent CombatIntent, tp TacticalPosition, weaponReady bool, weaponRange float64) bool {
	if !weaponReady {
		return false
	}
	if tp.Distance > weaponRange {
		return false
	}
	return math.Abs(tp.RelativeAngle) <= MaxFireAngle(intent)
}
