package core

// ShipInfo carries the read-only kinematics and combat stats the assessor
// needs about a single ship. The physics component owns the authoritative
// state; this is a per-tick copy.
type ShipInfo struct {
	ID          string
	Position    Vector2
	Heading     float64 // degrees, world frame
	Velocity    Vector2
	Hull        float64 // percent, 0-100
	Shield      float64 // percent, 0-100
	WeaponRange float64
}

// Speed returns the scalar speed of the ship.
func (s ShipInfo) Speed() float64 {
	return s.Velocity.Magnitude()
}

// HealthFraction returns hull integrity as a 0..1 fraction.
func (s ShipInfo) HealthFraction() float64 {
	return s.Hull / 100.0
}

// TacticalPosition is the ephemeral geometry and scoring of one ship against
// one target. It is recomputed every tick and never persisted.
type TacticalPosition struct {
	Distance       float64
	RelativeAngle  float64 // ship-heading-relative bearing to target, (-180, 180]
	RelativeSpeed  float64
	AdvantageScore float64 // clamped [-1, 1]
	ThreatScore    float64 // clamped [0, 1]
}

// InRange reports whether the target is inside the given weapon range.
func (tp TacticalPosition) InRange(weaponRange float64) bool {
	return tp.Distance <= weaponRange
}

// InOptimalRange reports whether the target sits within tolerance of the
// preferred combat range.
func (tp TacticalPosition) InOptimalRange(preferred, tolerance float64) bool {
	diff := tp.Distance - preferred
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// Situation is the coarse tactical read used to drive intent selection.
type Situation string

const (
	SituationVictory      Situation = "victory"      // target nearly defeated
	SituationAdvantage    Situation = "advantage"    // we hold the edge
	SituationDisadvantage Situation = "disadvantage" // they hold the edge
	SituationOverwhelmed  Situation = "overwhelmed"  // outmatched, threat dominant
	SituationNeutral      Situation = "neutral"      // even match
)

// Assessor computes relative geometry and advantage/threat estimates between
// one ship and one candidate target. It is pure and stateless; the only knob
// is the distance at which proximity stops contributing threat.
type Assessor struct {
	SafeDistance float64
}

// NewAssessor returns an assessor with the given proximity safe distance.
func NewAssessor(safeDistance float64) Assessor {
	return Assessor{SafeDistance: safeDistance}
}

// Assess computes the tactical position of own versus target.
func (a Assessor) Assess(own, target ShipInfo) TacticalPosition {
	offset := target.Position.Sub(own.Position)
	distance := offset.Magnitude()
	if distance < epsilon {
		distance = epsilon
	}

	relativeAngle := NormalizeAngle(offset.Bearing() - own.Heading)
	relativeSpeed := target.Velocity.Sub(own.Velocity).Magnitude()

	return TacticalPosition{
		Distance:       distance,
		RelativeAngle:  relativeAngle,
		RelativeSpeed:  relativeSpeed,
		AdvantageScore: a.advantageScore(own, target, distance),
		ThreatScore:    a.threatScore(own, target, distance, relativeSpeed),
	}
}

// advantageScore weighs hull, shields, weapon reach and speed differentials
// into a single [-1, 1] estimate.
func (a Assessor) advantageScore(own, target ShipInfo, distance float64) float64 {
	score := 0.0

	score += (own.Hull - target.Hull) / 100.0 * 0.3
	score += (own.Shield - target.Shield) / 100.0 * 0.2

	if distance <= own.WeaponRange {
		score += 0.3
	}

	score += (own.Speed() - target.Speed()) / 10.0 * 0.2

	return clamp(score, -1.0, 1.0)
}

// threatScore estimates how dangerous the target currently is to us,
// from proximity, weapon reach and closing speed.
func (a Assessor) threatScore(own, target ShipInfo, distance, relativeSpeed float64) float64 {
	threat := 0.0

	if a.SafeDistance > 0 && distance < a.SafeDistance {
		threat += (a.SafeDistance - distance) / a.SafeDistance
	}

	if distance <= target.WeaponRange {
		threat += 0.5
	}

	if relativeSpeed > 5.0 {
		threat += 0.3
	}

	return clamp(threat, 0.0, 1.0)
}

// ClassifySituation maps scores and target health onto a Situation. Rules are
// evaluated in priority order; the first match wins.
func ClassifySituation(tp TacticalPosition, targetHealthFraction float64) Situation {
	switch {
	case targetHealthFraction < 0.2:
		return SituationVictory
	case tp.AdvantageScore > 0.5:
		return SituationAdvantage
	case tp.AdvantageScore < -0.5:
		return SituationDisadvantage
	case tp.ThreatScore > 0.7:
		return SituationOverwhelmed
	default:
		return SituationNeutral
	}
}
