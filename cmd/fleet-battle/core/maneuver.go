package core

import "math"

// ManeuverPlanner converts a combat intent into a desired waypoint for the
// external movement system. It never emits velocity or thrust; translating
// the waypoint into motion is the physics component's job.
type ManeuverPlanner struct {
	profile   CombatProfile
	lookahead float64 // seconds of target velocity prediction for intercepts
	rng       JitterSource
}

// JitterSource supplies the randomized lateral component of evasion.
// *rand.Rand satisfies it; tests can pin the jitter.
type JitterSource interface {
	Float64() float64
}

// NewManeuverPlanner creates a planner. rng drives evasion jitter and should
// be seeded deterministically when reproducible battles are required.
func NewManeuverPlanner(profile CombatProfile, rng JitterSource) *ManeuverPlanner {
	return &ManeuverPlanner{
		profile:   profile,
		lookahead: 0.5,
		rng:       rng,
	}
}

// Waypoint computes the desired steering point for the current intent.
func (p *ManeuverPlanner) Waypoint(intent CombatIntent, own, target ShipInfo, tp TacticalPosition) Vector2 {
	switch intent {
	case IntentPursuit:
		return p.pursuitWaypoint(own, target, tp)
	case IntentStrafe:
		return p.strafeWaypoint(own, target)
	case IntentEvade:
		return p.evadeWaypoint(own, target)
	case IntentRetreat:
		return p.retreatWaypoint(own, target)
	case IntentLocked:
		return p.lockedWaypoint(own, target, tp)
	default:
		return own.Position
	}
}

// pursuitWaypoint closes on a short-horizon intercept point, or swings to a
// flanking offset when already inside preferred range at a bad angle.
func (p *ManeuverPlanner) pursuitWaypoint(own, target ShipInfo, tp TacticalPosition) Vector2 {
	if tp.Distance > p.profile.PreferredRange {
		return target.Position.Add(target.Velocity.Scale(p.lookahead))
	}

	if math.Abs(tp.RelativeAngle) > 45.0 {
		// Close enough but badly angled; flank instead of closing head-on.
		lateral := target.Position.Sub(own.Position).Normalize().Perpendicular()
		return target.Position.Add(lateral.Scale(p.profile.PreferredRange))
	}

	return target.Position.Add(target.Velocity.Scale(p.lookahead))
}

// strafeWaypoint orbits the target at preferred range by aiming at a point
// offset along the perpendicular of the bearing vector.
func (p *ManeuverPlanner) strafeWaypoint(own, target ShipInfo) Vector2 {
	lateral := target.Position.Sub(own.Position).Normalize().Perpendicular()
	return target.Position.Add(lateral.Scale(p.profile.PreferredRange))
}

// evadeWaypoint breaks away from the target with a randomized lateral jitter
// of up to ±45 degrees so the escape vector is unpredictable.
func (p *ManeuverPlanner) evadeWaypoint(own, target ShipInfo) Vector2 {
	awayBearing := own.Position.Sub(target.Position).Bearing()
	jitter := (p.rng.Float64()*2.0 - 1.0) * 45.0
	distance := p.profile.MinSafeDistance * 1.5
	return own.Position.Add(HeadingVector(awayBearing + jitter).Scale(distance))
}

// retreatWaypoint disengages directly away from the target.
func (p *ManeuverPlanner) retreatWaypoint(own, target ShipInfo) Vector2 {
	away := own.Position.Sub(target.Position).Normalize()
	return own.Position.Add(away.Scale(p.profile.MaxEngagementRange))
}

// lockedWaypoint holds position, nudging away only when the target has closed
// too tight for precise fire.
func (p *ManeuverPlanner) lockedWaypoint(own, target ShipInfo, tp TacticalPosition) Vector2 {
	if tp.Distance < p.profile.PreferredRange-20.0 {
		away := own.Position.Sub(target.Position).Normalize()
		return own.Position.Add(away.Scale(10.0))
	}
	return own.Position
}
