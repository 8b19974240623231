package core

// CombatIntent is the tactical posture a ship holds while engaged.
type CombatIntent string

const (
	IntentPursuit CombatIntent = "pursuit" // close and press the attack
	IntentStrafe  CombatIntent = "strafe"  // orbit at preferred range
	IntentEvade   CombatIntent = "evade"   // break away laterally
	IntentRetreat CombatIntent = "retreat" // disengage to max range
	IntentLocked  CombatIntent = "locked"  // hold position, precise fire
)

// CombatProfile bundles the per-ship behavior parameters that tune intent
// selection and maneuvering. Weights are fixed configuration, not learned.
type CombatProfile struct {
	Aggression         float64 // 0.0 defensive .. 1.0 aggressive
	PreferredRange     float64
	RangeTolerance     float64
	MinSafeDistance    float64
	MaxEngagementRange float64
	IntentPersistence  float64 // seconds an intent must hold before switching
}

// DefaultCombatProfile returns the baseline profile used when a ship carries
// no per-ship overrides.
func DefaultCombatProfile() CombatProfile {
	return CombatProfile{
		Aggression:         0.7,
		PreferredRange:     150.0,
		RangeTolerance:     50.0,
		MinSafeDistance:    80.0,
		MaxEngagementRange: 300.0,
		IntentPersistence:  2.0,
	}
}

// intentRule selects a posture for one situation. Each rule is pure so it can
// be unit-tested in isolation from the hysteresis gate.
type intentRule func(profile CombatProfile, own ShipInfo, tp TacticalPosition) CombatIntent

// intentRules is the transition table keyed by situation.
var intentRules = map[Situation]intentRule{
	SituationVictory: func(CombatProfile, ShipInfo, TacticalPosition) CombatIntent {
		return IntentPursuit
	},
	SituationAdvantage: func(p CombatProfile, _ ShipInfo, tp TacticalPosition) CombatIntent {
		if p.Aggression >= 0.7 {
			return IntentPursuit
		}
		if tp.InOptimalRange(p.PreferredRange, p.RangeTolerance) {
			return IntentStrafe
		}
		return IntentPursuit
	},
	SituationDisadvantage: func(p CombatProfile, own ShipInfo, tp TacticalPosition) CombatIntent {
		if tp.ThreatScore > 0.6 {
			return IntentEvade
		}
		if own.Hull < 40.0 {
			return IntentRetreat
		}
		return IntentStrafe
	},
	SituationOverwhelmed: func(p CombatProfile, own ShipInfo, _ TacticalPosition) CombatIntent {
		if own.Hull < 30.0 {
			return IntentRetreat
		}
		return IntentEvade
	},
	SituationNeutral: func(p CombatProfile, _ ShipInfo, tp TacticalPosition) CombatIntent {
		if tp.Distance > p.PreferredRange+50.0 {
			return IntentPursuit
		}
		if tp.Distance < p.MinSafeDistance {
			return IntentEvade
		}
		return IntentStrafe
	},
}

// RuleForSituation exposes the raw transition rule for a situation, bypassing
// hysteresis. Unknown situations fall back to the neutral rule.
func RuleForSituation(s Situation) func(CombatProfile, ShipInfo, TacticalPosition) CombatIntent {
	if rule, ok := intentRules[s]; ok {
		return rule
	}
	return intentRules[SituationNeutral]
}

// IntentController owns one ship's combat posture. Transitions are gated by a
// minimum dwell time so the posture cannot thrash between ticks even when the
// situation read toggles every tick.
type IntentController struct {
	profile        CombatProfile
	current        CombatIntent
	switchCooldown float64 // seconds until the next switch is allowed
}

// NewIntentController creates a controller starting in pursuit.
func NewIntentController(profile CombatProfile) *IntentController {
	if profile.IntentPersistence <= 0 {
		profile.IntentPersistence = DefaultCombatProfile().IntentPersistence
	}
	return &IntentController{
		profile: profile,
		current: IntentPursuit,
	}
}

// Current returns the posture currently held.
func (c *IntentController) Current() CombatIntent {
	return c.current
}

// SwitchCooldown returns the seconds remaining before a switch is allowed.
func (c *IntentController) SwitchCooldown() float64 {
	if c.switchCooldown < 0 {
		return 0
	}
	return c.switchCooldown
}

// Profile returns the controller's combat profile.
func (c *IntentController) Profile() CombatProfile {
	return c.profile
}

// Update advances the dwell timer by dt and applies the transition table for
// the given situation. It returns the posture in effect and whether it
// changed this tick.
func (c *IntentController) Update(situation Situation, own ShipInfo, tp TacticalPosition, dt float64) (CombatIntent, bool) {
	if c.switchCooldown > 0 {
		c.switchCooldown -= dt
	}

	next := RuleForSituation(situation)(c.profile, own, tp)
	if next != c.current && c.switchCooldown <= 0 {
		c.current = next
		c.switchCooldown = c.profile.IntentPersistence
		return c.current, true
	}

	return c.current, false
}
