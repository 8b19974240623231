package core

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{90, 90},
		{-90, -90},
		{180, 180},
		{-180, 180},
		{540, 180},
		{361, 1},
		{-361, -1},
		{720, 0},
	}

	for _, tt := range tests {
		if got := NormalizeAngle(tt.in); !almostEqual(got, tt.want) {
			t.Errorf("NormalizeAngle(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAssessIdenticalShips(t *testing.T) {
	assessor := NewAssessor(80)

	own := ShipInfo{
		ID:          "A",
		Position:    Vector2{X: 0, Y: 0},
		Hull:        100,
		Shield:      100,
		WeaponRange: 200,
	}
	target := ShipInfo{
		ID:          "B",
		Position:    Vector2{X: 100, Y: 0},
		Hull:        100,
		Shield:      100,
		WeaponRange: 200,
	}

	tp := assessor.Assess(own, target)

	if !almostEqual(tp.Distance, 100) {
		t.Errorf("Expected distance 100, got %v", tp.Distance)
	}

	// Equal stats, both in range: advantage is only the in-range bonus.
	if !almostEqual(tp.AdvantageScore, 0.3) {
		t.Errorf("Expected advantage 0.3, got %v", tp.AdvantageScore)
	}

	// Outside safe distance, inside target's weapon range, no closing speed.
	if !almostEqual(tp.ThreatScore, 0.5) {
		t.Errorf("Expected threat 0.5, got %v", tp.ThreatScore)
	}

	if got := ClassifySituation(tp, 1.0); got != SituationNeutral {
		t.Errorf("Expected neutral situation, got %s", got)
	}
}

func TestAssessCoincidentPositions(t *testing.T) {
	assessor := NewAssessor(80)

	ship := ShipInfo{Position: Vector2{X: 50, Y: 50}, Hull: 100, WeaponRange: 100}
	tp := assessor.Assess(ship, ship)

	if math.IsNaN(tp.RelativeAngle) || math.IsNaN(tp.AdvantageScore) || math.IsNaN(tp.ThreatScore) {
		t.Fatalf("Coincident positions produced NaN: %+v", tp)
	}

	if tp.Distance <= 0 {
		t.Errorf("Expected positive floored distance, got %v", tp.Distance)
	}
}

func TestAssessRelativeAngle(t *testing.T) {
	assessor := NewAssessor(80)

	own := ShipInfo{Position: Vector2{}, Heading: 0, Hull: 100, WeaponRange: 200}
	target := ShipInfo{Position: Vector2{X: 0, Y: 100}, Hull: 100, WeaponRange: 200}

	tp := assessor.Assess(own, target)
	if !almostEqual(tp.RelativeAngle, 90) {
		t.Errorf("Expected relative angle 90, got %v", tp.RelativeAngle)
	}

	own.Heading = 90
	tp = assessor.Assess(own, target)
	if !almostEqual(tp.RelativeAngle, 0) {
		t.Errorf("Expected relative angle 0 when facing target, got %v", tp.RelativeAngle)
	}
}

func TestAdvantageScoreClamped(t *testing.T) {
	assessor := NewAssessor(80)

	strong := ShipInfo{Position: Vector2{}, Hull: 100, Shield: 100, Velocity: Vector2{X: 50}, WeaponRange: 500}
	weak := ShipInfo{Position: Vector2{X: 100}, Hull: 0, Shield: 0, WeaponRange: 50}

	tp := assessor.Assess(strong, weak)
	if tp.AdvantageScore > 1.0 || tp.AdvantageScore < -1.0 {
		t.Errorf("Advantage score not clamped: %v", tp.AdvantageScore)
	}
	if !almostEqual(tp.AdvantageScore, 1.0) {
		t.Errorf("Expected saturated advantage 1.0, got %v", tp.AdvantageScore)
	}

	tp = assessor.Assess(weak, strong)
	if tp.AdvantageScore < -1.0 {
		t.Errorf("Advantage score not clamped below: %v", tp.AdvantageScore)
	}
}

func TestThreatScoreComponents(t *testing.T) {
	assessor := NewAssessor(80)

	own := ShipInfo{Position: Vector2{}, Hull: 100, WeaponRange: 200}

	// Close but out of the target's short weapon range, no closing speed.
	target := ShipInfo{Position: Vector2{X: 40}, Hull: 100, WeaponRange: 30}
	tp := assessor.Assess(own, target)
	if !almostEqual(tp.ThreatScore, 0.5) {
		t.Errorf("Expected proximity-only threat 0.5, got %v", tp.ThreatScore)
	}

	// All three components saturate the clamp.
	target = ShipInfo{Position: Vector2{X: 10}, Hull: 100, WeaponRange: 300, Velocity: Vector2{X: 20}}
	tp = assessor.Assess(own, target)
	if !almostEqual(tp.ThreatScore, 1.0) {
		t.Errorf("Expected clamped threat 1.0, got %v", tp.ThreatScore)
	}
}

func TestClassifySituationPriority(t *testing.T) {
	tests := []struct {
		name         string
		tp           TacticalPosition
		targetHealth float64
		want         Situation
	}{
		{
			name:         "near-dead target wins over bad advantage",
			tp:           TacticalPosition{AdvantageScore: -0.9, ThreatScore: 0.9},
			targetHealth: 0.1,
			want:         SituationVictory,
		},
		{
			name:         "strong advantage",
			tp:           TacticalPosition{AdvantageScore: 0.6},
			targetHealth: 0.8,
			want:         SituationAdvantage,
		},
		{
			name:         "strong disadvantage beats overwhelm check",
			tp:           TacticalPosition{AdvantageScore: -0.6, ThreatScore: 0.9},
			targetHealth: 0.8,
			want:         SituationDisadvantage,
		},
		{
			name:         "high threat alone overwhelms",
			tp:           TacticalPosition{AdvantageScore: 0.0, ThreatScore: 0.8},
			targetHealth: 0.8,
			want:         SituationOverwhelmed,
		},
		{
			name:         "even match",
			tp:           TacticalPosition{AdvantageScore: 0.2, ThreatScore: 0.3},
			targetHealth: 0.8,
			want:         SituationNeutral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifySituation(tt.tp, tt.targetHealth); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestInOptimalRange(t *testing.T) {
	tp := TacticalPosition{Distance: 180}
	if !tp.InOptimalRange(150, 50) {
		t.Errorf("180 should be within 150±50")
	}
	tp.Distance = 210
	if tp.InOptimalRange(150, 50) {
		t.Errorf("210 should be outside 150±50")
	}
}
