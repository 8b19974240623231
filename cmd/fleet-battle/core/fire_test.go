package core

import "testing"

func TestMaxFireAngle(t *testing.T) {
	if got := MaxFireAngle(IntentStrafe); got != 30.0 {
		t.Errorf("Expected 30 degree cone for strafe, got %v", got)
	}
	if got := MaxFireAngle(IntentLocked); got != 10.0 {
		t.Errorf("Expected 10 degree cone for locked, got %v", got)
	}
	if got := MaxFireAngle(IntentPursuit); got != 20.0 {
		t.Errorf("Expected 20 degree cone for pursuit, got %v", got)
	}
	if got := MaxFireAngle(IntentRetreat); got != 20.0 {
		t.Errorf("Expected 20 degree default cone, got %v", got)
	}
}

func TestShouldFire(t *testing.T) {
	var fc FireController

	tests := []struct {
		name        string
		intent      CombatIntent
		tp          TacticalPosition
		ready       bool
		weaponRange float64
		want        bool
	}{
		{
			name:        "never fires out of range",
			intent:      IntentStrafe,
			tp:          TacticalPosition{Distance: 500, RelativeAngle: 0},
			ready:       true,
			weaponRange: 400,
			want:        false,
		},
		{
			name:        "never fires on cooldown",
			intent:      IntentStrafe,
			tp:          TacticalPosition{Distance: 100, RelativeAngle: 0},
			ready:       false,
			weaponRange: 400,
			want:        false,
		},
		{
			name:        "strafe tolerates a wide angle",
			intent:      IntentStrafe,
			tp:          TacticalPosition{Distance: 100, RelativeAngle: 25},
			ready:       true,
			weaponRange: 400,
			want:        true,
		},
		{
			name:        "strafe cone still bounded",
			intent:      IntentStrafe,
			tp:          TacticalPosition{Distance: 100, RelativeAngle: 35},
			ready:       true,
			weaponRange: 400,
			want:        false,
		},
		{
			name:        "locked demands a tight angle",
			intent:      IntentLocked,
			tp:          TacticalPosition{Distance: 100, RelativeAngle: 15},
			ready:       true,
			weaponRange: 400,
			want:        false,
		},
		{
			name:        "locked fires inside the tight cone",
			intent:      IntentLocked,
			tp:          TacticalPosition{Distance: 100, RelativeAngle: 5},
			ready:       true,
			weaponRange: 400,
			want:        true,
		},
		{
			name:        "pursuit uses the default cone",
			intent:      IntentPursuit,
			tp:          TacticalPosition{Distance: 100, RelativeAngle: -18},
			ready:       true,
			weaponRange: 400,
			want:        true,
		},
		{
			name:        "pursuit rejects outside the default cone",
			intent:      IntentPursuit,
			tp:          TacticalPosition{Distance: 100, RelativeAngle: 25},
			ready:       true,
			weaponRange: 400,
			want:        false,
		},
		{
			name:        "fires exactly at range boundary",
			intent:      IntentPursuit,
			tp:          TacticalPosition{Distance: 400, RelativeAngle: 0},
			ready:       true,
			weaponRange: 400,
			want:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fc.ShouldFire(tt.intent, tt.tp, tt.ready, tt.weaponRange)
			if got != tt.want {
				t.Errorf("Expected %t, got %t", tt.want, got)
			}
		})
	}
}
