package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/stellarforge/fleet-tactics/pkg/logger"
)

// BattleLogger collects battle events for console display and the
// after-action report.
type BattleLogger struct {
	battleID  string
	startTime time.Time
	events    []BattleEvent
	maxEvents int
	mu        sync.RWMutex
}

// BattleEvent is one logged battle event.
type BattleEvent struct {
	Timestamp time.Time
	Tick      uint64
	Type      string
	Fleet     string
	ShipID    string
	Message   string
}

// Event types
const (
	EventTypeSpawn        = "spawn"
	EventTypeIntentChange = "intent_change"
	EventTypeAssignment   = "assignment"
	EventTypeFire         = "fire"
	EventTypeDestruction  = "destruction"
	EventTypeOrder        = "order"
	EventTypeOverkill     = "overkill"
	EventTypeBattleEnd    = "battle_end"
)

var (
	colorFleetBlue = color.New(color.FgBlue, color.Bold)
	colorFleetRed  = color.New(color.FgRed, color.Bold)
	colorNeutral   = color.New(color.FgHiBlack)
	colorKill      = color.New(color.FgYellow, color.Bold)
	colorVictory   = color.New(color.FgGreen, color.Bold)
)

// NewBattleLogger creates a battle logger. maxEvents bounds the in-memory
// event log; older events are dropped once the bound is hit.
func NewBattleLogger(maxEvents int) *BattleLogger {
	if maxEvents <= 0 {
		maxEvents = 1000
	}
	bl := &BattleLogger{
		battleID:  uuid.New().String(),
		startTime: time.Now(),
		events:    make([]BattleEvent, 0, maxEvents),
		maxEvents: maxEvents,
	}
	logger.Infof("battle %s started at %s", bl.battleID[:8], bl.startTime.Format("15:04:05"))
	return bl
}

// BattleID returns the unique id of this battle run.
func (bl *BattleLogger) BattleID() string {
	return bl.battleID
}

func (bl *BattleLogger) record(event BattleEvent) {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if len(bl.events) >= bl.maxEvents {
		bl.events = bl.events[1:]
	}
	bl.events = append(bl.events, event)
}

func fleetColor(fleet string) *color.Color {
	switch fleet {
	case "BLUE":
		return colorFleetBlue
	case "RED":
		return colorFleetRed
	default:
		return colorNeutral
	}
}

// LogSpawn records a ship entering the battle.
func (bl *BattleLogger) LogSpawn(tick uint64, fleet, shipID string) {
	bl.record(BattleEvent{
		Tick:    tick,
		Type:    EventTypeSpawn,
		Fleet:   fleet,
		ShipID:  shipID,
		Message: fmt.Sprintf("%s deployed", shipID),
	})
}

// LogIntentChange records a ship switching combat posture.
func (bl *BattleLogger) LogIntentChange(tick uint64, fleet, shipID, from, to string) {
	bl.record(BattleEvent{
		Tick:    tick,
		Type:    EventTypeIntentChange,
		Fleet:   fleet,
		ShipID:  shipID,
		Message: fmt.Sprintf("%s intent %s -> %s", shipID, from, to),
	})
	logger.Debugf("[t%d] %s: %s -> %s", tick, shipID, from, to)
}

// LogAssignment records a ship being assigned to a target.
func (bl *BattleLogger) LogAssignment(tick uint64, fleet, shipID, targetID string) {
	bl.record(BattleEvent{
		Tick:    tick,
		Type:    EventTypeAssignment,
		Fleet:   fleet,
		ShipID:  shipID,
		Message: fmt.Sprintf("%s assigned to %s", shipID, targetID),
	})
}

// LogFire records a weapon discharge and its damage.
func (bl *BattleLogger) LogFire(tick uint64, fleet, shipID, targetID string, damage float64) {
	bl.record(BattleEvent{
		Tick:    tick,
		Type:    EventTypeFire,
		Fleet:   fleet,
		ShipID:  shipID,
		Message: fmt.Sprintf("%s fired on %s for %.1f", shipID, targetID, damage),
	})
}

// LogDestruction records a kill and prints it to the console.
func (bl *BattleLogger) LogDestruction(tick uint64, fleet, shipID, killerID string) {
	bl.record(BattleEvent{
		Tick:    tick,
		Type:    EventTypeDestruction,
		Fleet:   fleet,
		ShipID:  shipID,
		Message: fmt.Sprintf("%s destroyed by %s", shipID, killerID),
	})
	logger.Infof("[t%d] %s %s destroyed by %s", tick,
		fleetColor(fleet).Sprint(fleet), shipID, colorKill.Sprint(killerID))
}

// LogOrder records a fleet-wide order being issued.
func (bl *BattleLogger) LogOrder(tick uint64, fleet, order string) {
	bl.record(BattleEvent{
		Tick:    tick,
		Type:    EventTypeOrder,
		Fleet:   fleet,
		Message: fmt.Sprintf("fleet %s order: %s", fleet, order),
	})
}

// LogOverkill records engagers being redistributed off a saturated target.
func (bl *BattleLogger) LogOverkill(tick uint64, fleet string, released int) {
	if released <= 0 {
		return
	}
	bl.record(BattleEvent{
		Tick:    tick,
		Type:    EventTypeOverkill,
		Fleet:   fleet,
		Message: fmt.Sprintf("fleet %s redistributed %d engagers", fleet, released),
	})
}

// LogBattleEnd records the terminal outcome.
func (bl *BattleLogger) LogBattleEnd(tick uint64, outcome string) {
	bl.record(BattleEvent{
		Tick:    tick,
		Type:    EventTypeBattleEnd,
		Message: outcome,
	})
	logger.Infof("[t%d] %s", tick, colorVictory.Sprint(outcome))
}

// Events returns a copy of the event log.
func (bl *BattleLogger) Events() []BattleEvent {
	bl.mu.RLock()
	defer bl.mu.RUnlock()
	out := make([]BattleEvent, len(bl.events))
	copy(out, bl.events)
	return out
}

// EventCounts returns the number of logged events per type.
func (bl *BattleLogger) EventCounts() map[string]int {
	bl.mu.RLock()
	defer bl.mu.RUnlock()
	counts := make(map[string]int)
	for _, e := range bl.events {
		counts[e.Type]++
	}
	return counts
}

// ShipResult is one ship's line in the after-action report.
type ShipResult struct {
	ShipID      string
	Fleet       string
	Survived    bool
	Hull        float64
	ShotsFired  int
	DamageDealt float64
	Kills       int
}

// AfterActionReport is the battle summary written when a battle ends.
type AfterActionReport struct {
	BattleID string
	Outcome  string
	Ticks    uint64
	Duration time.Duration
	Ships    []ShipResult
}

// GenerateAAR builds the after-action report from ship results.
func (bl *BattleLogger) GenerateAAR(outcome string, ticks uint64, ships []ShipResult) AfterActionReport {
	sort.Slice(ships, func(i, j int) bool {
		if ships[i].Fleet != ships[j].Fleet {
			return ships[i].Fleet < ships[j].Fleet
		}
		return ships[i].ShipID < ships[j].ShipID
	})
	return AfterActionReport{
		BattleID: bl.battleID,
		Outcome:  outcome,
		Ticks:    ticks,
		Duration: time.Since(bl.startTime),
		Ships:    ships,
	}
}

// PrintAAR writes the report to the console with fleet colors.
func (bl *BattleLogger) PrintAAR(report AfterActionReport) {
	fmt.Println()
	colorVictory.Printf("=== AFTER ACTION REPORT ===\n")
	fmt.Printf("Battle:   %s\n", report.BattleID[:8])
	fmt.Printf("Outcome:  %s\n", report.Outcome)
	fmt.Printf("Ticks:    %d\n", report.Ticks)
	fmt.Printf("Duration: %s\n", report.Duration.Round(time.Millisecond))
	fmt.Println()

	for _, ship := range report.Ships {
		state := "destroyed"
		if ship.Survived {
			state = fmt.Sprintf("hull %.0f", ship.Hull)
		}
		fleetColor(ship.Fleet).Printf("  %-10s", ship.ShipID)
		fmt.Printf(" %-12s shots %-4d dmg %-8.1f kills %d\n",
			state, ship.ShotsFired, ship.DamageDealt, ship.Kills)
	}
	fmt.Println()
}

// WriteAAR writes the report as a plain-text file under outputDir and
// returns the file path.
func (bl *BattleLogger) WriteAAR(report AfterActionReport, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("error creating report directory: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "AFTER ACTION REPORT\n")
	fmt.Fprintf(&sb, "Battle:   %s\n", report.BattleID)
	fmt.Fprintf(&sb, "Outcome:  %s\n", report.Outcome)
	fmt.Fprintf(&sb, "Ticks:    %d\n", report.Ticks)
	fmt.Fprintf(&sb, "Duration: %s\n\n", report.Duration.Round(time.Millisecond))

	for _, ship := range report.Ships {
		state := "destroyed"
		if ship.Survived {
			state = fmt.Sprintf("hull %.0f", ship.Hull)
		}
		fmt.Fprintf(&sb, "%-6s %-10s %-12s shots %-4d dmg %-8.1f kills %d\n",
			ship.Fleet, ship.ShipID, state, ship.ShotsFired, ship.DamageDealt, ship.Kills)
	}

	path := filepath.Join(outputDir, fmt.Sprintf("aar-%s.txt", report.BattleID[:8]))
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return "", fmt.Errorf("error writing report: %w", err)
	}
	return path, nil
}
