package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stellarforge/fleet-tactics/pkg/logger"
)

// ShipState is a read-only snapshot of one ship's decision state, published
// for monitoring. There is no mutation path back into the engine.
type ShipState struct {
	ShipID    string    `json:"ship_id"`
	Fleet     string    `json:"fleet"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Hull      float64   `json:"hull"`
	Intent    string    `json:"intent"`
	TargetID  string    `json:"target_id,omitempty"`
	Situation string    `json:"situation,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// FleetStats is a per-fleet targeting snapshot for dashboard consumers.
type FleetStats struct {
	Fleet         string  `json:"fleet"`
	TotalTargets  int     `json:"total_targets"`
	Available     int     `json:"available"`
	Engaged       int     `json:"engaged"`
	OverkillRisks int     `json:"overkill_risks"`
	Destroyed     int     `json:"destroyed"`
	AssignedShips int     `json:"assigned_ships"`
	FleetDPS      float64 `json:"fleet_dps"`
}

// Batch groups the snapshots accumulated between flushes.
type Batch struct {
	ID        uuid.UUID    `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Tick      uint64       `json:"tick"`
	Ships     []ShipState  `json:"ships,omitempty"`
	Fleets    []FleetStats `json:"fleets,omitempty"`
}

// Sink receives flushed snapshot batches.
type Sink interface {
	WriteBatch(batch Batch) error
}

// Buffer coalesces per-ship and per-fleet snapshots and flushes them to a
// sink on an interval. Only the latest state per ship and per fleet is kept
// between flushes.
type Buffer struct {
	sink          Sink
	ships         map[string]ShipState
	fleets        map[string]FleetStats
	tick          uint64
	flushInterval time.Duration
	lastFlush     time.Time
	mu            sync.Mutex
	stopChan      chan struct{}
	wg            sync.WaitGroup
}

// NewBuffer creates a buffer flushing to sink every flushInterval.
func NewBuffer(sink Sink, flushInterval time.Duration) *Buffer {
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &Buffer{
		sink:          sink,
		ships:         make(map[string]ShipState),
		fleets:        make(map[string]FleetStats),
		flushInterval: flushInterval,
		lastFlush:     time.Now(),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the automatic flush goroutine.
func (b *Buffer) Start(ctx context.Context) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		ticker := time.NewTicker(b.flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-b.stopChan:
				return
			case <-ticker.C:
				if err := b.Flush(); err != nil {
					logger.Errorf("telemetry: flush failed: %v", err)
				}
			}
		}
	}()
}

// Stop halts the flush goroutine and drains what remains.
func (b *Buffer) Stop() {
	close(b.stopChan)
	b.wg.Wait()
	if err := b.Flush(); err != nil {
		logger.Errorf("telemetry: final flush failed: %v", err)
	}
}

// QueueShipState records the latest decision state for a ship.
func (b *Buffer) QueueShipState(state ShipState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if state.Timestamp.IsZero() {
		state.Timestamp = time.Now()
	}
	b.ships[state.ShipID] = state
}

// QueueFleetStats records the latest targeting snapshot for a fleet.
func (b *Buffer) QueueFleetStats(stats FleetStats) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fleets[stats.Fleet] = stats
}

// SetTick records the simulation tick stamped onto the next batch.
func (b *Buffer) SetTick(tick uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tick = tick
}

// PendingCount returns the number of buffered snapshots.
func (b *Buffer) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ships) + len(b.fleets)
}

// Flush sends everything buffered to the sink as a single batch.
func (b *Buffer) Flush() error {
	b.mu.Lock()

	if len(b.ships) == 0 && len(b.fleets) == 0 {
		b.mu.Unlock()
		return nil
	}

	batch := Batch{
		ID:        uuid.New(),
		CreatedAt: time.Now(),
		Tick:      b.tick,
		Ships:     make([]ShipState, 0, len(b.ships)),
		Fleets:    make([]FleetStats, 0, len(b.fleets)),
	}
	for _, s := range b.ships {
		batch.Ships = append(batch.Ships, s)
	}
	for _, f := range b.fleets {
		batch.Fleets = append(batch.Fleets, f)
	}
	b.ships = make(map[string]ShipState)
	b.fleets = make(map[string]FleetStats)
	b.lastFlush = time.Now()

	b.mu.Unlock()

	return b.sink.WriteBatch(batch)
}

// JSONLSink writes each batch as one JSON line.
type JSONLSink struct {
	w  io.Writer
	mu sync.Mutex
}

// NewJSONLSink creates a sink writing JSON lines to w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{w: w}
}

// WriteBatch implements Sink.
func (s *JSONLSink) WriteBatch(batch Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = s.w.Write(data)
	return err
}

// DiscardSink drops batches; used when telemetry output is disabled.
type DiscardSink struct{}

// WriteBatch implements Sink.
func (DiscardSink) WriteBatch(Batch) error { return nil }
