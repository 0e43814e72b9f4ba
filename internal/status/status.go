// Package status provides a thread-safe view of the running loop for the
// HTTP server and MQTT heartbeats. Only the loop goroutine writes to it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/boardloop/internal/logic"
	"github.com/sweeney/boardloop/internal/sched"
)

// Config is the subset of configuration shown to status consumers.
type Config struct {
	Demo        string
	IdleMs      uint32
	SettleMs    uint32
	Threshold   uint16
	LowBand     uint16
	HighBand    uint16
	HeartbeatMs uint32
	Broker      string
	HTTPAddr    string
}

// Loop is the demo state published by the status task.
type Loop struct {
	NowMs uint64

	Pattern   uint8
	Direction logic.Direction
	Cycles    uint32

	Button  bool
	Presses uint32

	// HasMotion is false until the first motion sample is taken.
	HasMotion bool
	Sample    logic.MotionSample
	Verdict   logic.Verdict

	Sensor uint16
}

// Snapshot is a point-in-time copy of the tracker; safe to use after the
// lock is released.
type Snapshot struct {
	RunID         string
	Loop          Loop
	Tasks         []sched.TaskInfo
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the loop started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable loop state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

func NewTracker(startTime time.Time, runID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			RunID:     runID,
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update replaces the loop state and task table. tasks is copied.
func (t *Tracker) Update(loop Loop, tasks []sched.TaskInfo) {
	cp := make([]sched.TaskInfo, len(tasks))
	copy(cp, tasks)

	t.mu.Lock()
	t.snap.Loop = loop
	t.snap.Tasks = cp
	t.mu.Unlock()
}

// SetMQTTConnected is called from the MQTT client goroutine.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a copy of the state with Now set to the wall clock.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Tasks = append([]sched.TaskInfo(nil), t.snap.Tasks...)
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}
