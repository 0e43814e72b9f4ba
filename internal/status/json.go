package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/boardloop/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Demo          string      `json:"demo"`
	RunID         string      `json:"run_id"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	LoopMs        uint64      `json:"loop_ms"`
	Pattern       PatternJSON `json:"pattern"`
	Button        ButtonJSON  `json:"button"`
	Motion        *MotionJSON `json:"motion,omitempty"`
	Sensor        uint16      `json:"sensor"`
	Tasks         []TaskJSON  `json:"tasks"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Config        ConfigJSON  `json:"config"`
}

type PatternJSON struct {
	Value     uint8  `json:"value"`
	Bits      string `json:"bits"`
	Direction string `json:"direction"`
	Cycles    uint32 `json:"cycles"`
}

type ButtonJSON struct {
	Pressed bool   `json:"pressed"`
	Presses uint32 `json:"presses"`
}

type MotionJSON struct {
	X           uint16 `json:"x"`
	Y           uint16 `json:"y"`
	Z           uint16 `json:"z"`
	Motion      bool   `json:"motion"`
	Orientation string `json:"orientation"`
}

type TaskJSON struct {
	Name       string `json:"name"`
	IntervalMs uint32 `json:"interval_ms"`
	LastFireMs uint64 `json:"last_fire_ms"`
	Fires      uint64 `json:"fires"`
}

type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

type ConfigJSON struct {
	IdleMs      uint32 `json:"idle_ms"`
	SettleMs    uint32 `json:"settle_ms"`
	Threshold   uint16 `json:"threshold_counts"`
	LowBand     uint16 `json:"low_band"`
	HighBand    uint16 `json:"high_band"`
	HeartbeatMs uint32 `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

// Build converts a snapshot into its JSON shape.
func Build(snap Snapshot) StatusInner {
	dir := string(snap.Loop.Direction)
	if dir == "" {
		dir = string(logic.DirectionCW)
	}

	inner := StatusInner{
		Demo:          snap.Config.Demo,
		RunID:         snap.RunID,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		LoopMs:        snap.Loop.NowMs,
		Pattern: PatternJSON{
			Value:     snap.Loop.Pattern,
			Bits:      logic.Binary(snap.Loop.Pattern),
			Direction: dir,
			Cycles:    snap.Loop.Cycles,
		},
		Button: ButtonJSON{Pressed: snap.Loop.Button, Presses: snap.Loop.Presses},
		Sensor: snap.Loop.Sensor,
		Tasks:  make([]TaskJSON, 0, len(snap.Tasks)),
		MQTT:   MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			IdleMs:      snap.Config.IdleMs,
			SettleMs:    snap.Config.SettleMs,
			Threshold:   snap.Config.Threshold,
			LowBand:     snap.Config.LowBand,
			HighBand:    snap.Config.HighBand,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}

	if snap.Loop.HasMotion {
		inner.Motion = &MotionJSON{
			X:           snap.Loop.Sample.X,
			Y:           snap.Loop.Sample.Y,
			Z:           snap.Loop.Sample.Z,
			Motion:      snap.Loop.Verdict.Motion,
			Orientation: string(snap.Loop.Verdict.Orientation),
		}
	}
	for _, task := range snap.Tasks {
		inner.Tasks = append(inner.Tasks, TaskJSON{
			Name:       task.Name,
			IntervalMs: task.IntervalMs,
			LastFireMs: task.LastFireMs,
			Fires:      task.Fires,
		})
	}
	return inner
}

// FormatJSON returns the indented status document for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: Build(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the compact status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := Build(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
