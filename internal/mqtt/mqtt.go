// Package mqtt publishes loop events and lifecycle events to a broker, with
// a fake for tests.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/boardloop/internal/logic"
)

// TopicEvents is the MQTT topic for demo events (QoS 0).
const TopicEvents = "board/loop/events"

// TopicSystem is the MQTT topic for lifecycle events (QoS 1).
const TopicSystem = "board/loop/system"

// System event names.
const (
	SystemStartup     = "STARTUP"
	SystemShutdown    = "SHUTDOWN"
	SystemHeartbeat   = "HEARTBEAT"
	SystemReconnected = "RECONNECTED"
	SystemOffline     = "OFFLINE"
)

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a demo event. A failed publish must not stop the loop.
	Publish(event logic.Event) error

	// PublishSystem sends a lifecycle event.
	PublishSystem(event SystemEvent) error

	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle event (startup, shutdown, heartbeat...).
type SystemEvent struct {
	Timestamp time.Time
	Event     string
	Reason    string // shutdown signal, empty otherwise
	// RawPayload, when set, is sent as is (full status snapshots).
	RawPayload []byte
	Retained   bool
}

// Payload is the JSON envelope for demo events.
type Payload struct {
	Loop LoopPayload `json:"loop"`
}

// LoopPayload carries one demo event. Exactly one of Pattern, Press or
// Motion is set, matching Event.
type LoopPayload struct {
	Timestamp string          `json:"timestamp"`
	AtMs      uint64          `json:"at_ms"`
	Event     string          `json:"event"`
	Pattern   *PatternPayload `json:"pattern,omitempty"`
	Press     *PressPayload   `json:"press,omitempty"`
	Motion    *MotionPayload  `json:"motion,omitempty"`
}

type PatternPayload struct {
	Value     uint8  `json:"value"`
	Bits      string `json:"bits"`
	Direction string `json:"direction,omitempty"`
	Cycles    uint32 `json:"cycles"`
}

type PressPayload struct {
	Count uint32 `json:"count"`
}

type MotionPayload struct {
	X           uint16 `json:"x"`
	Y           uint16 `json:"y"`
	Z           uint16 `json:"z"`
	Motion      bool   `json:"motion"`
	Orientation string `json:"orientation"`
}

// FormatPayload creates the JSON payload for a demo event published at ts.
func FormatPayload(event logic.Event, ts time.Time) ([]byte, error) {
	inner := LoopPayload{
		Timestamp: ts.UTC().Format(time.RFC3339),
		AtMs:      event.AtMs,
		Event:     string(event.Type),
	}

	switch event.Type {
	case logic.EventPattern:
		inner.Pattern = &PatternPayload{
			Value:     event.Pattern,
			Bits:      logic.Binary(event.Pattern),
			Direction: string(event.Direction),
			Cycles:    event.Count,
		}
	case logic.EventPress:
		inner.Press = &PressPayload{Count: event.Count}
	case logic.EventMotion:
		inner.Motion = &MotionPayload{
			X:           event.Sample.X,
			Y:           event.Sample.Y,
			Z:           event.Sample.Z,
			Motion:      event.Verdict.Motion,
			Orientation: string(event.Verdict.Orientation),
		}
	}

	return json.Marshal(Payload{Loop: inner})
}

// SystemPayload is the envelope for simple lifecycle events (last will,
// reconnect) that carry no status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// A set RawPayload is returned unchanged.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	return json.Marshal(SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	})
}
