package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/boardloop/internal/logic"
)

var testTime = time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC)

func TestTopics(t *testing.T) {
	assert.Equal(t, "board/loop/events", TopicEvents)
	assert.Equal(t, "board/loop/system", TopicSystem)
}

func TestFormatPayloadPattern(t *testing.T) {
	event := logic.Event{
		AtMs:      1500,
		Type:      logic.EventPattern,
		Pattern:   0xFE,
		Direction: logic.DirectionCW,
		Count:     3,
	}

	data, err := FormatPayload(event, testTime)
	require.NoError(t, err)
	assert.JSONEq(t, `{"loop":{
		"timestamp":"2026-02-02T22:18:12Z",
		"at_ms":1500,
		"event":"PATTERN",
		"pattern":{"value":254,"bits":"11111110","direction":"CW","cycles":3}
	}}`, string(data))
}

func TestFormatPayloadPress(t *testing.T) {
	data, err := FormatPayload(logic.Event{AtMs: 60, Type: logic.EventPress, Count: 7}, testTime)
	require.NoError(t, err)

	var parsed Payload
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "PRESS", parsed.Loop.Event)
	require.NotNil(t, parsed.Loop.Press)
	assert.Equal(t, uint32(7), parsed.Loop.Press.Count)
	assert.Nil(t, parsed.Loop.Pattern)
	assert.Nil(t, parsed.Loop.Motion)
}

func TestFormatPayloadMotion(t *testing.T) {
	event := logic.Event{
		AtMs:    200,
		Type:    logic.EventMotion,
		Sample:  logic.MotionSample{X: 512, Y: 600, Z: 800},
		Verdict: logic.Verdict{Motion: true, Orientation: logic.FaceUp},
	}

	data, err := FormatPayload(event, testTime)
	require.NoError(t, err)
	assert.JSONEq(t, `{"loop":{
		"timestamp":"2026-02-02T22:18:12Z",
		"at_ms":200,
		"event":"MOTION",
		"motion":{"x":512,"y":600,"z":800,"motion":true,"orientation":"FACE UP"}
	}}`, string(data))
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	data, err := FormatPayload(logic.Event{Type: logic.EventPress}, time.Date(2026, 1, 1, 5, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"timestamp":"2026-01-01T00:00:00Z"`)
}

func TestFormatSystemPayload(t *testing.T) {
	data, err := FormatSystemPayload(SystemEvent{Timestamp: testTime, Event: SystemShutdown, Reason: "SIGTERM"})
	require.NoError(t, err)
	assert.Equal(t, `{"system":{"timestamp":"2026-02-02T22:18:12Z","event":"SHUTDOWN","reason":"SIGTERM"}}`, string(data))
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	data, err := FormatSystemPayload(SystemEvent{Timestamp: testTime, Event: SystemOffline})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "reason")
	assert.Contains(t, string(data), `"event":"OFFLINE"`)
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)
	data, err := FormatSystemPayload(SystemEvent{Event: SystemHeartbeat, RawPayload: raw})
	require.NoError(t, err)
	assert.Equal(t, raw, data)
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()
	require.NoError(t, f.Publish(logic.Event{Type: logic.EventPress, Count: 1}))
	require.NoError(t, f.Publish(logic.Event{Type: logic.EventPattern, Pattern: 1}))
	require.NoError(t, f.PublishSystem(SystemEvent{Event: SystemStartup, Retained: true}))

	assert.Len(t, f.Events, 2)
	assert.Len(t, f.Payloads, 2)
	assert.Equal(t, 1, f.EventCount(logic.EventPress))
	assert.Equal(t, []string{SystemStartup}, f.SystemNames())
	assert.True(t, f.SystemEvents[0].Retained)
	assert.True(t, f.IsConnected())
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	assert.Error(t, f.Publish(logic.Event{Type: logic.EventPress}))
	assert.Error(t, f.PublishSystem(SystemEvent{Event: SystemHeartbeat}))
	assert.Empty(t, f.Events)
	assert.Empty(t, f.SystemEvents)
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	_ = f.Publish(logic.Event{Type: logic.EventPress})
	_ = f.PublishSystem(SystemEvent{Event: SystemStartup})
	_ = f.Close()
	f.PublishError = errors.New("x")

	f.Reset()
	assert.Empty(t, f.Events)
	assert.Empty(t, f.SystemEvents)
	assert.False(t, f.Closed)
	assert.NoError(t, f.Publish(logic.Event{Type: logic.EventPress}))
}
