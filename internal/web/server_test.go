package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sweeney/boardloop/internal/display"
	"github.com/sweeney/boardloop/internal/logic"
	"github.com/sweeney/boardloop/internal/sched"
	"github.com/sweeney/boardloop/internal/status"
)

func newTracker() *status.Tracker {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return status.NewTracker(start, "run-1", status.Config{
		Demo:        "rotation",
		SettleMs:    50,
		Threshold:   50,
		LowBand:     300,
		HighBand:    700,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":8080",
	})
}

func newTestServer(t *testing.T, disp Display) (*Server, *httptest.Server, *status.Tracker) {
	t.Helper()
	tr := newTracker()
	srv := New(tr, Options{Addr: ":0", PushInterval: 20 * time.Millisecond, Display: disp, Log: zaptest.NewLogger(t)})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		ts.Close()
	})
	return srv, ts, tr
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestJSONEndpoint(t *testing.T) {
	_, ts, tr := newTestServer(t, nil)
	tr.Update(status.Loop{NowMs: 1000, Pattern: 0xFE, Direction: logic.DirectionCW, Cycles: 2},
		[]sched.TaskInfo{{Name: "rotate", IntervalMs: 500, LastFireMs: 1000, Fires: 2}})
	tr.SetMQTTConnected(true)

	resp, body := get(t, ts.URL+"/index.json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var sj status.StatusJSON
	require.NoError(t, json.Unmarshal(body, &sj))
	assert.Equal(t, "rotation", sj.Status.Demo)
	assert.Equal(t, "11111110", sj.Status.Pattern.Bits)
	assert.Equal(t, uint32(2), sj.Status.Pattern.Cycles)
	assert.True(t, sj.Status.MQTT.Connected)
	require.Len(t, sj.Status.Tasks, 1)
	assert.Equal(t, "rotate", sj.Status.Tasks[0].Name)
}

func TestHTMLEndpoints(t *testing.T) {
	_, ts, tr := newTestServer(t, nil)
	tr.Update(status.Loop{Pattern: 0x7F, Direction: logic.DirectionCCW, Presses: 4}, nil)

	for _, path := range []string{"/", "/index.html"} {
		t.Run(path, func(t *testing.T) {
			resp, body := get(t, ts.URL+path)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
			html := string(body)
			assert.Contains(t, html, "Board Loop: rotation")
			assert.Contains(t, html, "0b01111111 (127)")
			assert.Contains(t, html, "CCW")
			assert.Equal(t, 7, strings.Count(html, `class="led on"`))
			assert.NotContains(t, html, `src="/display.png"`)
		})
	}
}

func TestHTMLShowsMotionOnceSampled(t *testing.T) {
	_, ts, tr := newTestServer(t, nil)
	_, body := get(t, ts.URL+"/")
	assert.NotContains(t, string(body), "Orientation")

	tr.Update(status.Loop{
		HasMotion: true,
		Sample:    logic.MotionSample{X: 100, Y: 512, Z: 512},
		Verdict:   logic.Verdict{Motion: true, Orientation: logic.TiltedLeft},
	}, nil)
	_, body = get(t, ts.URL+"/")
	assert.Contains(t, string(body), "TILTED LEFT")
	assert.Contains(t, string(body), "X:100 Y:512 Z:512")
}

func TestNotFoundForUnknownPath(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	resp, _ := get(t, ts.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDisplayWithoutFramebuffer(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	resp, _ := get(t, ts.URL+"/display.png")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDisplayPNG(t *testing.T) {
	fb := display.NewFramebuffer(128, 64)
	require.NoError(t, fb.WriteText(0, 0, "Hi"))
	require.NoError(t, fb.Flush())

	_, ts, _ := newTestServer(t, fb)
	resp, body := get(t, ts.URL+"/display.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 64, img.Bounds().Dy())

	_, page := get(t, ts.URL+"/")
	assert.Contains(t, string(page), `src="/display.png"`)
}

type brokenDisplay struct{}

func (brokenDisplay) WritePNG(io.Writer) error { return errors.New("no frame") }

func TestDisplayError(t *testing.T) {
	_, ts, _ := newTestServer(t, brokenDisplay{})
	resp, _ := get(t, ts.URL+"/display.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestWebsocketStreamsStatus(t *testing.T) {
	_, ts, tr := newTestServer(t, nil)
	tr.Update(status.Loop{Pattern: 0x01, Cycles: 1}, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	defer conn.Close()

	var first status.StatusJSON
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, uint32(1), first.Status.Pattern.Cycles)

	tr.Update(status.Loop{Pattern: 0x02, Cycles: 2}, nil)

	require.Eventually(t, func() bool {
		var next status.StatusJSON
		if err := conn.ReadJSON(&next); err != nil {
			return false
		}
		return next.Status.Pattern.Cycles == 2
	}, 2*time.Second, time.Millisecond)
}

func TestShutdownClosesWebsocket(t *testing.T) {
	srv, ts, _ := newTestServer(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts), nil)
	require.NoError(t, err)
	defer conn.Close()

	var first status.StatusJSON
	require.NoError(t, conn.ReadJSON(&first))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestWebsocketRefusedAfterShutdown(t *testing.T) {
	srv := New(newTracker(), Options{Log: zaptest.NewLogger(t)})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	require.NoError(t, srv.Shutdown(ctx))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRenderHTMLIncludesRunID(t *testing.T) {
	tr := newTracker()
	var buf bytes.Buffer
	require.NoError(t, renderHTML(&buf, tr.Snapshot(), false))
	assert.Contains(t, buf.String(), "run-1")
}
