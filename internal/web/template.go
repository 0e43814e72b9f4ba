package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/boardloop/internal/logic"
	"github.com/sweeney/boardloop/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"bits": logic.Binary,
	"leds": func(p uint8) []bool {
		out := make([]bool, 8)
		for i := range out {
			out[i] = p&(0x80>>uint(i)) != 0
		}
		return out
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Board Loop</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.led { display: inline-block; width: 14px; height: 14px; border-radius: 50%; margin-right: 4px; background: #ddd; }
.led.on { background: #e33; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; background: orange; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
img.display { image-rendering: pixelated; width: 256px; border: 1px solid #333; }
</style>
</head>
<body>
<h1>Board Loop: {{.Config.Demo}}<span id="live-dot" class="live-dot" title="connecting"></span></h1>

<h2>Outputs</h2>
<table>
<tr><th>LEDs</th><td id="leds">{{range leds .Loop.Pattern}}<span class="led{{if .}} on{{end}}"></span>{{end}}</td></tr>
<tr><th>Pattern</th><td id="pattern">0b{{bits .Loop.Pattern}} ({{.Loop.Pattern}})</td></tr>
<tr><th>Direction</th><td id="direction">{{if .Loop.Direction}}{{.Loop.Direction}}{{else}}CW{{end}}</td></tr>
<tr><th>Cycles</th><td id="cycles">{{.Loop.Cycles}}</td></tr>
</table>

<h2>Inputs</h2>
<table>
<tr><th>Button</th><td id="button">{{if .Loop.Button}}pressed{{else}}released{{end}}</td></tr>
<tr><th>Presses</th><td id="presses">{{.Loop.Presses}}</td></tr>
{{if .Loop.HasMotion}}<tr><th>Accel</th><td id="accel">X:{{.Loop.Sample.X}} Y:{{.Loop.Sample.Y}} Z:{{.Loop.Sample.Z}}</td></tr>
<tr><th>Motion</th><td id="motion">{{if .Loop.Verdict.Motion}}YES{{else}}NO{{end}}</td></tr>
<tr><th>Orientation</th><td id="orientation">{{.Loop.Verdict.Orientation}}</td></tr>{{end}}
</table>
{{if .HasDisplay}}
<h2>Display</h2>
<p><img class="display" id="display" src="/display.png" alt="display"></p>
{{end}}
<h2>Tasks</h2>
<table id="tasks">
<tr><th>Name</th><th>Interval</th><th>Fires</th></tr>
{{range .Tasks}}<tr><td>{{.Name}}</td><td>{{.IntervalMs}}ms</td><td>{{.Fires}}</td></tr>
{{end}}</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Run</th><td>{{.RunID}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}{{if .Config.Broker}} ({{.Config.Broker}}){{end}}</td></tr>
<tr><th>Debounce</th><td>{{.Config.SettleMs}}ms</td></tr>
<tr><th>Motion threshold</th><td>{{.Config.Threshold}} ({{.Config.LowBand}}..{{.Config.HighBand}})</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  var img = document.getElementById("display");
  function text(id, v) { var el = document.getElementById(id); if (el) el.textContent = v; }

  function render(st) {
    var leds = "";
    for (var i = 0; i < 8; i++) {
      var on = (st.pattern.value & (0x80 >> i)) !== 0;
      leds += '<span class="led' + (on ? ' on' : '') + '"></span>';
    }
    document.getElementById("leds").innerHTML = leds;
    text("pattern", "0b" + st.pattern.bits + " (" + st.pattern.value + ")");
    text("direction", st.pattern.direction);
    text("cycles", st.pattern.cycles);
    text("button", st.button.pressed ? "pressed" : "released");
    text("presses", st.button.presses);
    if (st.motion) {
      text("accel", "X:" + st.motion.x + " Y:" + st.motion.y + " Z:" + st.motion.z);
      text("motion", st.motion.motion ? "YES" : "NO");
      text("orientation", st.motion.orientation);
    }
    if (img) img.src = "/display.png?t=" + st.loop_ms;
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss:" : "ws:";
    var ws = new WebSocket(proto + "//" + location.host + "/ws");
    ws.onopen = function() { dot.className = "live-dot ok"; dot.title = "live"; };
    ws.onclose = function() {
      dot.className = "live-dot err"; dot.title = "offline";
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try { render(JSON.parse(ev.data).status); } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot, hasDisplay bool) error {
	data := struct {
		status.Snapshot
		Uptime     time.Duration
		HasDisplay bool
	}{
		Snapshot:   snap,
		Uptime:     snap.Uptime(),
		HasDisplay: hasDisplay,
	}
	return indexTmpl.Execute(w, data)
}
