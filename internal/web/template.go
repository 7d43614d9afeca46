package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/sesame-gateway/internal/logic"
	"github.com/sweeney/sesame-gateway/internal/status"
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
	"seconds": func(f float64) string {
		return fmt.Sprintf("%.2fs", f)
	},
	"relay": status.RelayState,
	"moving": func(p logic.Phase) bool {
		return p == logic.PhaseMoving
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Garage Door</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.moving { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Garage Door{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Door</h2>
<table>
<tr><th>Phase</th><td class="{{if moving .Door.Phase}}moving{{else}}off{{end}}">{{.Door.Phase}}</td></tr>
<tr><th>Relay</th><td class="{{if .Door.RelayEnergized}}on{{else}}off{{end}}">{{relay .Door.RelayEnergized}}</td></tr>
<tr><th>Opened sensor</th><td id="r-3200-0-5500" class="{{if .Door.DoorOpened}}on{{else}}off{{end}}">{{.Door.DoorOpened}}</td></tr>
<tr><th>Closed sensor</th><td id="r-3200-1-5500" class="{{if .Door.DoorClosed}}on{{else}}off{{end}}">{{.Door.DoorClosed}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Counters</h2>
<table>
<tr><th>Opens</th><td id="r-13201-0-5501">{{.Door.Counters.Open}}</td></tr>
<tr><th>Last open</th><td id="r-13201-0-5521">{{seconds .Door.Counters.LastOpen}}</td></tr>
<tr><th>Closes</th><td id="r-13201-1-5501">{{.Door.Counters.Close}}</td></tr>
<tr><th>Last close</th><td id="r-13201-1-5521">{{seconds .Door.Counters.LastClose}}</td></tr>
<tr><th>Triggers</th><td id="r-13201-2-5501">{{.Door.Counters.Trigger}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Prefix</th><td>{{.Config.Prefix}}</td></tr>
{{if .Config.RedisAddr}}<tr><th>Redis</th><td>{{.Config.RedisAddr}}</td></tr>{{end}}
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sensors</th><td>{{.Config.SensorMode}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Relay idle</th><td>{{.Config.IdleTimeoutMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Config.WSBroker}}
<script src="https://unpkg.com/mqtt@5/dist/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var prefix = "{{.Config.Prefix}}";
  var dot = document.getElementById("live-dot");

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(prefix + "/13201/+/+");
    client.subscribe(prefix + "/3200/+/5500");
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    var parts = t.substring(prefix.length + 1).split("/");
    if (parts.length !== 3) return;
    var el = document.getElementById("r-" + parts.join("-"));
    if (!el) return;
    var v = payload.toString();
    if (parts[2] === "5521" && v !== "") v = parseFloat(v).toFixed(2) + "s";
    if (parts[2] === "5500") el.className = v === "true" ? "on" : "off";
    el.textContent = v;
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	indexTmpl.Execute(w, snap)
}
