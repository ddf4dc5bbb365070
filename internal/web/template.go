package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/pulse-relay/internal/status"
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
	"deviceOrNone": func(s string) string {
		if s == "" {
			return "none"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Pulse Relay</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.bpm { font-size: 2em; font-weight: bold; }
.streaming { color: green; font-weight: bold; }
.idle, .discovering, .connecting, .subscribing { color: orange; }
.shutting_down, .terminated { color: red; }
.connected { color: green; }
.disconnected { color: #888; }
</style>
</head>
<body>
<h1>Pulse Relay</h1>

<h2>Heart Rate</h2>
<table>
<tr><th>Last Reading</th><td class="bpm">{{if .LastBPM}}{{.LastBPM}}{{else}}&mdash;{{end}}</td></tr>
<tr><th>Last Sample</th><td>{{if .LastSampleAt.IsZero}}never{{else}}{{.LastSampleAt.UTC.Format "2006-01-02T15:04:05Z"}}{{end}}</td></tr>
<tr><th>Samples</th><td>{{.SampleCount}}</td></tr>
</table>

<h2>State</h2>
<table>
<tr><th>Coordinator</th><td class="{{.State}}">{{.State}}</td></tr>
<tr><th>Device</th><td>{{deviceOrNone .Device}}</td></tr>
{{if .Config.Broker}}<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Chatbox</th><td>{{.Config.OSCHost}}:{{.Config.OSCPort}}</td></tr>
<tr><th>Rate Limit</th><td>{{.Config.RateLimitMs}}ms</td></tr>
<tr><th>Stale After</th><td>{{.Config.StaleSec}}s</td></tr>
<tr><th>Database</th><td>{{.Config.DBPath}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> &middot; <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
