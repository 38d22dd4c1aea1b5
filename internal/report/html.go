package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nmapfusion/nmapfusion/internal/analyze"
	"github.com/nmapfusion/nmapfusion/internal/enrich"
	"github.com/nmapfusion/nmapfusion/internal/errors"
	"github.com/nmapfusion/nmapfusion/internal/fusion"
	"github.com/nmapfusion/nmapfusion/internal/logging"
)

// HTMLRenderer writes a standalone dashboard file into an output directory.
type HTMLRenderer struct {
	outputDir string
	runID     string
	logger    *logging.Logger
}

// NewHTMLRenderer creates a renderer that writes into outputDir. Each call to
// Render produces a uniquely named file.
func NewHTMLRenderer(outputDir string) *HTMLRenderer {
	return &HTMLRenderer{
		outputDir: outputDir,
		runID:     uuid.NewString()[:8],
		logger:    logging.Default().WithComponent("report.html"),
	}
}

type htmlStats struct {
	TotalHosts   int
	TotalPorts   int
	TotalCVEs    int
	TotalCiphers int
	RiskCounts   map[string]int
}

type htmlData struct {
	GeneratedAt string
	Commands    []string
	Stats       htmlStats
	Fusion      fusion.Stats
	Tables      map[string]bool
	Table1      []analyze.Table1Row
	Table2      []analyze.HostDetail
	Table3      []analyze.PortFrequency
	Table4      []analyze.Exposure
	Subnets     []analyze.SubnetSummary
}

// Render writes the dashboard and returns the generated file path. Tables not
// listed in selected are omitted from the page.
func (r *HTMLRenderer) Render(result analyze.Result, stats fusion.Stats, commands []string, selected []string) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o750); err != nil {
		return "", errors.Wrap(errors.CodeDirectoryCreate, "failed to create output directory", err)
	}

	data := htmlData{
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
		Commands:    commands,
		Stats:       summarize(result.Hosts),
		Fusion:      stats,
		Tables:      make(map[string]bool, len(selected)),
		Table1:      result.Table1,
		Table2:      result.Table2,
		Table3:      result.Table3,
		Table4:      result.Table4,
		Subnets:     result.Subnets,
	}
	for _, table := range selected {
		data.Tables[table] = true
	}

	filename := fmt.Sprintf("nmapfusion_report_%s_%s.html",
		time.Now().Format("20060102_150405"), r.runID)
	path := filepath.Join(r.outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", errors.NewReportError(path, err)
	}
	defer file.Close()

	if err := dashboardTemplate.Execute(file, data); err != nil {
		return "", errors.NewReportError(path, err)
	}

	r.logger.Info("HTML report written", "file", path)
	return path, nil
}

func summarize(hosts []enrich.Host) htmlStats {
	stats := htmlStats{RiskCounts: map[string]int{}}
	for _, host := range hosts {
		stats.TotalHosts++
		stats.TotalPorts += len(host.Ports)
		stats.TotalCVEs += len(host.CVEs)
		stats.TotalCiphers += len(host.WeakCiphers)
		stats.RiskCounts[host.RiskLevel]++
	}
	return stats
}

var dashboardTemplate = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"upper": strings.ToUpper,
	"join":  strings.Join,
	"dash": func(v string) string {
		if v == "" || v == fusion.UnknownValue {
			return "-"
		}
		return v
	},
}).Parse(dashboardHTML))

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>NmapFusion Report</title>
<style>
body { font-family: "Segoe UI", Arial, sans-serif; background: #10151c; color: #d7dde5; margin: 0; padding: 24px; }
h1 { color: #00bcd4; border-bottom: 2px solid #00bcd4; padding-bottom: 8px; }
h2 { color: #8fd3dd; margin-top: 36px; }
table { border-collapse: collapse; width: 100%; margin: 12px 0; }
th { background: #00bcd4; color: #10151c; text-align: left; padding: 6px 10px; }
td { border-bottom: 1px solid #27313d; padding: 6px 10px; }
tr:hover td { background: #1a222c; }
.cards { display: flex; gap: 16px; flex-wrap: wrap; }
.card { background: #1a222c; border: 1px solid #27313d; border-radius: 6px; padding: 16px 24px; }
.card .num { font-size: 28px; color: #00bcd4; }
.risk-critical { color: #ff5252; font-weight: bold; }
.risk-high { color: #ff8a65; }
.risk-medium { color: #ffd54f; }
.risk-low { color: #81c784; }
code { background: #1a222c; padding: 2px 6px; border-radius: 3px; }
.meta { color: #8899aa; font-size: 13px; }
</style>
</head>
<body>
<h1>NmapFusion Network Assessment</h1>
<p class="meta">Generated {{.GeneratedAt}}</p>

<h2>Scan Configuration</h2>
{{if .Commands}}
<ul>{{range .Commands}}<li><code>{{.}}</code></li>{{end}}</ul>
{{else}}<p class="meta">No nmap commands found in scan files.</p>{{end}}

<h2>Overview</h2>
<div class="cards">
<div class="card"><div class="num">{{.Stats.TotalHosts}}</div>Hosts</div>
<div class="card"><div class="num">{{.Stats.TotalPorts}}</div>Open Ports</div>
<div class="card"><div class="num">{{.Stats.TotalCVEs}}</div>CVEs</div>
<div class="card"><div class="num">{{.Stats.TotalCiphers}}</div>Weak Ciphers</div>
<div class="card"><div class="num">{{index .Stats.RiskCounts "critical"}}</div>Critical Hosts</div>
<div class="card"><div class="num">{{.Fusion.DuplicatePortsRemoved}}</div>Duplicates Removed</div>
</div>

{{if index .Tables "table1"}}
<h2>Table 1: Host Summary Overview</h2>
<table>
<tr><th>IP Address</th><th>Hostname</th><th>Ports</th><th>TCP</th><th>UDP</th><th>Services</th><th>OS</th><th>Risk</th></tr>
{{range .Table1}}
<tr><td>{{.IP}}</td><td>{{dash .Hostname}}</td><td>{{.TotalPorts}}</td><td>{{.TCPPorts}}</td><td>{{.UDPPorts}}</td><td>{{.TotalServices}}</td><td>{{dash .OS}}</td><td class="risk-{{.RiskLevel}}">{{upper .RiskLevel}}</td></tr>
{{end}}
</table>
{{end}}

{{if index .Tables "table2"}}
<h2>Table 2: Host Detailed Analysis</h2>
{{range .Table2}}
<h3>{{.IP}}{{if .Hostname}} ({{.Hostname}}){{end}} <span class="risk-{{.RiskLevel}}">{{upper .RiskLevel}}</span></h3>
<p class="meta">OS: {{dash .OS}} | Risk score: {{.RiskScore}}</p>
<table>
<tr><th>Port</th><th>Proto</th><th>Service</th><th>Version</th><th>Risk</th><th>Function</th><th>NSE Findings</th></tr>
{{range .Ports}}
<tr><td>{{.Port}}</td><td>{{.Protocol}}</td><td>{{.Service}}</td><td>{{dash .Version}}</td><td class="risk-{{.Risk.Level}}">{{upper .Risk.Level}}</td><td>{{.BusinessFunction}}</td><td>{{join .NSESummary "; "}}</td></tr>
{{end}}
</table>
{{if .CVEs}}<p>CVEs: {{range .CVEs}}<code>{{.ID}}</code> {{end}}</p>{{end}}
{{end}}
{{end}}

{{if index .Tables "table3"}}
<h2>Table 3: Port Frequency Distribution</h2>
<table>
<tr><th>Port</th><th>Protocol</th><th>Host Count</th><th>Service</th><th>Hosts</th></tr>
{{range .Table3}}
<tr><td>{{.Port}}</td><td>{{.Protocol}}</td><td>{{.Count}}</td><td>{{dash .Service}}</td><td>{{join .IPs ", "}}</td></tr>
{{end}}
</table>
{{end}}

{{if index .Tables "table4"}}
<h2>Table 4: Service Exposure Matrix</h2>
{{range .Table4}}
<h3>{{.Port}}/{{.Protocol}}: {{.HostCount}} hosts ({{dash .Service}})</h3>
<table>
<tr><th>IP Address</th><th>Hostname</th><th>OS</th><th>Service Version</th><th>Function</th></tr>
{{range .Hosts}}
<tr><td>{{.IP}}</td><td>{{dash .Hostname}}</td><td>{{dash .OS}}</td><td>{{dash .Version}}</td><td>{{.BusinessFunction}}</td></tr>
{{end}}
</table>
{{end}}
{{end}}

<h2>Subnets</h2>
<table>
<tr><th>Subnet</th><th>Host Count</th><th>IP Range</th></tr>
{{range .Subnets}}
<tr><td>{{.Subnet}}</td><td>{{.HostCount}}</td><td>{{.IPRange}}</td></tr>
{{end}}
</table>
</body>
</html>
`
