package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nmapfusion/nmapfusion/internal/analyze"
	"github.com/nmapfusion/nmapfusion/internal/enrich"
	"github.com/nmapfusion/nmapfusion/internal/fusion"
)

func testResult() analyze.Result {
	host := enrich.Host{
		UnifiedHost: fusion.UnifiedHost{
			IP:       "192.168.1.10",
			Hostname: "web1.corp",
			OS:       "Linux 5.4",
			Subnet:   "192.168.1.0/24",
			Ports: []fusion.PortView{
				{Port: 80, Protocol: "tcp", State: "open", Service: "http", Version: "Apache httpd 2.4.49"},
			},
			CVEs: []fusion.CVERef{{ID: "CVE-2021-41773", Script: "vulners", Port: 80}},
		},
		RiskLevel: enrich.LevelCritical,
		RiskScore: 12.0,
		PortRisks: map[fusion.PortKey]enrich.Risk{
			{Port: 80, Protocol: "tcp"}: {Level: enrich.LevelCritical, Score: 9.5},
		},
		PortFunctions: map[fusion.PortKey]string{{Port: 80, Protocol: "tcp"}: "web"},
	}

	return analyze.Result{
		Hosts: []enrich.Host{host},
		Table1: []analyze.Table1Row{{
			IP: "192.168.1.10", Hostname: "web1.corp", TotalPorts: 1, TCPPorts: 1,
			TotalServices: 1, OS: "Linux 5.4", RiskLevel: enrich.LevelCritical,
		}},
		Table2: []analyze.HostDetail{{
			IP: "192.168.1.10", Hostname: "web1.corp", OS: "Linux 5.4",
			RiskLevel: enrich.LevelCritical, RiskScore: 12.0,
			Ports: []analyze.PortDetail{{
				Port: 80, Protocol: "tcp", Service: "http", Version: "Apache httpd 2.4.49",
				Risk:             enrich.Risk{Level: enrich.LevelCritical, Score: 9.5},
				BusinessFunction: "web",
			}},
			CVEs: host.CVEs,
		}},
		Table3: []analyze.PortFrequency{{
			Port: 80, Protocol: "tcp", Count: 1, IPs: []string{"192.168.1.10"}, Service: "http",
		}},
		Table4: []analyze.Exposure{{
			Port: 80, Protocol: "tcp", HostCount: 1, Service: "http",
			Hosts: []analyze.ExposureEntry{{
				IP: "192.168.1.10", Hostname: "web1.corp", OS: "Linux 5.4",
				Service: "http", Version: "Apache httpd 2.4.49", BusinessFunction: "web",
			}},
		}},
		Subnets: []analyze.SubnetSummary{{
			Subnet: "192.168.1.0/24", HostCount: 1, IPRange: "192.168.1.10 - 192.168.1.10",
		}},
	}
}

func testStats() fusion.Stats {
	return fusion.Stats{
		FilesProcessed:        3,
		UniqueIPs:             1,
		TotalPortsSeen:        3,
		PortsAfterFusion:      1,
		DuplicatePortsRemoved: 2,
		ScriptsMerged:         1,
	}
}

func TestTerminalRenderAllTables(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminalRenderer(&buf, false)

	r.Render(testResult(), testStats(), []string{"nmap -sV 192.168.1.0/24"}, AllTables)
	out := buf.String()

	assert.Contains(t, out, "SCAN CONFIGURATION")
	assert.Contains(t, out, "nmap -sV 192.168.1.0/24")
	assert.Contains(t, out, "TABLE 1: HOST SUMMARY OVERVIEW")
	assert.Contains(t, out, "TABLE 2: HOST DETAILED ANALYSIS")
	assert.Contains(t, out, "TABLE 3: PORT FREQUENCY DISTRIBUTION")
	assert.Contains(t, out, "TABLE 4: SERVICE EXPOSURE MATRIX")
	assert.Contains(t, out, "EXECUTIVE SUMMARY")
	assert.Contains(t, out, "192.168.1.10")
	assert.Contains(t, out, "CRITICAL")
	assert.Contains(t, out, "Apache httpd 2.4.49")

	// Stats are verbose-only.
	assert.NotContains(t, out, "FUSION ENGINE STATISTICS")
}

func TestTerminalRenderVerbose(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminalRenderer(&buf, true)

	r.Render(testResult(), testStats(), nil, AllTables)
	out := buf.String()

	assert.Contains(t, out, "FUSION ENGINE STATISTICS")
	assert.Contains(t, out, "Duplicates removed  : 2")
	assert.Contains(t, out, "CVE-2021-41773")
	assert.Contains(t, out, "no nmap commands found in scan files")
}

func TestTerminalRenderSelectedTablesOnly(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerminalRenderer(&buf, false)

	r.Render(testResult(), testStats(), nil, []string{TableFrequency})
	out := buf.String()

	assert.Contains(t, out, "TABLE 3: PORT FREQUENCY DISTRIBUTION")
	assert.NotContains(t, out, "TABLE 1")
	assert.NotContains(t, out, "TABLE 2")
	assert.NotContains(t, out, "TABLE 4")
}

func TestTerminalFrequencyLimits(t *testing.T) {
	var ips []string
	for i := 1; i <= 6; i++ {
		ips = append(ips, fmt.Sprintf("1.1.1.%d", i))
	}
	result := analyze.Result{
		Table3: []analyze.PortFrequency{{Port: 22, Protocol: "tcp", Count: 6, IPs: ips, Service: "ssh"}},
	}

	var buf bytes.Buffer
	NewTerminalRenderer(&buf, false).Render(result, fusion.Stats{}, nil, []string{TableFrequency})
	out := buf.String()

	assert.Contains(t, out, "+1 more")
	assert.NotContains(t, out, "1.1.1.6")
	assert.Contains(t, out, "Most Frequent: 22/tcp (6 hosts)")
}

func TestTerminalEmptyTables(t *testing.T) {
	var buf bytes.Buffer
	NewTerminalRenderer(&buf, false).Render(analyze.Result{}, fusion.Stats{}, nil, AllTables)
	out := buf.String()

	assert.Contains(t, out, "no host data available")
	assert.Contains(t, out, "no detailed host data available")
	assert.Contains(t, out, "no port frequency data available")
	assert.Contains(t, out, "no service exposure data available")
	assert.Contains(t, out, "Total Hosts Analyzed : 0")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "exactly-te", truncate("exactly-ten-chars", 10)[:10])
	assert.True(t, strings.HasSuffix(truncate("exactly-ten-chars", 10), "..."))
}
