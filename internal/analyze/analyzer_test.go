package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmapfusion/nmapfusion/internal/enrich"
	"github.com/nmapfusion/nmapfusion/internal/fusion"
)

func testHosts() []enrich.Host {
	web1 := enrich.Host{
		UnifiedHost: fusion.UnifiedHost{
			IP:       "192.168.1.10",
			Hostname: "web1.corp",
			OS:       "Linux 5.4",
			Subnet:   "192.168.1.0/24",
			Ports: []fusion.PortView{
				{Port: 80, Protocol: "tcp", State: "open", Service: "http", Version: "Apache httpd 2.4.49"},
				{Port: 443, Protocol: "tcp", State: "open", Service: "https", Version: fusion.UnknownValue},
			},
		},
		RiskLevel: enrich.LevelHigh,
		RiskScore: 7.5,
		PortRisks: map[fusion.PortKey]enrich.Risk{
			{Port: 80, Protocol: "tcp"}:  {Level: enrich.LevelHigh, Score: 7.5},
			{Port: 443, Protocol: "tcp"}: {Level: enrich.LevelLow},
		},
		PortFunctions: map[fusion.PortKey]string{
			{Port: 80, Protocol: "tcp"}:  "web",
			{Port: 443, Protocol: "tcp"}: "web",
		},
	}

	dns := enrich.Host{
		UnifiedHost: fusion.UnifiedHost{
			IP:     "192.168.1.2",
			OS:     fusion.UnknownValue,
			Subnet: "192.168.1.0/24",
			Ports: []fusion.PortView{
				{Port: 80, Protocol: "tcp", State: "open", Service: "http", Version: fusion.UnknownValue},
				{Port: 53, Protocol: "udp", State: "open", Service: "domain", Version: fusion.UnknownValue},
			},
		},
		RiskLevel:     enrich.LevelLow,
		PortRisks:     map[fusion.PortKey]enrich.Risk{},
		PortFunctions: map[fusion.PortKey]string{},
	}

	bastion := enrich.Host{
		UnifiedHost: fusion.UnifiedHost{
			IP:     "10.0.0.5",
			OS:     "OpenBSD 7.3",
			Subnet: "10.0.0.0/24",
			Ports: []fusion.PortView{
				{Port: 22, Protocol: "tcp", State: "open", Service: "ssh", Version: "OpenSSH 9.3"},
			},
		},
		RiskLevel:     enrich.LevelLow,
		PortRisks:     map[fusion.PortKey]enrich.Risk{},
		PortFunctions: map[fusion.PortKey]string{{Port: 22, Protocol: "tcp"}: "remote_access"},
	}

	return []enrich.Host{web1, dns, bastion}
}

func TestAnalyzeHostOrdering(t *testing.T) {
	result := New().Analyze(testHosts())

	require.Len(t, result.Hosts, 3)
	assert.Equal(t, "10.0.0.5", result.Hosts[0].IP)
	assert.Equal(t, "192.168.1.2", result.Hosts[1].IP)
	assert.Equal(t, "192.168.1.10", result.Hosts[2].IP)
}

func TestAnalyzeSummaryTable(t *testing.T) {
	result := New().Analyze(testHosts())

	require.Len(t, result.Table1, 3)

	row := result.Table1[1]
	assert.Equal(t, "192.168.1.2", row.IP)
	assert.Equal(t, 2, row.TotalPorts)
	assert.Equal(t, 1, row.TCPPorts)
	assert.Equal(t, 1, row.UDPPorts)
	assert.Equal(t, 2, row.TotalServices)
	assert.Equal(t, enrich.LevelLow, row.RiskLevel)

	assert.Equal(t, "web1.corp", result.Table1[2].Hostname)
	assert.Equal(t, enrich.LevelHigh, result.Table1[2].RiskLevel)
}

func TestAnalyzeHostDetails(t *testing.T) {
	result := New().Analyze(testHosts())

	require.Len(t, result.Table2, 3)

	detail := result.Table2[2]
	assert.Equal(t, "192.168.1.10", detail.IP)
	require.Len(t, detail.Ports, 2)
	assert.Equal(t, 80, detail.Ports[0].Port)
	assert.Equal(t, "web", detail.Ports[0].BusinessFunction)
	assert.Equal(t, enrich.LevelHigh, detail.Ports[0].Risk.Level)
}

func TestAnalyzePortFrequency(t *testing.T) {
	result := New().Analyze(testHosts())

	require.Len(t, result.Table3, 4)

	// Ascending by port number.
	assert.Equal(t, 22, result.Table3[0].Port)
	assert.Equal(t, 53, result.Table3[1].Port)
	assert.Equal(t, 80, result.Table3[2].Port)
	assert.Equal(t, 443, result.Table3[3].Port)

	shared := result.Table3[2]
	assert.Equal(t, 2, shared.Count)
	assert.Equal(t, []string{"192.168.1.2", "192.168.1.10"}, shared.IPs)
	assert.Equal(t, "http", shared.Service)
}

func TestAnalyzeExposureMatrix(t *testing.T) {
	result := New().Analyze(testHosts())

	require.Len(t, result.Table4, 4)

	shared := result.Table4[2]
	assert.Equal(t, 80, shared.Port)
	assert.Equal(t, 2, shared.HostCount)
	require.Len(t, shared.Hosts, 2)
	assert.Equal(t, "192.168.1.2", shared.Hosts[0].IP)
	assert.Equal(t, fusion.UnknownValue, shared.Hosts[0].Version)
	assert.Equal(t, "Apache httpd 2.4.49", shared.Hosts[1].Version)
	assert.Equal(t, "web", shared.Hosts[1].BusinessFunction)
}

func TestAnalyzeSubnetSummary(t *testing.T) {
	result := New().Analyze(testHosts())

	require.Len(t, result.Subnets, 2)
	assert.Equal(t, SubnetSummary{
		Subnet:    "10.0.0.0/24",
		HostCount: 1,
		IPRange:   "10.0.0.5 - 10.0.0.5",
	}, result.Subnets[0])
	assert.Equal(t, SubnetSummary{
		Subnet:    "192.168.1.0/24",
		HostCount: 2,
		IPRange:   "192.168.1.2 - 192.168.1.10",
	}, result.Subnets[1])
}

func TestPortScriptSummary(t *testing.T) {
	host := enrich.Host{
		UnifiedHost: fusion.UnifiedHost{
			IP: "10.0.0.1",
			Scripts: []fusion.ScriptFinding{
				{ID: "firewall-bypass", Output: "detected open port 80 behind filter"},
				{ID: "smb-os-discovery", Output: "OS: Windows Server 2019"},
			},
		},
	}
	port := fusion.PortView{
		Port: 80, Protocol: "tcp",
		Scripts: []fusion.ScriptFinding{
			{ID: "http-title", Output: "Welcome"},
		},
	}

	summary := portScriptSummary(port, host)

	require.Len(t, summary, 2)
	assert.Equal(t, "http-title: Welcome", summary[0])
	assert.Equal(t, "firewall-bypass: detected open port 80 behind filter", summary[1])
}

func TestCommonServiceTieKeepsFirst(t *testing.T) {
	key := fusion.PortKey{Port: 8080, Protocol: "tcp"}
	group := []enrich.Host{
		{UnifiedHost: fusion.UnifiedHost{IP: "10.0.0.1", Ports: []fusion.PortView{{Port: 8080, Protocol: "tcp", Service: "http-proxy"}}}},
		{UnifiedHost: fusion.UnifiedHost{IP: "10.0.0.2", Ports: []fusion.PortView{{Port: 8080, Protocol: "tcp", Service: "http"}}}},
	}

	assert.Equal(t, "http-proxy", commonService(key, group))
}
