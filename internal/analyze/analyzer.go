// Package analyze turns enriched hosts into the table structures the report
// renderers consume: a host summary, per-host details, a port frequency
// distribution, and a service exposure matrix.
package analyze

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"

	"github.com/nmapfusion/nmapfusion/internal/enrich"
	"github.com/nmapfusion/nmapfusion/internal/fusion"
	"github.com/nmapfusion/nmapfusion/internal/logging"
)

// Table1Row is one host in the summary overview table.
type Table1Row struct {
	IP            string
	Hostname      string
	TotalPorts    int
	TCPPorts      int
	UDPPorts      int
	TotalServices int
	OS            string
	RiskLevel     string
}

// PortDetail is one port row inside a host's detailed view.
type PortDetail struct {
	Port             int
	Protocol         string
	Service          string
	Version          string
	NSESummary       []string
	BusinessFunction string
	Risk             enrich.Risk
}

// HostDetail is the per-host detailed analysis block.
type HostDetail struct {
	IP          string
	Hostname    string
	OS          string
	RiskLevel   string
	RiskScore   float64
	Ports       []PortDetail
	CVEs        []fusion.CVERef
	WeakCiphers []fusion.WeakCipher
}

// PortFrequency is one row of the port frequency distribution.
type PortFrequency struct {
	Port     int
	Protocol string
	Count    int
	IPs      []string
	Service  string
}

// ExposureEntry is one host appearing under a port in the exposure matrix.
type ExposureEntry struct {
	IP               string
	Hostname         string
	OS               string
	Service          string
	Version          string
	BusinessFunction string
}

// Exposure is one port of the service exposure matrix.
type Exposure struct {
	Port      int
	Protocol  string
	HostCount int
	Hosts     []ExposureEntry
	Service   string
}

// SubnetSummary describes one /24 or /64 group of hosts.
type SubnetSummary struct {
	Subnet    string
	HostCount int
	IPRange   string
}

// Result bundles every analysis product. Hosts are sorted by subnet then IP,
// and the port tables ascending by (port, protocol).
type Result struct {
	Hosts   []enrich.Host
	Table1  []Table1Row
	Table2  []HostDetail
	Table3  []PortFrequency
	Table4  []Exposure
	Subnets []SubnetSummary
}

// Analyzer builds analysis tables from enriched hosts.
type Analyzer struct {
	logger *logging.Logger
}

// New creates an analyzer.
func New() *Analyzer {
	return &Analyzer{logger: logging.Default().WithComponent("analyze")}
}

// Analyze sorts the hosts and builds all four tables plus the subnet summary.
func (a *Analyzer) Analyze(hosts []enrich.Host) Result {
	sorted := sortHosts(hosts)
	byPort := groupByPort(sorted)

	result := Result{
		Hosts:   sorted,
		Table1:  buildSummary(sorted),
		Table2:  buildHostDetails(sorted),
		Table3:  buildPortFrequency(byPort),
		Table4:  buildExposureMatrix(byPort),
		Subnets: buildSubnetSummary(sorted),
	}

	a.logger.Debug("analysis complete",
		"hosts", len(result.Hosts),
		"ports", len(result.Table3),
		"subnets", len(result.Subnets))
	return result
}

// sortHosts orders hosts by subnet lexically, then by IP within each subnet.
func sortHosts(hosts []enrich.Host) []enrich.Host {
	sorted := make([]enrich.Host, len(hosts))
	copy(sorted, hosts)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Subnet != sorted[j].Subnet {
			return sorted[i].Subnet < sorted[j].Subnet
		}
		return compareIPs(sorted[i].IP, sorted[j].IP) < 0
	})
	return sorted
}

// compareIPs orders addresses numerically, falling back to string order for
// values that do not parse.
func compareIPs(a, b string) int {
	addrA, errA := netip.ParseAddr(a)
	addrB, errB := netip.ParseAddr(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return addrA.Compare(addrB)
}

// groupByPort maps every (port, protocol) to the sorted hosts exposing it.
// Input hosts must already be in final order.
func groupByPort(hosts []enrich.Host) map[fusion.PortKey][]enrich.Host {
	byPort := make(map[fusion.PortKey][]enrich.Host)
	for _, host := range hosts {
		for _, port := range host.Ports {
			key := port.Key()
			byPort[key] = append(byPort[key], host)
		}
	}
	for key := range byPort {
		group := byPort[key]
		sort.SliceStable(group, func(i, j int) bool {
			return compareIPs(group[i].IP, group[j].IP) < 0
		})
	}
	return byPort
}

func buildSummary(hosts []enrich.Host) []Table1Row {
	rows := make([]Table1Row, 0, len(hosts))
	for _, host := range hosts {
		row := Table1Row{
			IP:        host.IP,
			Hostname:  host.Hostname,
			OS:        host.OS,
			RiskLevel: host.RiskLevel,
		}

		services := make(map[string]struct{})
		for _, port := range host.Ports {
			row.TotalPorts++
			switch port.Protocol {
			case "udp":
				row.UDPPorts++
			default:
				row.TCPPorts++
			}
			if port.Service != fusion.UnknownValue {
				services[port.Service] = struct{}{}
			}
		}
		row.TotalServices = len(services)
		rows = append(rows, row)
	}
	return rows
}

func buildHostDetails(hosts []enrich.Host) []HostDetail {
	details := make([]HostDetail, 0, len(hosts))
	for _, host := range hosts {
		detail := HostDetail{
			IP:          host.IP,
			Hostname:    host.Hostname,
			OS:          host.OS,
			RiskLevel:   host.RiskLevel,
			RiskScore:   host.RiskScore,
			CVEs:        host.CVEs,
			WeakCiphers: host.WeakCiphers,
		}

		for _, port := range host.Ports {
			key := port.Key()
			detail.Ports = append(detail.Ports, PortDetail{
				Port:             port.Port,
				Protocol:         port.Protocol,
				Service:          port.Service,
				Version:          port.Version,
				NSESummary:       portScriptSummary(port, host),
				BusinessFunction: host.PortFunctions[key],
				Risk:             host.PortRisks[key],
			})
		}
		details = append(details, detail)
	}
	return details
}

const (
	maxSummaryLines  = 3
	summaryOutputLen = 50
)

// portScriptSummary collects up to three one-line script summaries for a
// port: its own scripts first, then host-level scripts whose output mentions
// the port explicitly.
func portScriptSummary(port fusion.PortView, host enrich.Host) []string {
	var summaries []string
	for _, script := range port.Scripts {
		summaries = append(summaries, scriptSummaryLine(script))
	}

	marker := fmt.Sprintf("port %d", port.Port)
	for _, script := range host.Scripts {
		if strings.Contains(strings.ToLower(script.Output), marker) {
			summaries = append(summaries, scriptSummaryLine(script))
		}
	}

	if len(summaries) > maxSummaryLines {
		summaries = summaries[:maxSummaryLines]
	}
	return summaries
}

func scriptSummaryLine(script fusion.ScriptFinding) string {
	output := script.Output
	if len(output) > summaryOutputLen {
		output = output[:summaryOutputLen]
	}
	return script.ID + ": " + output
}

func buildPortFrequency(byPort map[fusion.PortKey][]enrich.Host) []PortFrequency {
	rows := make([]PortFrequency, 0, len(byPort))
	for key, group := range byPort {
		row := PortFrequency{
			Port:     key.Port,
			Protocol: key.Protocol,
			Count:    len(group),
			Service:  commonService(key, group),
		}
		for _, host := range group {
			row.IPs = append(row.IPs, host.IP)
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Port != rows[j].Port {
			return rows[i].Port < rows[j].Port
		}
		return rows[i].Protocol < rows[j].Protocol
	})
	return rows
}

func buildExposureMatrix(byPort map[fusion.PortKey][]enrich.Host) []Exposure {
	rows := make([]Exposure, 0, len(byPort))
	for key, group := range byPort {
		exposure := Exposure{
			Port:     key.Port,
			Protocol: key.Protocol,
			Service:  commonService(key, group),
		}
		for _, host := range group {
			port, ok := findPort(host, key)
			if !ok {
				continue
			}
			exposure.Hosts = append(exposure.Hosts, ExposureEntry{
				IP:               host.IP,
				Hostname:         host.Hostname,
				OS:               host.OS,
				Service:          port.Service,
				Version:          port.Version,
				BusinessFunction: host.PortFunctions[key],
			})
		}
		exposure.HostCount = len(exposure.Hosts)
		rows = append(rows, exposure)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Port != rows[j].Port {
			return rows[i].Port < rows[j].Port
		}
		return rows[i].Protocol < rows[j].Protocol
	})
	return rows
}

func findPort(host enrich.Host, key fusion.PortKey) (fusion.PortView, bool) {
	for _, port := range host.Ports {
		if port.Key() == key {
			return port, true
		}
	}
	return fusion.PortView{}, false
}

// commonService returns the service most hosts report for a port. Ties keep
// the service seen first in host order.
func commonService(key fusion.PortKey, group []enrich.Host) string {
	counts := make(map[string]int)
	var order []string
	for _, host := range group {
		port, ok := findPort(host, key)
		if !ok {
			continue
		}
		if counts[port.Service] == 0 {
			order = append(order, port.Service)
		}
		counts[port.Service]++
	}

	best := fusion.UnknownValue
	bestCount := 0
	for _, service := range order {
		if counts[service] > bestCount {
			best = service
			bestCount = counts[service]
		}
	}
	return best
}

func buildSubnetSummary(hosts []enrich.Host) []SubnetSummary {
	var summaries []SubnetSummary
	for _, host := range hosts {
		if n := len(summaries); n > 0 && summaries[n-1].Subnet == host.Subnet {
			continue
		}
		summaries = append(summaries, SubnetSummary{Subnet: host.Subnet})
	}

	for i := range summaries {
		var first, last string
		for _, host := range hosts {
			if host.Subnet != summaries[i].Subnet {
				continue
			}
			if first == "" {
				first = host.IP
			}
			last = host.IP
			summaries[i].HostCount++
		}
		summaries[i].IPRange = first + " - " + last
	}
	return summaries
}
