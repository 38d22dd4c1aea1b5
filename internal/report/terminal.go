// Package report renders analysis results to the terminal, to HTML, and to
// Excel workbooks.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/nmapfusion/nmapfusion/internal/analyze"
	"github.com/nmapfusion/nmapfusion/internal/enrich"
	"github.com/nmapfusion/nmapfusion/internal/fusion"
)

// Table selection names accepted by the renderers.
const (
	TableSummary   = "table1"
	TableDetails   = "table2"
	TableFrequency = "table3"
	TableExposure  = "table4"
)

// AllTables lists every table in display order.
var AllTables = []string{TableSummary, TableDetails, TableFrequency, TableExposure}

// Display limits keep terminal output readable on large scans.
const (
	maxFrequencyRows  = 20
	maxSampleIPs      = 5
	maxExposurePorts  = 10
	maxExposureHosts  = 15
	maxHostnameWidth  = 25
	maxOSWidth        = 20
	maxVersionWidth   = 35
	maxNSEWidth       = 45
	maxIPListWidth    = 50
	placeholderDash   = "-"
	bannerWidth       = 78
)

// TerminalRenderer writes the selected analysis tables to a writer.
type TerminalRenderer struct {
	w       io.Writer
	verbose bool
}

// NewTerminalRenderer creates a renderer. verbose adds fusion statistics and
// per-host vulnerability listings.
func NewTerminalRenderer(w io.Writer, verbose bool) *TerminalRenderer {
	return &TerminalRenderer{w: w, verbose: verbose}
}

// Render writes the scan configuration, the selected tables in the given
// order, and the executive summary.
func (r *TerminalRenderer) Render(result analyze.Result, stats fusion.Stats, commands []string, tables []string) {
	r.renderCommands(commands)

	if r.verbose {
		r.renderStats(stats)
	}

	for _, table := range tables {
		switch table {
		case TableSummary:
			r.renderSummary(result.Table1)
		case TableDetails:
			r.renderHostDetails(result.Table2)
		case TableFrequency:
			r.renderPortFrequency(result.Table3)
		case TableExposure:
			r.renderExposureMatrix(result.Table4)
		}
	}

	r.renderExecutiveSummary(result.Hosts)
}

func (r *TerminalRenderer) banner(title string) {
	line := strings.Repeat("=", bannerWidth)
	fmt.Fprintf(r.w, "\n%s\n  %s\n%s\n", line, title, line)
}

func (r *TerminalRenderer) renderCommands(commands []string) {
	r.banner("SCAN CONFIGURATION")
	if len(commands) == 0 {
		fmt.Fprintln(r.w, "  no nmap commands found in scan files")
		return
	}
	for _, cmd := range commands {
		fmt.Fprintf(r.w, "  > %s\n", cmd)
	}
}

func (r *TerminalRenderer) renderStats(stats fusion.Stats) {
	r.banner("FUSION ENGINE STATISTICS")
	fmt.Fprintf(r.w, "  Files processed     : %d\n", stats.FilesProcessed)
	fmt.Fprintf(r.w, "  Unique IPs found    : %d\n", stats.UniqueIPs)
	fmt.Fprintf(r.w, "  Total ports scanned : %d\n", stats.TotalPortsSeen)
	fmt.Fprintf(r.w, "  Ports after fusion  : %d\n", stats.PortsAfterFusion)
	fmt.Fprintf(r.w, "  Duplicates removed  : %d\n", stats.DuplicatePortsRemoved)
	fmt.Fprintf(r.w, "  Scripts merged      : %d\n", stats.ScriptsMerged)
}

func (r *TerminalRenderer) renderSummary(rows []analyze.Table1Row) {
	r.banner("TABLE 1: HOST SUMMARY OVERVIEW")
	if len(rows) == 0 {
		fmt.Fprintln(r.w, "  no host data available")
		return
	}

	table := tablewriter.NewWriter(r.w)
	table.Header("IP Address", "Hostname", "Ports", "TCP", "UDP", "Services", "OS", "Risk")

	totalPorts := 0
	for _, row := range rows {
		totalPorts += row.TotalPorts
		_ = table.Append([]string{
			row.IP,
			orDash(truncate(row.Hostname, maxHostnameWidth)),
			fmt.Sprintf("%d", row.TotalPorts),
			fmt.Sprintf("%d", row.TCPPorts),
			fmt.Sprintf("%d", row.UDPPorts),
			fmt.Sprintf("%d", row.TotalServices),
			knownOrDash(truncate(row.OS, maxOSWidth)),
			strings.ToUpper(row.RiskLevel),
		})
	}
	_ = table.Render()

	fmt.Fprintf(r.w, "  Total Hosts: %d | Total Open Ports: %d\n", len(rows), totalPorts)
}

func (r *TerminalRenderer) renderHostDetails(details []analyze.HostDetail) {
	r.banner("TABLE 2: HOST DETAILED ANALYSIS")
	if len(details) == 0 {
		fmt.Fprintln(r.w, "  no detailed host data available")
		return
	}

	for _, detail := range details {
		header := fmt.Sprintf("\nHOST: %s", detail.IP)
		if detail.Hostname != "" {
			header += fmt.Sprintf(" (%s)", detail.Hostname)
		}
		header += fmt.Sprintf(" | OS: %s | RISK: %s",
			truncate(detail.OS, 30), strings.ToUpper(detail.RiskLevel))
		fmt.Fprintln(r.w, header)

		if len(detail.Ports) == 0 {
			fmt.Fprintln(r.w, "  no open ports detected")
			continue
		}

		table := tablewriter.NewWriter(r.w)
		table.Header("Port", "Proto", "Service", "Version", "Risk", "NSE Findings")
		for _, port := range detail.Ports {
			nse := placeholderDash
			if len(port.NSESummary) > 0 {
				joined := strings.Join(port.NSESummary[:min(2, len(port.NSESummary))], "; ")
				nse = truncate(joined, maxNSEWidth)
			}
			_ = table.Append([]string{
				fmt.Sprintf("%d", port.Port),
				port.Protocol,
				port.Service,
				knownOrDash(truncate(port.Version, maxVersionWidth)),
				strings.ToUpper(port.Risk.Level),
				nse,
			})
		}
		_ = table.Render()

		if r.verbose && len(detail.CVEs) > 0 {
			fmt.Fprintln(r.w, "  vulnerabilities detected:")
			for _, cve := range detail.CVEs[:min(5, len(detail.CVEs))] {
				fmt.Fprintf(r.w, "    - %s\n", cve.ID)
			}
		}
		if r.verbose && len(detail.WeakCiphers) > 0 {
			fmt.Fprintln(r.w, "  weak cryptographic configurations:")
			for _, cipher := range detail.WeakCiphers[:min(3, len(detail.WeakCiphers))] {
				fmt.Fprintf(r.w, "    - %s\n", cipher.Cipher)
			}
		}
	}
}

func (r *TerminalRenderer) renderPortFrequency(rows []analyze.PortFrequency) {
	r.banner("TABLE 3: PORT FREQUENCY DISTRIBUTION")
	if len(rows) == 0 {
		fmt.Fprintln(r.w, "  no port frequency data available")
		return
	}

	table := tablewriter.NewWriter(r.w)
	table.Header("Port", "Protocol", "Host Count", "Service", "Sample Hosts")

	for _, row := range rows[:min(maxFrequencyRows, len(rows))] {
		sample := strings.Join(row.IPs[:min(maxSampleIPs, len(row.IPs))], ", ")
		if len(row.IPs) > maxSampleIPs {
			sample += fmt.Sprintf(" +%d more", len(row.IPs)-maxSampleIPs)
		}
		_ = table.Append([]string{
			fmt.Sprintf("%d", row.Port),
			row.Protocol,
			fmt.Sprintf("%d", row.Count),
			row.Service,
			truncate(sample, maxIPListWidth),
		})
	}
	_ = table.Render()

	most := mostFrequent(rows)
	fmt.Fprintf(r.w, "  Total Unique Ports: %d | Most Frequent: %d/%s (%d hosts)\n",
		len(rows), most.Port, most.Protocol, most.Count)
}

func mostFrequent(rows []analyze.PortFrequency) analyze.PortFrequency {
	best := rows[0]
	for _, row := range rows[1:] {
		if row.Count > best.Count {
			best = row
		}
	}
	return best
}

func (r *TerminalRenderer) renderExposureMatrix(rows []analyze.Exposure) {
	r.banner("TABLE 4: SERVICE EXPOSURE MATRIX")
	if len(rows) == 0 {
		fmt.Fprintln(r.w, "  no service exposure data available")
		return
	}

	for _, exposure := range rows[:min(maxExposurePorts, len(rows))] {
		fmt.Fprintf(r.w, "\nPORT: %d/%s | Exposure: %d hosts | Service: %s\n",
			exposure.Port, exposure.Protocol, exposure.HostCount, exposure.Service)

		table := tablewriter.NewWriter(r.w)
		table.Header("IP Address", "Hostname", "OS", "Service Version")
		for _, host := range exposure.Hosts[:min(maxExposureHosts, len(exposure.Hosts))] {
			_ = table.Append([]string{
				host.IP,
				orDash(truncate(host.Hostname, 20)),
				knownOrDash(truncate(host.OS, 15)),
				knownOrDash(truncate(host.Version, maxVersionWidth)),
			})
		}
		_ = table.Render()

		if len(exposure.Hosts) > maxExposureHosts {
			fmt.Fprintf(r.w, "  ... and %d additional hosts\n", len(exposure.Hosts)-maxExposureHosts)
		}
	}

	if len(rows) > maxExposurePorts {
		fmt.Fprintf(r.w, "\n  ... and %d additional ports\n", len(rows)-maxExposurePorts)
	}
}

func (r *TerminalRenderer) renderExecutiveSummary(hosts []enrich.Host) {
	totalPorts, totalCVEs, totalCiphers := 0, 0, 0
	riskCounts := map[string]int{}
	for _, host := range hosts {
		totalPorts += len(host.Ports)
		totalCVEs += len(host.CVEs)
		totalCiphers += len(host.WeakCiphers)
		riskCounts[host.RiskLevel]++
	}

	r.banner("EXECUTIVE SUMMARY")
	fmt.Fprintf(r.w, "  Total Hosts Analyzed : %d\n", len(hosts))
	fmt.Fprintf(r.w, "  Total Open Ports     : %d\n", totalPorts)
	fmt.Fprintf(r.w, "  Total CVEs Found     : %d\n", totalCVEs)
	fmt.Fprintf(r.w, "  Weak Cipher Suites   : %d\n", totalCiphers)
	fmt.Fprintf(r.w, "  CRITICAL Risk Hosts  : %d\n", riskCounts[enrich.LevelCritical])
	fmt.Fprintf(r.w, "  HIGH Risk Hosts      : %d\n", riskCounts[enrich.LevelHigh])
	fmt.Fprintf(r.w, "  MEDIUM Risk Hosts    : %d\n", riskCounts[enrich.LevelMedium])
	fmt.Fprintf(r.w, "  LOW Risk Hosts       : %d\n", riskCounts[enrich.LevelLow])
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}

func orDash(value string) string {
	if value == "" {
		return placeholderDash
	}
	return value
}

func knownOrDash(value string) string {
	if value == "" || value == fusion.UnknownValue {
		return placeholderDash
	}
	return value
}
