package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/nmapfusion/nmapfusion/internal/analyze"
	"github.com/nmapfusion/nmapfusion/internal/enrich"
	"github.com/nmapfusion/nmapfusion/internal/errors"
	"github.com/nmapfusion/nmapfusion/internal/fusion"
	"github.com/nmapfusion/nmapfusion/internal/logging"
)

// Sheet names, prefixed so they sort in reading order inside the workbook.
const (
	sheetSummary   = "0_Executive_Summary"
	sheetTable1    = "1_Host_Summary_Overview"
	sheetTable2    = "2_Host_Detailed_Analysis"
	sheetTable3    = "3_Port_Frequency"
	sheetTable4    = "4_Service_Exposure"
	sheetCommands  = "Scan_Configuration"
	sheetScripts   = "NSE_Findings"
	sheetSubnets   = "Subnet_Summary"
	sheetRawData   = "Raw_Data"
	defaultSheet   = "Sheet1"
)

// ExcelRenderer writes a multi-sheet workbook into an output directory.
type ExcelRenderer struct {
	outputDir string
	runID     string
	logger    *logging.Logger
}

// NewExcelRenderer creates a renderer that writes into outputDir.
func NewExcelRenderer(outputDir string) *ExcelRenderer {
	return &ExcelRenderer{
		outputDir: outputDir,
		runID:     uuid.NewString()[:8],
		logger:    logging.Default().WithComponent("report.excel"),
	}
}

// Render writes the workbook and returns the generated file path. The
// selected table sheets come first; the configuration, findings, subnet, and
// raw data sheets are always included.
func (r *ExcelRenderer) Render(result analyze.Result, stats fusion.Stats, commands []string, selected []string) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o750); err != nil {
		return "", errors.Wrap(errors.CodeDirectoryCreate, "failed to create output directory", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"00BCD4"}, Pattern: 1},
	})
	if err != nil {
		return "", errors.NewReportError("", err)
	}

	w := &sheetWriter{f: f, headerStyle: headerStyle}

	w.writeSummary(result.Hosts, stats)

	for _, table := range selected {
		switch table {
		case TableSummary:
			w.writeTable1(result.Table1)
		case TableDetails:
			w.writeTable2(result.Table2)
		case TableFrequency:
			w.writeTable3(result.Table3)
		case TableExposure:
			w.writeTable4(result.Table4)
		}
	}

	w.writeCommands(commands)
	w.writeScripts(result.Hosts)
	w.writeSubnets(result.Subnets)
	w.writeRawData(result.Hosts)

	if w.err != nil {
		return "", errors.NewReportError("", w.err)
	}

	_ = f.DeleteSheet(defaultSheet)

	filename := fmt.Sprintf("nmapfusion_report_%s_%s.xlsx",
		time.Now().Format("20060102_150405"), r.runID)
	path := filepath.Join(r.outputDir, filename)
	if err := f.SaveAs(path); err != nil {
		return "", errors.NewReportError(path, err)
	}

	r.logger.Info("Excel report written", "file", path)
	return path, nil
}

// sheetWriter accumulates the first error and turns the rest of the calls
// into no-ops, so sheet builders stay linear.
type sheetWriter struct {
	f           *excelize.File
	headerStyle int
	err         error
}

func (w *sheetWriter) newSheet(name string, headers []string) {
	if w.err != nil {
		return
	}
	if _, err := w.f.NewSheet(name); err != nil {
		w.err = err
		return
	}
	if len(headers) == 0 {
		return
	}

	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	if err := w.f.SetSheetRow(name, "A1", &row); err != nil {
		w.err = err
		return
	}

	end, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := w.f.SetCellStyle(name, "A1", end, w.headerStyle); err != nil {
		w.err = err
	}
}

func (w *sheetWriter) appendRow(name string, rowNum int, values []interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(name, cell, &values); err != nil {
		w.err = err
	}
}

func (w *sheetWriter) autoWidth(name string, columns int) {
	if w.err != nil {
		return
	}
	for col := 1; col <= columns; col++ {
		letter, err := excelize.ColumnNumberToName(col)
		if err != nil {
			w.err = err
			return
		}
		if err := w.f.SetColWidth(name, letter, letter, 18); err != nil {
			w.err = err
			return
		}
	}
}

func (w *sheetWriter) writeSummary(hosts []enrich.Host, stats fusion.Stats) {
	w.newSheet(sheetSummary, nil)
	if w.err != nil {
		return
	}

	set := func(cell string, value interface{}) {
		if w.err == nil {
			w.err = w.f.SetCellValue(sheetSummary, cell, value)
		}
	}

	totals := summarize(hosts)
	set("A1", "NmapFusion - Network Assessment Summary")
	set("A3", "Report Generated:")
	set("B3", time.Now().Format("2006-01-02 15:04:05"))
	set("A4", "Files Analyzed:")
	set("B4", stats.FilesProcessed)
	set("A6", "Total Hosts Analyzed:")
	set("B6", totals.TotalHosts)
	set("A7", "Total Open Ports:")
	set("B7", totals.TotalPorts)
	set("A8", "Total CVEs Found:")
	set("B8", totals.TotalCVEs)
	set("A9", "Weak Cipher Suites:")
	set("B9", totals.TotalCiphers)
	set("A10", "Scripts Merged:")
	set("B10", stats.ScriptsMerged)
	set("A11", "Duplicate Ports Removed:")
	set("B11", stats.DuplicatePortsRemoved)

	w.autoWidth(sheetSummary, 2)
}

func (w *sheetWriter) writeTable1(rows []analyze.Table1Row) {
	w.newSheet(sheetTable1, []string{
		"IP Address", "Hostname", "Total Ports", "TCP", "UDP", "Services", "OS", "Risk",
	})
	for i, row := range rows {
		w.appendRow(sheetTable1, i+2, []interface{}{
			row.IP,
			orDash(row.Hostname),
			row.TotalPorts,
			row.TCPPorts,
			row.UDPPorts,
			row.TotalServices,
			knownOrDash(row.OS),
			strings.ToUpper(row.RiskLevel),
		})
	}
	w.autoWidth(sheetTable1, 8)
}

func (w *sheetWriter) writeTable2(details []analyze.HostDetail) {
	w.newSheet(sheetTable2, []string{
		"IP Address", "Hostname", "OS", "Port", "Protocol", "Service",
		"Version", "Risk", "NSE Findings", "Business Function",
	})

	rowNum := 2
	for _, detail := range details {
		if len(detail.Ports) == 0 {
			w.appendRow(sheetTable2, rowNum, []interface{}{
				detail.IP, orDash(detail.Hostname), detail.OS,
				"-", "-", "-", "-", strings.ToUpper(detail.RiskLevel), "-", "-",
			})
			rowNum++
			continue
		}
		for _, port := range detail.Ports {
			nse := "-"
			if len(port.NSESummary) > 0 {
				nse = strings.Join(port.NSESummary[:min(2, len(port.NSESummary))], "; ")
			}
			w.appendRow(sheetTable2, rowNum, []interface{}{
				detail.IP,
				orDash(detail.Hostname),
				detail.OS,
				port.Port,
				port.Protocol,
				port.Service,
				knownOrDash(port.Version),
				strings.ToUpper(port.Risk.Level),
				nse,
				titleCase(port.BusinessFunction),
			})
			rowNum++
		}
	}
	w.autoWidth(sheetTable2, 10)
}

func (w *sheetWriter) writeTable3(rows []analyze.PortFrequency) {
	w.newSheet(sheetTable3, []string{"Port", "Protocol", "Host Count", "Service", "Sample IPs"})
	for i, row := range rows {
		sample := strings.Join(row.IPs[:min(maxSampleIPs, len(row.IPs))], ", ")
		if len(row.IPs) > maxSampleIPs {
			sample += fmt.Sprintf(" +%d more", len(row.IPs)-maxSampleIPs)
		}
		w.appendRow(sheetTable3, i+2, []interface{}{
			row.Port, row.Protocol, row.Count, row.Service, sample,
		})
	}
	w.autoWidth(sheetTable3, 5)
}

func (w *sheetWriter) writeTable4(rows []analyze.Exposure) {
	w.newSheet(sheetTable4, []string{
		"Port", "Protocol", "Exposed Hosts", "IP Address", "Hostname", "OS",
		"Service Version", "Business Function",
	})

	rowNum := 2
	for _, exposure := range rows {
		for _, host := range exposure.Hosts {
			w.appendRow(sheetTable4, rowNum, []interface{}{
				exposure.Port,
				exposure.Protocol,
				exposure.HostCount,
				host.IP,
				orDash(host.Hostname),
				knownOrDash(host.OS),
				knownOrDash(host.Version),
				titleCase(host.BusinessFunction),
			})
			rowNum++
		}
	}
	w.autoWidth(sheetTable4, 8)
}

func (w *sheetWriter) writeCommands(commands []string) {
	w.newSheet(sheetCommands, []string{"Nmap Command(s) Used"})
	for i, cmd := range commands {
		w.appendRow(sheetCommands, i+2, []interface{}{cmd})
	}
	if w.err == nil {
		w.err = w.f.SetColWidth(sheetCommands, "A", "A", 100)
	}
}

func (w *sheetWriter) writeScripts(hosts []enrich.Host) {
	w.newSheet(sheetScripts, []string{"IP Address", "Hostname", "Script", "Output"})
	rowNum := 2
	for _, host := range hosts {
		for _, script := range host.Scripts {
			w.appendRow(sheetScripts, rowNum, []interface{}{
				host.IP,
				orDash(host.Hostname),
				script.ID,
				truncate(script.Output, 200),
			})
			rowNum++
		}
	}
	w.autoWidth(sheetScripts, 4)
}

func (w *sheetWriter) writeSubnets(subnets []analyze.SubnetSummary) {
	w.newSheet(sheetSubnets, []string{"Subnet", "Host Count", "IP Range"})
	for i, subnet := range subnets {
		w.appendRow(sheetSubnets, i+2, []interface{}{
			subnet.Subnet, subnet.HostCount, subnet.IPRange,
		})
	}
	w.autoWidth(sheetSubnets, 3)
}

func (w *sheetWriter) writeRawData(hosts []enrich.Host) {
	w.newSheet(sheetRawData, []string{
		"IP Address", "Hostname", "OS", "Port", "Protocol", "Service",
		"Version", "CVEs", "Source Files",
	})

	rowNum := 2
	for _, host := range hosts {
		var cveIDs []string
		for _, cve := range host.CVEs[:min(3, len(host.CVEs))] {
			cveIDs = append(cveIDs, cve.ID)
		}
		var sources []string
		for _, src := range host.SourceFiles[:min(2, len(host.SourceFiles))] {
			sources = append(sources, filepath.Base(src))
		}
		cves := strings.Join(cveIDs, ", ")
		files := strings.Join(sources, ", ")

		if len(host.Ports) == 0 {
			w.appendRow(sheetRawData, rowNum, []interface{}{
				host.IP, orDash(host.Hostname), host.OS,
				"-", "-", "-", "-", cves, files,
			})
			rowNum++
			continue
		}
		for _, port := range host.Ports {
			w.appendRow(sheetRawData, rowNum, []interface{}{
				host.IP,
				orDash(host.Hostname),
				host.OS,
				port.Port,
				port.Protocol,
				port.Service,
				knownOrDash(port.Version),
				cves,
				files,
			})
			rowNum++
		}
	}
	w.autoWidth(sheetRawData, 9)
}

func titleCase(value string) string {
	if value == "" {
		return "Other"
	}
	parts := strings.Split(value, "_")
	for i, part := range parts {
		if part != "" {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}
