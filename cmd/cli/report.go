package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nmapfusion/nmapfusion/internal/aggregate"
	"github.com/nmapfusion/nmapfusion/internal/analyze"
	"github.com/nmapfusion/nmapfusion/internal/enrich"
	"github.com/nmapfusion/nmapfusion/internal/logging"
	"github.com/nmapfusion/nmapfusion/internal/report"
)

var (
	reportInput     string
	reportOutputDir string
	reportTables    []string
	reportHTML      bool
	reportExcel     bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fuse scan files and render analysis tables",
	Long: `Discover nmap output files under the input path, fuse them into one
record per host, score risk, and print the selected analysis tables.
HTML and Excel reports can be written alongside the terminal output.`,
	Example: `  nmapfusion report --input ./scans
  nmapfusion report -i ./scans -t table1,table3 --html
  nmapfusion report -i scan.xml --excel --output-dir ./reports`,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportInput, "input", "i", "", "file or directory containing nmap output (required)")
	reportCmd.Flags().StringVarP(&reportOutputDir, "output-dir", "o", "", "directory for generated HTML/Excel reports")
	reportCmd.Flags().StringSliceVarP(&reportTables, "tables", "t", nil, "tables to render, in order (table1,table2,table3,table4)")
	reportCmd.Flags().BoolVar(&reportHTML, "html", false, "write an HTML dashboard")
	reportCmd.Flags().BoolVar(&reportExcel, "excel", false, "write an Excel workbook")

	_ = reportCmd.MarkFlagRequired("input")
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags override the config file.
	if reportOutputDir != "" {
		cfg.Report.OutputDir = reportOutputDir
	}
	if len(reportTables) > 0 {
		cfg.Report.Tables = reportTables
	}
	if verbose {
		cfg.Report.Verbose = true
	}
	if err := validateTables(cfg.Report.Tables); err != nil {
		return err
	}

	result, err := aggregate.New().Run(reportInput)
	if err != nil {
		return fmt.Errorf("fusion failed: %w", err)
	}

	enriched := enrich.New(cfg.Risk).Enrich(result.Hosts)
	analysis := analyze.New().Analyze(enriched)

	terminal := report.NewTerminalRenderer(os.Stdout, cfg.Report.Verbose)
	terminal.Render(analysis, result.Stats, result.Commands, cfg.Report.Tables)

	if reportHTML || cfg.Report.HTML {
		path, err := report.NewHTMLRenderer(cfg.Report.OutputDir).
			Render(analysis, result.Stats, result.Commands, cfg.Report.Tables)
		if err != nil {
			return fmt.Errorf("HTML report failed: %w", err)
		}
		fmt.Printf("HTML report: %s\n", path)
	}

	if reportExcel || cfg.Report.Excel {
		path, err := report.NewExcelRenderer(cfg.Report.OutputDir).
			Render(analysis, result.Stats, result.Commands, cfg.Report.Tables)
		if err != nil {
			return fmt.Errorf("Excel report failed: %w", err)
		}
		fmt.Printf("Excel report: %s\n", path)
	}

	logging.Info("report complete",
		"hosts", result.Stats.UniqueIPs,
		"files", result.Stats.FilesProcessed)
	return nil
}

func validateTables(tables []string) error {
	valid := make(map[string]bool, len(report.AllTables))
	for _, name := range report.AllTables {
		valid[name] = true
	}
	for _, table := range tables {
		if !valid[table] {
			return fmt.Errorf("unknown table %q (valid: table1, table2, table3, table4)", table)
		}
	}
	return nil
}
