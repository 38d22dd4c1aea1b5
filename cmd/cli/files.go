package cli

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/nmapfusion/nmapfusion/internal/parse"
)

var filesCmd = &cobra.Command{
	Use:   "files <path>",
	Short: "List the nmap output files discovered under a path",
	Long: `Walk a file or directory and show every file recognized as nmap output,
with its detected format. Useful for checking what a report run would ingest.`,
	Args: cobra.ExactArgs(1),
	RunE: runFiles,
}

func init() {
	rootCmd.AddCommand(filesCmd)
}

func runFiles(cmd *cobra.Command, args []string) error {
	set, err := parse.Discover(args[0])
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	if set.Total() == 0 {
		fmt.Println("No nmap output files found.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("File", "Format")

	for _, path := range set.XML {
		_ = table.Append([]string{path, string(parse.FormatXML)})
	}
	for _, path := range set.Gnmap {
		_ = table.Append([]string{path, string(parse.FormatGnmap)})
	}
	for _, path := range set.Nmap {
		_ = table.Append([]string{path, string(parse.FormatNmap)})
	}
	_ = table.Render()

	fmt.Printf("Total: %d file(s)\n", set.Total())
	return nil
}
