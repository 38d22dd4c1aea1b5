// Package aggregate drives a full fusion run: it discovers nmap output files
// under an input path, parses each format, feeds every file into the fusion
// engine, and returns the unified hosts with run statistics.
package aggregate

import (
	"sort"

	"github.com/nmapfusion/nmapfusion/internal/errors"
	"github.com/nmapfusion/nmapfusion/internal/fusion"
	"github.com/nmapfusion/nmapfusion/internal/logging"
	"github.com/nmapfusion/nmapfusion/internal/parse"
)

// Result is the output of one aggregation run.
type Result struct {
	Hosts    []fusion.UnifiedHost
	Stats    fusion.Stats
	Commands []string
	Files    parse.FileSet
}

// Aggregator coordinates discovery, parsing, and fusion.
type Aggregator struct {
	logger *logging.Logger
}

// New creates an aggregator.
func New() *Aggregator {
	return &Aggregator{logger: logging.Default().WithComponent("aggregate")}
}

// Run processes every nmap output file under inputPath. XML files are merged
// first, then greppable, then normal output, so the richest format seeds
// each host record. A file that fails to parse is logged and skipped; the
// run only fails when discovery fails or no usable files exist.
func (a *Aggregator) Run(inputPath string) (Result, error) {
	files, err := parse.Discover(inputPath)
	if err != nil {
		return Result{}, err
	}
	if files.Total() == 0 {
		return Result{}, errors.New(errors.CodeFileNotFound, "no nmap output files found under input path")
	}

	a.logger.Info("discovered scan files",
		"xml", len(files.XML), "gnmap", len(files.Gnmap), "nmap", len(files.Nmap))

	engine := fusion.NewEngine()
	a.ingest(engine, parse.FormatXML, files.XML)
	a.ingest(engine, parse.FormatGnmap, files.Gnmap)
	a.ingest(engine, parse.FormatNmap, files.Nmap)

	engine.ResolveConflicts()

	hosts, err := engine.UnifiedHosts()
	if err != nil {
		return Result{}, err
	}
	stats, err := engine.Summary()
	if err != nil {
		return Result{}, err
	}

	a.logger.Info("fusion complete",
		"hosts", stats.UniqueIPs,
		"ports", stats.PortsAfterFusion,
		"duplicates_removed", stats.DuplicatePortsRemoved)

	return Result{
		Hosts:    hosts,
		Stats:    stats,
		Commands: collectCommands(hosts),
		Files:    files,
	}, nil
}

func (a *Aggregator) ingest(engine *fusion.Engine, format parse.Format, paths []string) {
	if len(paths) == 0 {
		return
	}
	parser := parse.ForFormat(format)
	for _, path := range paths {
		records, err := parser.Parse(path)
		if err != nil {
			a.logger.WarnParse("skipping unparseable scan file", path, err, "format", format)
			continue
		}
		engine.AddScan(records, path)
	}
}

// collectCommands gathers the distinct nmap invocations across all hosts.
func collectCommands(hosts []fusion.UnifiedHost) []string {
	seen := make(map[string]struct{})
	for _, host := range hosts {
		for _, cmd := range host.Commands {
			seen[cmd] = struct{}{}
		}
	}

	commands := make([]string, 0, len(seen))
	for cmd := range seen {
		commands = append(commands, cmd)
	}
	sort.Strings(commands)
	return commands
}
