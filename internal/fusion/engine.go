package fusion

import (
	"github.com/nmapfusion/nmapfusion/internal/errors"
	"github.com/nmapfusion/nmapfusion/internal/logging"
)

// Engine holds the per-run fusion state: one HostRecord per IP plus aggregate
// statistics. Lifecycle: create once, feed batches through AddScan, seal with
// ResolveConflicts, then read results.
type Engine struct {
	hosts     map[string]*HostRecord
	stats     Stats
	finalized bool
	logger    *logging.Logger
}

// NewEngine creates an empty fusion engine.
func NewEngine() *Engine {
	return &Engine{
		hosts:  make(map[string]*HostRecord),
		logger: logging.Default().WithComponent("fusion"),
	}
}

// AddScan ingests one parsed file's records. Records without an IP are
// filtered out, not treated as errors. The file counter increments even for
// empty batches so callers can report every file they processed.
func (e *Engine) AddScan(records []InputRecord, sourceLabel string) {
	e.stats.FilesProcessed++

	for _, rec := range records {
		if rec.IP == "" {
			e.logger.Debug("skipping record without IP", "source", sourceLabel)
			continue
		}

		host, ok := e.hosts[rec.IP]
		if !ok {
			host = newHostRecord(rec.IP)
			e.hosts[rec.IP] = host
			e.stats.UniqueIPs++
		}

		host.merge(rec)
		e.stats.TotalPortsSeen += len(rec.Ports)
	}
}

// ResolveConflicts finalizes every host record and freezes the engine.
// Idempotent: repeated calls neither re-finalize nor double-count.
func (e *Engine) ResolveConflicts() {
	if e.finalized {
		return
	}
	e.finalized = true

	for _, host := range e.hosts {
		host.finalize()
		e.stats.PortsAfterFusion += len(host.finalPorts)
		e.stats.ScriptsMerged += len(host.scripts)
	}

	e.stats.DuplicatePortsRemoved = e.stats.TotalPortsSeen - e.stats.PortsAfterFusion

	e.logger.Debug("conflict resolution complete",
		"hosts", len(e.hosts),
		"ports_after_fusion", e.stats.PortsAfterFusion,
		"duplicates_removed", e.stats.DuplicatePortsRemoved)
}

// UnifiedHosts returns one output view per host in unspecified order;
// ordering is the responsibility of downstream analysis.
func (e *Engine) UnifiedHosts() ([]UnifiedHost, error) {
	if !e.finalized {
		return nil, errors.NewNotFinalizedError("UnifiedHosts")
	}

	hosts := make([]UnifiedHost, 0, len(e.hosts))
	for _, host := range e.hosts {
		hosts = append(hosts, host.view())
	}
	return hosts, nil
}

// Summary returns the six fusion counters.
func (e *Engine) Summary() (Stats, error) {
	if !e.finalized {
		return Stats{}, errors.NewNotFinalizedError("Summary")
	}
	return e.stats, nil
}

// HostCount returns the number of unique IPs seen so far. Valid at any point
// in the lifecycle.
func (e *Engine) HostCount() int {
	return len(e.hosts)
}
