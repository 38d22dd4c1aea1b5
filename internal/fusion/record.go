// Package fusion implements the multi-source fusion engine: it merges
// per-host records parsed from independent nmap output files into one
// canonical, conflict-resolved record per IP address.
package fusion

import "time"

// UnknownValue is the sentinel used by parsers for fields nmap did not
// determine (OS names, service names, versions).
const UnknownValue = "unknown"

// InputRecord is the common schema every parser produces: one record per
// host observed in one scan file.
type InputRecord struct {
	IP          string
	Hostname    string
	OS          string
	Ports       []PortObservation
	Scripts     []ScriptFinding
	WeakCiphers []WeakCipher
	CVEs        []CVERef
	Command     string
	Timestamp   time.Time
	SourceFile  string
}

// PortObservation is one (port, protocol, service, version) tuple as reported
// by a single scan file for one host. Parsers drop non-open ports before
// records reach the engine.
type PortObservation struct {
	Port      int
	Protocol  string
	State     string
	Service   string
	Version   string
	Product   string
	ExtraInfo string
	Scripts   []ScriptFinding
}

// ScriptFinding is a named NSE diagnostic attached to a host or port.
// Output holds the cleaned single-line form, FullOutput the raw script text.
type ScriptFinding struct {
	ID         string
	Output     string
	FullOutput string
	Tables     []ScriptTable
}

// ScriptTable is a nested key/value table from NSE script output.
type ScriptTable struct {
	Key    string
	Elems  map[string]string
	Tables []ScriptTable
}

// CVERef is a CVE identifier extracted from script output. Port is zero for
// host-level findings.
type CVERef struct {
	ID     string
	Script string
	Port   int
}

// WeakCipher is a weak TLS/SSL configuration indicator extracted from script
// output. Port is zero for host-level findings.
type WeakCipher struct {
	Cipher string
	Script string
	Port   int
}

// PortKey identifies a merged port within one host.
type PortKey struct {
	Port     int
	Protocol string
}

// Less orders keys ascending by port number, then protocol. This is the
// canonical port ordering every downstream consumer relies on.
func (k PortKey) Less(other PortKey) bool {
	if k.Port != other.Port {
		return k.Port < other.Port
	}
	return k.Protocol < other.Protocol
}

// PortView is the immutable per-port output emitted after finalization.
type PortView struct {
	Port      int
	Protocol  string
	State     string
	Service   string
	Version   string
	Product   string
	ExtraInfo string
	Scripts   []ScriptFinding
}

// Key returns the (port, protocol) identity of the view.
func (p PortView) Key() PortKey {
	return PortKey{Port: p.Port, Protocol: p.Protocol}
}

// UnifiedHost is the immutable per-host output view produced once conflict
// resolution has run.
type UnifiedHost struct {
	IP          string
	Hostname    string
	OS          string
	Ports       []PortView
	Scripts     []ScriptFinding
	WeakCiphers []WeakCipher
	CVEs        []CVERef
	Subnet      string
	Commands    []string
	SourceFiles []string
	PortCount   int
}

// Stats tracks aggregate counters for one fusion run.
type Stats struct {
	FilesProcessed        int `json:"files_processed"`
	UniqueIPs             int `json:"unique_ips"`
	TotalPortsSeen        int `json:"total_ports_seen"`
	PortsAfterFusion      int `json:"ports_after_fusion"`
	DuplicatePortsRemoved int `json:"duplicate_ports_removed"`
	ScriptsMerged         int `json:"scripts_merged"`
}
