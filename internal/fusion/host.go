package fusion

import (
	"sort"
	"time"
)

// HostRecord aggregates every observation of one IP across scan files. It is
// mutable through repeated merge calls and logically frozen once finalize
// runs.
type HostRecord struct {
	ip           string
	hostname     string
	osCandidates []string
	ports        map[PortKey]*portUnit
	scripts      []ScriptFinding
	cves         []CVERef
	weakCiphers  []WeakCipher
	commands     map[string]struct{}
	sourceFiles  map[string]struct{}
	timestamps   []time.Time
	subnet       string

	finalized  bool
	bestOS     string
	finalPorts []PortView
}

func newHostRecord(ip string) *HostRecord {
	return &HostRecord{
		ip:          ip,
		ports:       make(map[PortKey]*portUnit),
		commands:    make(map[string]struct{}),
		sourceFiles: make(map[string]struct{}),
		subnet:      DeriveSubnet(ip),
		bestOS:      UnknownValue,
	}
}

// merge folds one parsed record into the aggregate. Hostname is first
// non-empty wins; OS candidates accumulate for resolution at finalize time.
func (h *HostRecord) merge(rec InputRecord) {
	if h.hostname == "" && rec.Hostname != "" {
		h.hostname = rec.Hostname
	}

	if rec.OS != "" && rec.OS != UnknownValue {
		h.osCandidates = append(h.osCandidates, rec.OS)
	}

	for _, obs := range rec.Ports {
		key := PortKey{Port: obs.Port, Protocol: obs.Protocol}
		if unit, ok := h.ports[key]; ok {
			unit.merge(obs)
		} else {
			h.ports[key] = newPortUnit(obs)
		}
	}

	for _, script := range rec.Scripts {
		h.mergeScript(script)
	}

	for _, cve := range rec.CVEs {
		if !h.hasCVE(cve) {
			h.cves = append(h.cves, cve)
		}
	}

	for _, cipher := range rec.WeakCiphers {
		if !h.hasWeakCipher(cipher) {
			h.weakCiphers = append(h.weakCiphers, cipher)
		}
	}

	if rec.Command != "" {
		h.commands[rec.Command] = struct{}{}
	}
	if !rec.Timestamp.IsZero() {
		h.timestamps = append(h.timestamps, rec.Timestamp)
	}
	if rec.SourceFile != "" {
		h.sourceFiles[rec.SourceFile] = struct{}{}
	}
}

// mergeScript deduplicates by script id. When the same script reports
// different output from another file the outputs are concatenated, never
// replaced.
func (h *HostRecord) mergeScript(script ScriptFinding) {
	for i := range h.scripts {
		if h.scripts[i].ID == script.ID {
			if h.scripts[i].Output != script.Output {
				h.scripts[i].Output += "; " + script.Output
			}
			return
		}
	}
	h.scripts = append(h.scripts, script)
}

// CVE and weak-cipher membership is exact identity on all fields.
func (h *HostRecord) hasCVE(cve CVERef) bool {
	for _, existing := range h.cves {
		if existing == cve {
			return true
		}
	}
	return false
}

func (h *HostRecord) hasWeakCipher(cipher WeakCipher) bool {
	for _, existing := range h.weakCiphers {
		if existing == cipher {
			return true
		}
	}
	return false
}

// finalize resolves the OS choice, freezes the canonical port order, and
// deduplicates CVEs by id. Safe to call more than once.
func (h *HostRecord) finalize() {
	if h.finalized {
		return
	}
	h.finalized = true

	h.bestOS = h.selectBestOS()

	h.finalPorts = make([]PortView, 0, len(h.ports))
	for _, unit := range h.ports {
		unit.finalize()
		h.finalPorts = append(h.finalPorts, unit.view())
	}
	sort.Slice(h.finalPorts, func(i, j int) bool {
		return h.finalPorts[i].Key().Less(h.finalPorts[j].Key())
	})

	// Keep-last dedup: a later file's copy of a CVE id wins.
	byID := make(map[string]CVERef)
	order := make([]string, 0, len(h.cves))
	for _, cve := range h.cves {
		if _, seen := byID[cve.ID]; !seen {
			order = append(order, cve.ID)
		}
		byID[cve.ID] = cve
	}
	deduped := make([]CVERef, 0, len(byID))
	for _, id := range order {
		deduped = append(deduped, byID[id])
	}
	h.cves = deduped
}

// selectBestOS picks the most frequent candidate, then lets any strictly
// longer candidate override it. Longer strings tend to carry version detail
// ("Linux 4.15" over "Linux"), so specificity beats frequency here.
func (h *HostRecord) selectBestOS() string {
	if len(h.osCandidates) == 0 {
		return UnknownValue
	}

	counts := make(map[string]int, len(h.osCandidates))
	for _, candidate := range h.osCandidates {
		counts[candidate]++
	}

	best := h.osCandidates[0]
	for _, candidate := range h.osCandidates {
		if counts[candidate] > counts[best] {
			best = candidate
		}
	}

	for _, candidate := range h.osCandidates {
		if len(candidate) > len(best) {
			best = candidate
		}
	}

	return best
}

// view produces the immutable output record. Only meaningful after finalize.
func (h *HostRecord) view() UnifiedHost {
	commands := make([]string, 0, len(h.commands))
	for cmd := range h.commands {
		commands = append(commands, cmd)
	}
	sort.Strings(commands)

	sources := make([]string, 0, len(h.sourceFiles))
	for src := range h.sourceFiles {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	return UnifiedHost{
		IP:          h.ip,
		Hostname:    h.hostname,
		OS:          h.bestOS,
		Ports:       h.finalPorts,
		Scripts:     append([]ScriptFinding(nil), h.scripts...),
		WeakCiphers: append([]WeakCipher(nil), h.weakCiphers...),
		CVEs:        append([]CVERef(nil), h.cves...),
		Subnet:      h.subnet,
		Commands:    commands,
		SourceFiles: sources,
		PortCount:   len(h.finalPorts),
	}
}
