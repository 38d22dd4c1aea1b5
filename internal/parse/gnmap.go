package parse

import (
	"bufio"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/nmapfusion/nmapfusion/internal/errors"
	"github.com/nmapfusion/nmapfusion/internal/fusion"
	"github.com/nmapfusion/nmapfusion/internal/logging"
)

var (
	gnmapHostPattern     = regexp.MustCompile(`Host:\s+([0-9a-fA-F:.]+)`)
	gnmapHostnamePattern = regexp.MustCompile(`\(([^)]+)\)`)
	gnmapPortsPattern    = regexp.MustCompile(`Ports:\s+(.+?)(?:\s+Ignored|$)`)
	gnmapOSPattern       = regexp.MustCompile(`OS:\s+([^;\n]+)`)
	commandPattern       = regexp.MustCompile(`as:\s+(.+)$`)
	initiatedPattern     = regexp.MustCompile(`scan initiated\s+(.+?)\s+as:`)
)

// GnmapParser parses nmap greppable output (.gnmap).
type GnmapParser struct {
	logger *logging.Logger
}

// NewGnmapParser creates a greppable format parser.
func NewGnmapParser() *GnmapParser {
	return &GnmapParser{logger: logging.Default().WithComponent("parse.gnmap")}
}

// Format returns the format this parser handles.
func (p *GnmapParser) Format() Format {
	return FormatGnmap
}

// Parse reads and converts one greppable file into input records.
func (p *GnmapParser) Parse(path string) ([]fusion.InputRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewFileError(path, err)
	}
	defer file.Close()

	var records []fusion.InputRecord
	var command string
	var started time.Time
	first := true

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		// The header comment carries the invocation and start time:
		// "# Nmap 7.94 scan initiated Mon Jan  1 10:00:00 2024 as: nmap -sV ..."
		if first {
			first = false
			if match := commandPattern.FindStringSubmatch(line); match != nil {
				command = strings.TrimSpace(match[1])
			}
			if match := initiatedPattern.FindStringSubmatch(line); match != nil {
				started = parseTimestamp(match[1])
			}
		}

		if !strings.HasPrefix(line, "Host:") {
			continue
		}

		rec := p.parseHostLine(line, command, path)
		if rec.IP != "" {
			rec.Timestamp = started
			records = append(records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return records, errors.NewParseError(path, err)
	}

	p.logger.Debug("parsed gnmap file", "file", path, "hosts", len(records))
	return records, nil
}

func (p *GnmapParser) parseHostLine(line, command, path string) fusion.InputRecord {
	rec := fusion.InputRecord{
		OS:         fusion.UnknownValue,
		Command:    command,
		SourceFile: path,
	}

	if match := gnmapHostPattern.FindStringSubmatch(line); match != nil && isValidIP(match[1]) {
		rec.IP = match[1]
	}

	if match := gnmapHostnamePattern.FindStringSubmatch(line); match != nil {
		rec.Hostname = match[1]
	}

	if match := gnmapPortsPattern.FindStringSubmatch(line); match != nil {
		rec.Ports = parseGnmapPorts(match[1])
	}

	if match := gnmapOSPattern.FindStringSubmatch(line); match != nil {
		rec.OS = strings.TrimSpace(match[1])
	}

	return rec
}

// parseGnmapPorts parses the comma-separated port list. The canonical field
// order is port/state/protocol/owner/service/sunrpcinfo/version, but some
// tools export a legacy port/protocol/state/service/version variant, so both
// are accepted. Only open ports are kept.
func parseGnmapPorts(portsStr string) []fusion.PortObservation {
	var ports []fusion.PortObservation

	for _, entry := range strings.Split(portsStr, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		parts := strings.Split(entry, "/")
		if len(parts) < 3 {
			continue
		}

		portNum, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}

		var state, protocol, service string
		var versionFields []string

		if isPortState(parts[1]) {
			state = parts[1]
			protocol = orDefault(parts[2], "tcp")
			service = fusion.UnknownValue
			if len(parts) > 4 && parts[4] != "" {
				service = parts[4]
			}
			versionFields = collectVersionFields(parts, 5)
		} else {
			// Legacy variant.
			protocol = orDefault(parts[1], "tcp")
			state = orDefault(parts[2], "open")
			service = fusion.UnknownValue
			if len(parts) > 3 && parts[3] != "" {
				service = parts[3]
			}
			versionFields = collectVersionFields(parts, 4)
		}

		if state != "open" {
			continue
		}

		version := fusion.UnknownValue
		if len(versionFields) > 0 {
			version = strings.TrimSpace(strings.Join(versionFields, " "))
		}

		ports = append(ports, fusion.PortObservation{
			Port:     portNum,
			Protocol: protocol,
			State:    state,
			Service:  service,
			Version:  version,
		})
	}

	return ports
}

func isPortState(value string) bool {
	switch value {
	case "open", "closed", "filtered":
		return true
	}
	return false
}

func collectVersionFields(parts []string, from int) []string {
	var fields []string
	for _, part := range parts[min(from, len(parts)):] {
		if part == "" || part == "none" || strings.HasPrefix(part, "conf=") {
			continue
		}
		fields = append(fields, part)
	}
	return fields
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
