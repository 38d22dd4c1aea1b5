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

var nmapReportIPPattern = regexp.MustCompile(`\(([0-9a-fA-F:.]+)\)`)

// NmapParser parses nmap normal output (.nmap), the human-readable format.
type NmapParser struct {
	logger *logging.Logger
}

// NewNmapParser creates a normal-output format parser.
func NewNmapParser() *NmapParser {
	return &NmapParser{logger: logging.Default().WithComponent("parse.nmap")}
}

// Format returns the format this parser handles.
func (p *NmapParser) Format() Format {
	return FormatNmap
}

// Parse reads and converts one normal-output file into input records.
func (p *NmapParser) Parse(path string) ([]fusion.InputRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.NewFileError(path, err)
	}
	defer file.Close()

	var (
		records      []fusion.InputRecord
		current      *fusion.InputRecord
		command      string
		started      time.Time
		parsingPorts bool
	)

	flush := func() {
		if current != nil && current.IP != "" {
			records = append(records, *current)
		}
		current = nil
		parsingPorts = false
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.Contains(strings.ToLower(line), "scan initiated") && strings.Contains(strings.ToLower(line), "nmap"):
			if match := commandPattern.FindStringSubmatch(line); match != nil {
				command = strings.TrimSpace(match[1])
			}
			if match := initiatedPattern.FindStringSubmatch(line); match != nil {
				started = parseTimestamp(match[1])
			}

		case strings.HasPrefix(line, "Nmap scan report for"):
			flush()
			current = &fusion.InputRecord{
				OS:         fusion.UnknownValue,
				Command:    command,
				Timestamp:  started,
				SourceFile: path,
			}
			parseReportLine(line, current)

		case strings.HasPrefix(line, "PORT"):
			parsingPorts = current != nil

		case strings.HasPrefix(line, "Nmap done:"):
			flush()

		case parsingPorts:
			if strings.TrimSpace(line) == "" {
				parsingPorts = false
				continue
			}
			parsePortLine(line, current)
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return records, errors.NewParseError(path, err)
	}

	p.logger.Debug("parsed nmap file", "file", path, "hosts", len(records))
	return records, nil
}

// parseReportLine handles both "Nmap scan report for 192.168.1.1" and
// "Nmap scan report for web1 (192.168.1.1)".
func parseReportLine(line string, rec *fusion.InputRecord) {
	target := strings.TrimSpace(strings.TrimPrefix(line, "Nmap scan report for"))

	if match := nmapReportIPPattern.FindStringSubmatch(target); match != nil {
		if isValidIP(match[1]) {
			rec.IP = match[1]
		}
		hostname := strings.TrimSpace(strings.Replace(target, "("+match[1]+")", "", 1))
		if hostname != "" {
			rec.Hostname = hostname
		}
		return
	}

	if isValidIP(target) {
		rec.IP = target
	} else {
		rec.Hostname = target
	}
}

// parsePortLine handles table rows like
// "80/tcp   open  http       Apache httpd 2.4.49".
func parsePortLine(line string, rec *fusion.InputRecord) {
	if rec == nil {
		return
	}

	parts := strings.Fields(line)
	if len(parts) < 3 {
		return
	}

	portProto := parts[0]
	state := parts[1]
	service := parts[2]

	version := fusion.UnknownValue
	if len(parts) > 3 {
		version = strings.Join(parts[3:], " ")
	}

	port := portProto
	protocol := "tcp"
	if idx := strings.Index(portProto, "/"); idx >= 0 {
		port = portProto[:idx]
		protocol = portProto[idx+1:]
	}

	portNum, err := strconv.Atoi(port)
	if err != nil || state != "open" {
		return
	}

	rec.Ports = append(rec.Ports, fusion.PortObservation{
		Port:     portNum,
		Protocol: protocol,
		State:    state,
		Service:  service,
		Version:  version,
	})
}
