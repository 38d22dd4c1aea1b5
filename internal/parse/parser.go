// Package parse converts nmap output files into the common input record
// schema consumed by the fusion engine. It supports the XML, greppable
// (.gnmap), and normal (.nmap) output formats and discovers input files by
// extension or content sniffing.
package parse

import (
	"net/netip"
	"regexp"
	"strings"
	"time"

	"github.com/nmapfusion/nmapfusion/internal/fusion"
)

// Format identifies a supported nmap output format.
type Format string

const (
	FormatXML   Format = "xml"
	FormatGnmap Format = "gnmap"
	FormatNmap  Format = "nmap"
)

// Parser converts one scan output file into input records. Implementations
// return an error for unreadable or malformed files; callers log and continue
// with the other files, so a bad file never aborts a run.
type Parser interface {
	Format() Format
	Parse(path string) ([]fusion.InputRecord, error)
}

// ForFormat returns the parser for a detected format.
func ForFormat(format Format) Parser {
	switch format {
	case FormatGnmap:
		return NewGnmapParser()
	case FormatNmap:
		return NewNmapParser()
	default:
		return NewXMLParser()
	}
}

const maxCleanedOutputLen = 200

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanScriptOutput collapses multi-line NSE output into one bounded line:
// metadata lines ("|_ ...") are dropped, remaining lines joined with "; ",
// and the result capped at 200 characters.
func CleanScriptOutput(output string) string {
	if output == "" {
		return ""
	}

	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "|_") {
			continue
		}
		lines = append(lines, line)
	}

	cleaned := whitespaceRun.ReplaceAllString(strings.Join(lines, "; "), " ")
	if len(cleaned) > maxCleanedOutputLen {
		return cleaned[:maxCleanedOutputLen] + "..."
	}
	return cleaned
}

// timestampLayouts covers the formats nmap emits across output styles.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"Mon Jan _2 15:04:05 2006",
	"2006-01-02 15:04:05 -0700",
}

// parseTimestamp tries the known nmap timestamp layouts, returning the zero
// time when none match.
func parseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func isValidIP(value string) bool {
	_, err := netip.ParseAddr(value)
	return err == nil
}
