package parse

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nmapfusion/nmapfusion/internal/errors"
	"github.com/nmapfusion/nmapfusion/internal/logging"
)

// FileSet groups discovered input files by detected format. Each slice is
// sorted lexicographically so every run merges files in the same order.
type FileSet struct {
	XML   []string
	Gnmap []string
	Nmap  []string
}

// Total returns the number of classified files.
func (fs FileSet) Total() int {
	return len(fs.XML) + len(fs.Gnmap) + len(fs.Nmap)
}

// Discover walks a file or directory and classifies every regular file by
// nmap output format. Unrecognized files are skipped.
func Discover(path string) (FileSet, error) {
	var set FileSet

	info, err := os.Stat(path)
	if err != nil {
		return set, errors.Wrap(errors.CodeFileNotFound, "input path not found", err)
	}

	if !info.IsDir() {
		set.add(path)
		return set, nil
	}

	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logging.Warn("skipping unreadable path", "path", p, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		set.add(p)
		return nil
	})
	if walkErr != nil {
		return set, errors.Wrap(errors.CodeFileUnreadable, "failed to walk input directory", walkErr)
	}

	sort.Strings(set.XML)
	sort.Strings(set.Gnmap)
	sort.Strings(set.Nmap)
	return set, nil
}

func (fs *FileSet) add(path string) {
	switch classify(path) {
	case FormatXML:
		fs.XML = append(fs.XML, path)
	case FormatGnmap:
		fs.Gnmap = append(fs.Gnmap, path)
	case FormatNmap:
		fs.Nmap = append(fs.Nmap, path)
	}
}

// classify detects the format by extension first, then by sniffing the first
// few lines of content. Returns "" for files that are not nmap output.
func classify(path string) Format {
	name := strings.ToLower(filepath.Base(path))

	switch {
	case strings.HasSuffix(name, ".xml"):
		return FormatXML
	case strings.Contains(name, ".gnmap"):
		return FormatGnmap
	case strings.Contains(name, ".nmap"):
		return FormatNmap
	}

	return sniffContent(path)
}

const sniffLines = 5

func sniffContent(path string) Format {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	var head strings.Builder
	scanner := bufio.NewScanner(file)
	for i := 0; i < sniffLines && scanner.Scan(); i++ {
		head.WriteString(scanner.Text())
		head.WriteString("\n")
	}

	content := head.String()
	switch {
	case strings.Contains(content, "<?xml") && strings.Contains(content, "nmaprun"):
		return FormatXML
	case strings.Contains(content, "Host:") && strings.Contains(content, "Ports:"):
		return FormatGnmap
	case strings.Contains(content, "Nmap scan report for"):
		return FormatNmap
	}
	return ""
}
