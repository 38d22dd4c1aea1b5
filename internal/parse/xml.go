package parse

import (
	"os"
	"time"

	"github.com/Ullaakut/nmap/v3"

	"github.com/nmapfusion/nmapfusion/internal/errors"
	"github.com/nmapfusion/nmapfusion/internal/fusion"
	"github.com/nmapfusion/nmapfusion/internal/logging"
)

// XMLParser parses nmap XML output using the nmap library's run model.
type XMLParser struct {
	logger *logging.Logger
}

// NewXMLParser creates an XML format parser.
func NewXMLParser() *XMLParser {
	return &XMLParser{logger: logging.Default().WithComponent("parse.xml")}
}

// Format returns the format this parser handles.
func (p *XMLParser) Format() Format {
	return FormatXML
}

// Parse reads and converts one XML file into input records.
func (p *XMLParser) Parse(path string) ([]fusion.InputRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewFileError(path, err)
	}

	run := &nmap.Run{}
	if err := nmap.Parse(data, run); err != nil {
		return nil, errors.NewParseError(path, err)
	}

	records := make([]fusion.InputRecord, 0, len(run.Hosts))
	for i := range run.Hosts {
		rec := p.convertHost(&run.Hosts[i], run, path)
		if rec.IP == "" {
			continue
		}
		records = append(records, rec)
	}

	p.logger.Debug("parsed XML file", "file", path, "hosts", len(records))
	return records, nil
}

func (p *XMLParser) convertHost(host *nmap.Host, run *nmap.Run, path string) fusion.InputRecord {
	rec := fusion.InputRecord{
		OS:         fusion.UnknownValue,
		Command:    run.Args,
		Timestamp:  time.Time(run.Start),
		SourceFile: path,
	}

	// Prefer the IPv4 address when a host reports both families.
	for _, addr := range host.Addresses {
		if addr.AddrType == "ipv4" {
			rec.IP = addr.Addr
			break
		}
	}
	if rec.IP == "" {
		for _, addr := range host.Addresses {
			if addr.AddrType == "ipv6" {
				rec.IP = addr.Addr
				break
			}
		}
	}

	if len(host.Hostnames) > 0 {
		rec.Hostname = host.Hostnames[0].Name
	}

	if len(host.OS.Matches) > 0 {
		rec.OS = host.OS.Matches[0].Name
	}

	for i := range host.Ports {
		port := &host.Ports[i]
		if port.State.State != "open" {
			continue
		}

		obs := fusion.PortObservation{
			Port:      int(port.ID),
			Protocol:  port.Protocol,
			State:     "open",
			Service:   fusion.UnknownValue,
			Version:   fusion.UnknownValue,
			Product:   port.Service.Product,
			ExtraInfo: port.Service.ExtraInfo,
		}
		if port.Service.Name != "" {
			obs.Service = port.Service.Name
		}
		if port.Service.Version != "" {
			obs.Version = port.Service.Version
		}

		// Fold product and extra info into a full version string up front;
		// the fusion layer's longest-wins rule then favors it naturally.
		if obs.Product != "" {
			version := obs.Product
			if obs.Version != fusion.UnknownValue {
				version += " " + obs.Version
			}
			if obs.ExtraInfo != "" {
				version += " (" + obs.ExtraInfo + ")"
			}
			obs.Version = version
		}

		for j := range port.Scripts {
			finding, ok := convertScript(&port.Scripts[j])
			if !ok {
				continue
			}
			obs.Scripts = append(obs.Scripts, finding)
			rec.Scripts = append(rec.Scripts, finding)
			extractFindings(finding, &rec, obs.Port)
		}

		rec.Ports = append(rec.Ports, obs)
	}

	for i := range host.HostScripts {
		finding, ok := convertScript(&host.HostScripts[i])
		if !ok {
			continue
		}
		rec.Scripts = append(rec.Scripts, finding)
		extractFindings(finding, &rec, 0)
	}

	return rec
}

func convertScript(script *nmap.Script) (fusion.ScriptFinding, bool) {
	if script.ID == "" || script.Output == "" {
		return fusion.ScriptFinding{}, false
	}
	return fusion.ScriptFinding{
		ID:         script.ID,
		Output:     CleanScriptOutput(script.Output),
		FullOutput: script.Output,
		Tables:     convertTables(script.Tables),
	}, true
}

func convertTables(tables []nmap.Table) []fusion.ScriptTable {
	if len(tables) == 0 {
		return nil
	}
	out := make([]fusion.ScriptTable, 0, len(tables))
	for _, table := range tables {
		converted := fusion.ScriptTable{
			Key:    table.Key,
			Tables: convertTables(table.Tables),
		}
		if len(table.Elements) > 0 {
			converted.Elems = make(map[string]string, len(table.Elements))
			for _, elem := range table.Elements {
				converted.Elems[elem.Key] = elem.Value
			}
		}
		out = append(out, converted)
	}
	return out
}
