// Package enrich layers risk scoring and business-function classification on
// top of unified host records. Scores are additive: weighted contributions
// from risky ports, outdated service versions, CVE references, and weak
// cipher findings, mapped to a four-level scale.
package enrich

import (
	"fmt"
	"math"
	"strings"

	"github.com/nmapfusion/nmapfusion/internal/fusion"
	"github.com/nmapfusion/nmapfusion/internal/logging"
)

// Risk levels, ordered from most to least severe.
const (
	LevelCritical = "critical"
	LevelHigh     = "high"
	LevelMedium   = "medium"
	LevelLow      = "low"
)

// Risk is the scored assessment of a single port.
type Risk struct {
	Level    string   `json:"level"`
	Score    float64  `json:"score"`
	Findings []string `json:"findings"`
}

// Host is a unified host with risk and business-function annotations
// attached. Port annotations are keyed by (port, protocol).
type Host struct {
	fusion.UnifiedHost

	RiskScore     float64
	RiskLevel     string
	PortRisks     map[fusion.PortKey]Risk
	PortFunctions map[fusion.PortKey]string
}

// Weights controls how much each finding category contributes to a score.
type Weights struct {
	Port            float64 `yaml:"port" json:"port"`
	CVE             float64 `yaml:"cve" json:"cve"`
	OutdatedVersion float64 `yaml:"outdated_version" json:"outdated_version"`
	WeakCipher      float64 `yaml:"weak_cipher" json:"weak_cipher"`
	NSEFinding      float64 `yaml:"nse_finding" json:"nse_finding"`
}

// Thresholds maps scores to levels: a score at or above Critical is
// critical, and so on down. Anything below Medium is low.
type Thresholds struct {
	Critical float64 `yaml:"critical" json:"critical"`
	High     float64 `yaml:"high" json:"high"`
	Medium   float64 `yaml:"medium" json:"medium"`
}

// Config carries the tunable scoring inputs. Zero-valued maps fall back to
// the built-in defaults.
type Config struct {
	Weights    Weights    `yaml:"weights" json:"weights"`
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`

	// RiskPorts maps a risk level to the port numbers that carry it.
	RiskPorts map[string][]int `yaml:"risk_ports" json:"risk_ports"`

	// VersionRisks maps a service name substring to version substrings and
	// the risk level each implies.
	VersionRisks map[string]map[string]string `yaml:"version_risks" json:"version_risks"`

	// BusinessPorts maps a business function to its well-known ports.
	BusinessPorts map[string][]int `yaml:"business_ports" json:"business_ports"`
}

// DefaultConfig returns the built-in scoring configuration.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Port:            3.0,
			CVE:             5.0,
			OutdatedVersion: 3.0,
			WeakCipher:      2.5,
			NSEFinding:      2.0,
		},
		Thresholds: Thresholds{
			Critical: 9.0,
			High:     7.0,
			Medium:   4.0,
		},
		RiskPorts: map[string][]int{
			LevelCritical: {23, 135, 139, 445, 3389, 5900},
			LevelHigh:     {21, 69, 1433, 3306, 5432, 6379, 9200, 11211, 27017},
			LevelMedium:   {25, 110, 143, 161, 389, 8080, 8443},
		},
		VersionRisks: map[string]map[string]string{
			"http": {
				"apache httpd 2.2":    LevelHigh,
				"apache httpd 2.4.49": LevelCritical,
				"nginx 1.16":          LevelMedium,
			},
			"ssh": {
				"openssh 6": LevelHigh,
				"openssh 7": LevelMedium,
			},
			"ftp": {
				"vsftpd 2":      LevelHigh,
				"proftpd 1.3.3": LevelCritical,
			},
		},
		BusinessPorts: map[string][]int{
			"web":           {80, 443, 8080, 8443},
			"database":      {1433, 3306, 5432, 6379, 27017},
			"remote_access": {22, 23, 3389, 5900},
			"mail":          {25, 110, 143, 465, 587, 993, 995},
			"file_transfer": {21, 69, 445, 2049},
			"directory":     {88, 389, 636},
		},
	}
}

// Enricher scores unified hosts against a scoring configuration.
type Enricher struct {
	cfg    Config
	logger *logging.Logger
}

// New creates an enricher. Zero-valued config sections are replaced with the
// defaults so partial overrides from a config file behave predictably.
func New(cfg Config) *Enricher {
	defaults := DefaultConfig()
	if cfg.Weights == (Weights{}) {
		cfg.Weights = defaults.Weights
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = defaults.Thresholds
	}
	if len(cfg.RiskPorts) == 0 {
		cfg.RiskPorts = defaults.RiskPorts
	}
	if len(cfg.VersionRisks) == 0 {
		cfg.VersionRisks = defaults.VersionRisks
	}
	if len(cfg.BusinessPorts) == 0 {
		cfg.BusinessPorts = defaults.BusinessPorts
	}
	return &Enricher{cfg: cfg, logger: logging.Default().WithComponent("enrich")}
}

// NewDefault creates an enricher with the built-in configuration.
func NewDefault() *Enricher {
	return New(DefaultConfig())
}

// Enrich annotates every host with per-port risk, an overall host risk, and
// business functions. Input order is preserved.
func (e *Enricher) Enrich(hosts []fusion.UnifiedHost) []Host {
	enriched := make([]Host, 0, len(hosts))
	for _, unified := range hosts {
		enriched = append(enriched, e.enrichHost(unified))
	}
	e.logger.Debug("enriched hosts", "count", len(enriched))
	return enriched
}

func (e *Enricher) enrichHost(unified fusion.UnifiedHost) Host {
	host := Host{
		UnifiedHost:   unified,
		PortRisks:     make(map[fusion.PortKey]Risk, len(unified.Ports)),
		PortFunctions: make(map[fusion.PortKey]string, len(unified.Ports)),
	}

	total := 0.0
	for _, port := range unified.Ports {
		risk := e.scorePort(port, unified)
		host.PortRisks[port.Key()] = risk
		host.PortFunctions[port.Key()] = e.businessFunction(port.Port)
		total += risk.Score
	}

	// Host-level findings contribute at a reduced rate so a single noisy
	// script does not dominate the port-derived score.
	total += float64(len(unified.CVEs)) * e.cfg.Weights.CVE * 0.5
	total += float64(len(unified.WeakCiphers)) * e.cfg.Weights.WeakCipher * 0.3

	host.RiskScore = round2(total)
	host.RiskLevel = e.scoreToLevel(host.RiskScore)
	return host
}

const maxFindings = 3

func (e *Enricher) scorePort(port fusion.PortView, host fusion.UnifiedHost) Risk {
	score := 0.0
	var findings []string

	for level, ports := range e.cfg.RiskPorts {
		for _, risky := range ports {
			if risky == port.Port {
				score += e.cfg.Weights.Port * levelMultiplier(level)
				findings = append(findings, fmt.Sprintf("High-risk port: %d", port.Port))
			}
		}
	}

	service := strings.ToLower(port.Service)
	version := strings.ToLower(port.Version)
	for riskyService, versions := range e.cfg.VersionRisks {
		if !strings.Contains(service, riskyService) {
			continue
		}
		for pattern, level := range versions {
			if strings.Contains(version, pattern) {
				score += e.cfg.Weights.OutdatedVersion * levelMultiplier(level)
				findings = append(findings, fmt.Sprintf("Outdated %s: %s", service, version))
				break
			}
		}
	}

	for _, cve := range host.CVEs {
		if cve.Port == port.Port {
			score += e.cfg.Weights.CVE
			findings = append(findings, "CVE: "+cve.ID)
		}
	}

	for _, cipher := range host.WeakCiphers {
		if cipher.Port == port.Port {
			score += e.cfg.Weights.WeakCipher
			findings = append(findings, "Weak cipher: "+cipher.Cipher)
		}
	}

	if len(findings) > maxFindings {
		findings = findings[:maxFindings]
	}

	score = round2(score)
	return Risk{Level: e.scoreToLevel(score), Score: score, Findings: findings}
}

func (e *Enricher) scoreToLevel(score float64) string {
	switch {
	case score >= e.cfg.Thresholds.Critical:
		return LevelCritical
	case score >= e.cfg.Thresholds.High:
		return LevelHigh
	case score >= e.cfg.Thresholds.Medium:
		return LevelMedium
	default:
		return LevelLow
	}
}

func (e *Enricher) businessFunction(port int) string {
	for function, ports := range e.cfg.BusinessPorts {
		for _, candidate := range ports {
			if candidate == port {
				return function
			}
		}
	}
	return "other"
}

func levelMultiplier(level string) float64 {
	switch strings.ToLower(level) {
	case LevelCritical:
		return 1.5
	case LevelHigh:
		return 1.2
	case LevelLow:
		return 0.7
	default:
		return 1.0
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
