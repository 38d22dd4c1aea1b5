package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmapfusion/nmapfusion/internal/fusion"
)

func TestEnrichRiskyPort(t *testing.T) {
	hosts := []fusion.UnifiedHost{{
		IP: "10.0.0.1",
		Ports: []fusion.PortView{{
			Port: 3389, Protocol: "tcp", State: "open",
			Service: "ms-wbt-server", Version: fusion.UnknownValue,
		}},
	}}

	enriched := NewDefault().Enrich(hosts)
	require.Len(t, enriched, 1)

	key := fusion.PortKey{Port: 3389, Protocol: "tcp"}
	risk := enriched[0].PortRisks[key]

	// Critical-listed port: 3.0 weight at the 1.5 multiplier.
	assert.Equal(t, 4.5, risk.Score)
	assert.Equal(t, LevelMedium, risk.Level)
	assert.Equal(t, []string{"High-risk port: 3389"}, risk.Findings)

	assert.Equal(t, 4.5, enriched[0].RiskScore)
	assert.Equal(t, LevelMedium, enriched[0].RiskLevel)
	assert.Equal(t, "remote_access", enriched[0].PortFunctions[key])
}

func TestEnrichOutdatedVersionAndCVE(t *testing.T) {
	hosts := []fusion.UnifiedHost{{
		IP: "10.0.0.2",
		Ports: []fusion.PortView{{
			Port: 80, Protocol: "tcp", State: "open",
			Service: "http", Version: "Apache httpd 2.4.49",
		}},
		CVEs: []fusion.CVERef{{ID: "CVE-2021-41773", Script: "vulners", Port: 80}},
	}}

	enriched := NewDefault().Enrich(hosts)
	require.Len(t, enriched, 1)

	risk := enriched[0].PortRisks[fusion.PortKey{Port: 80, Protocol: "tcp"}]

	// Outdated version at critical (3.0 * 1.5) plus one CVE (5.0).
	assert.Equal(t, 9.5, risk.Score)
	assert.Equal(t, LevelCritical, risk.Level)
	assert.Contains(t, risk.Findings, "CVE: CVE-2021-41773")

	// Host total adds half the CVE weight again at host level.
	assert.Equal(t, 12.0, enriched[0].RiskScore)
	assert.Equal(t, LevelCritical, enriched[0].RiskLevel)
}

func TestEnrichWeakCipher(t *testing.T) {
	hosts := []fusion.UnifiedHost{{
		IP: "10.0.0.3",
		Ports: []fusion.PortView{{
			Port: 443, Protocol: "tcp", State: "open",
			Service: "https", Version: fusion.UnknownValue,
		}},
		WeakCiphers: []fusion.WeakCipher{{Cipher: "RC4", Script: "ssl-enum-ciphers", Port: 443}},
	}}

	enriched := NewDefault().Enrich(hosts)
	require.Len(t, enriched, 1)

	risk := enriched[0].PortRisks[fusion.PortKey{Port: 443, Protocol: "tcp"}]
	assert.Equal(t, 2.5, risk.Score)
	assert.Equal(t, LevelLow, risk.Level)

	// 2.5 from the port plus 0.3 * 2.5 at host level.
	assert.Equal(t, 3.25, enriched[0].RiskScore)
	assert.Equal(t, LevelLow, enriched[0].RiskLevel)
	assert.Equal(t, "web", enriched[0].PortFunctions[fusion.PortKey{Port: 443, Protocol: "tcp"}])
}

func TestEnrichFindingsCapped(t *testing.T) {
	hosts := []fusion.UnifiedHost{{
		IP: "10.0.0.4",
		Ports: []fusion.PortView{{
			Port: 445, Protocol: "tcp", State: "open",
			Service: "microsoft-ds", Version: fusion.UnknownValue,
		}},
		CVEs: []fusion.CVERef{
			{ID: "CVE-2017-0143", Script: "smb-vuln-ms17-010", Port: 445},
			{ID: "CVE-2017-0144", Script: "smb-vuln-ms17-010", Port: 445},
			{ID: "CVE-2017-0145", Script: "smb-vuln-ms17-010", Port: 445},
		},
	}}

	enriched := NewDefault().Enrich(hosts)
	require.Len(t, enriched, 1)

	risk := enriched[0].PortRisks[fusion.PortKey{Port: 445, Protocol: "tcp"}]
	assert.Len(t, risk.Findings, 3)
	assert.Equal(t, LevelCritical, risk.Level)
}

func TestEnrichUnknownPortFunction(t *testing.T) {
	hosts := []fusion.UnifiedHost{{
		IP: "10.0.0.5",
		Ports: []fusion.PortView{{
			Port: 9999, Protocol: "tcp", State: "open",
			Service: fusion.UnknownValue, Version: fusion.UnknownValue,
		}},
	}}

	enriched := NewDefault().Enrich(hosts)
	require.Len(t, enriched, 1)

	key := fusion.PortKey{Port: 9999, Protocol: "tcp"}
	assert.Equal(t, "other", enriched[0].PortFunctions[key])
	assert.Equal(t, 0.0, enriched[0].PortRisks[key].Score)
	assert.Equal(t, LevelLow, enriched[0].RiskLevel)
}

func TestNewFillsDefaults(t *testing.T) {
	e := New(Config{Weights: Weights{Port: 10.0, CVE: 1.0, OutdatedVersion: 1.0, WeakCipher: 1.0, NSEFinding: 1.0}})

	assert.Equal(t, 10.0, e.cfg.Weights.Port)
	assert.Equal(t, 9.0, e.cfg.Thresholds.Critical)
	assert.NotEmpty(t, e.cfg.RiskPorts)
	assert.NotEmpty(t, e.cfg.BusinessPorts)
}

func TestScoreToLevelBoundaries(t *testing.T) {
	e := NewDefault()

	tests := []struct {
		score    float64
		expected string
	}{
		{9.0, LevelCritical},
		{8.9, LevelHigh},
		{7.0, LevelHigh},
		{6.9, LevelMedium},
		{4.0, LevelMedium},
		{3.9, LevelLow},
		{0, LevelLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, e.scoreToLevel(tt.score), "score %.1f", tt.score)
	}
}
