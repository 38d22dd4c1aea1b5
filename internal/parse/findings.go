package parse

import (
	"regexp"
	"strings"

	"github.com/nmapfusion/nmapfusion/internal/fusion"
)

var cvePattern = regexp.MustCompile(`(?i)CVE-\d{4}-\d{4,7}`)

// Indicator substrings that mark a cipher suite line as weak in
// ssl-enum-ciphers output.
var weakCipherIndicators = []string{"weak", "DES", "RC4", "MD5", "export", "low"}

// extractFindings pulls CVE references and weak-cipher indicators out of one
// script's cleaned output and appends them to the record. port is zero for
// host-level scripts.
func extractFindings(script fusion.ScriptFinding, rec *fusion.InputRecord, port int) {
	for _, match := range cvePattern.FindAllString(script.Output, -1) {
		cve := fusion.CVERef{
			ID:     strings.ToUpper(match),
			Script: script.ID,
			Port:   port,
		}
		if !containsCVE(rec.CVEs, cve) {
			rec.CVEs = append(rec.CVEs, cve)
		}
	}

	lower := strings.ToLower(script.Output)

	if strings.Contains(script.ID, "ssl-enum-ciphers") {
		for _, indicator := range weakCipherIndicators {
			if strings.Contains(lower, strings.ToLower(indicator)) {
				rec.WeakCiphers = append(rec.WeakCiphers, fusion.WeakCipher{
					Cipher: indicator,
					Script: script.ID,
					Port:   port,
				})
			}
		}
	}

	if strings.Contains(script.ID, "ssl-cert") && strings.Contains(lower, "expired") {
		rec.WeakCiphers = append(rec.WeakCiphers, fusion.WeakCipher{
			Cipher: "expired_certificate",
			Script: script.ID,
			Port:   port,
		})
	}
}

func containsCVE(cves []fusion.CVERef, cve fusion.CVERef) bool {
	for _, existing := range cves {
		if existing == cve {
			return true
		}
	}
	return false
}
