package docscan

import (
	"regexp"
	"strings"
)

// License numbers on medical certificates appear after a label such as
// "License No", "Lic. No.", "Reg No" or "Registration Number". The value is
// an alphanumeric code, optionally dashed or slashed, with at least four
// digits in it.
var (
	labeledRE = regexp.MustCompile(`(?i)\b(?:licence|license|lic|registration|reg)\.?\s*(?:number|no|#)?\.?\s*[:#]?\s*([A-Z0-9][A-Z0-9/\-]{3,24})`)
	bareRE    = regexp.MustCompile(`\b[A-Z]{1,4}[-/]?\d{4,12}\b`)
	digitRE   = regexp.MustCompile(`\d`)
)

// FindLicenseNumber extracts the most plausible license number from OCR text.
// A labeled match wins over a bare pattern match.
func FindLicenseNumber(text string) (string, bool) {
	upper := strings.ToUpper(text)

	if m := labeledRE.FindStringSubmatch(upper); len(m) == 2 {
		if cand := cleanCandidate(m[1]); cand != "" {
			return cand, true
		}
	}
	for _, m := range bareRE.FindAllString(upper, -1) {
		if cand := cleanCandidate(m); cand != "" {
			return cand, true
		}
	}
	return "", false
}

// cleanCandidate trims punctuation noise and rejects strings without enough
// digits to be a registration code.
func cleanCandidate(s string) string {
	s = strings.Trim(s, "-/.:")
	if len(s) < 4 || len(s) > 24 {
		return ""
	}
	if len(digitRE.FindAllString(s, -1)) < 4 {
		return ""
	}
	return s
}
