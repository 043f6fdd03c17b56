// Wayfinder - Professional Resource Navigation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfinder

package logging

// RedactIdentifier masks a raw user identifier for log output. Raw
// identifiers are never persisted, and logs keep at most two leading
// characters.
func RedactIdentifier(id string) string {
	r := []rune(id)
	switch {
	case len(r) == 0:
		return ""
	case len(r) <= 4:
		return "***"
	default:
		return string(r[:2]) + "***"
	}
}

// ShortHash shortens a user hash for log output.
func ShortHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}
