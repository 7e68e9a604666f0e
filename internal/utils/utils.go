package utils

import "strings"

// NormalizeAddress lowercases and trims an identity string so mixed-case
// forms of the same address compare equal everywhere.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}
