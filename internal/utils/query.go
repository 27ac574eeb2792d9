// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"strconv"
	"strings"
)

// IntParam parses a query parameter value. Surrounding blanks are ignored.
// An empty value yields def; anything that is not a base-10 int yields bad,
// so callers can tell "absent" from "garbage".
//
//	utils.IntParam("30", 0, -1)  // 30
//	utils.IntParam("", 0, -1)    // 0
//	utils.IntParam("1e3", 0, -1) // -1
func IntParam(raw string, def, bad int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return bad
	}
	return n
}
