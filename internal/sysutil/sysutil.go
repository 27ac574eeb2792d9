// Package sysutil holds process-level helpers: log level selection and
// lenient parsing of boolean-ish header and environment values.
package sysutil

import (
	"strings"

	"github.com/rs/zerolog"
)

// SetLogLevel sets the global zerolog level from a name such as "debug" or
// "WARN". "warning" is accepted as an alias; empty or unknown names fall back
// to info. It returns the level that was applied.
func SetLogLevel(name string) zerolog.Level {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	switch {
	case err != nil, name == "", lvl == zerolog.NoLevel, lvl == zerolog.Disabled, lvl == zerolog.TraceLevel:
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	return lvl
}

// IsTruthy reports whether v reads as "on": 1, true, yes, y or on, in any
// case. Header values such as DNT and Sec-GPC use "1".
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// FirstNonEmpty returns the first value that is not blank, unmodified.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
