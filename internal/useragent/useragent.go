// Package useragent derives browser, OS and device class from a User-Agent
// string. Parsing never fails: anything unrecognized is reported as nil,
// except the device class which falls back to "desktop".
package useragent

import (
	"strings"

	ua "github.com/mssola/useragent"
	"golang.org/x/text/language"
)

// Device classes.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
)

// ClientInfo is the parsed client description sent with a page view.
type ClientInfo struct {
	Browser  *string `json:"browser"`
	OS       *string `json:"os"`
	Device   *string `json:"device"`
	Screen   *string `json:"screen"`
	Language *string `json:"language"`
}

// Parse classifies raw. Screen and language are only observable by the
// client, so they are passed through (empty becomes nil).
func Parse(raw, screen, lang string) ClientInfo {
	info := ClientInfo{
		Screen:   strPtr(screen),
		Language: strPtr(lang),
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		info.Device = strPtr(DeviceDesktop)
		return info
	}

	u := ua.New(raw)
	name, _ := u.Browser()
	info.Browser = strPtr(name)
	info.OS = strPtr(osFamily(u, raw))
	info.Device = strPtr(deviceClass(u, raw))
	return info
}

func deviceClass(u *ua.UserAgent, raw string) string {
	l := strings.ToLower(raw)
	switch {
	case u.Bot():
		return DeviceBot
	case strings.Contains(l, "ipad") || strings.Contains(l, "tablet") ||
		(strings.Contains(l, "android") && !strings.Contains(l, "mobile")):
		return DeviceTablet
	case u.Mobile():
		return DeviceMobile
	default:
		return DeviceDesktop
	}
}

// osFamily collapses versioned OS strings ("Windows 10", "Intel Mac OS X
// 10_15_7", "CPU iPhone OS 17_0 like Mac OS X") into a family name.
func osFamily(u *ua.UserAgent, raw string) string {
	s := strings.ToLower(u.OS() + " " + u.Platform())
	if strings.TrimSpace(s) == "" {
		s = strings.ToLower(raw)
	}
	switch {
	case strings.Contains(s, "windows phone"):
		return "Windows Phone"
	case strings.Contains(s, "windows"):
		return "Windows"
	case strings.Contains(s, "iphone"), strings.Contains(s, "ipad"), strings.Contains(s, "ipod"):
		return "iOS"
	case strings.Contains(s, "mac os x"), strings.Contains(s, "macintosh"):
		return "macOS"
	case strings.Contains(s, "android"):
		return "Android"
	case strings.Contains(s, "cros"):
		return "Chrome OS"
	case strings.Contains(s, "linux"), strings.Contains(s, "ubuntu"):
		return "Linux"
	}
	return u.OSInfo().Name
}

// PrimaryLanguage returns the highest-weighted tag of an Accept-Language
// header, or "" when the header is empty or malformed.
func PrimaryLanguage(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return ""
	}
	return tags[0].String()
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
