// Package geo reads visitor geolocation from the headers set by the edge
// network (Vercel or Cloudflare) in front of the server.
package geo

import (
	"net/http"
	"net/url"
	"strings"
)

// Vercel edge headers.
const (
	HeaderVercelCity      = "X-Vercel-IP-City"
	HeaderVercelCountry   = "X-Vercel-IP-Country"
	HeaderVercelRegion    = "X-Vercel-IP-Country-Region"
	HeaderVercelLatitude  = "X-Vercel-IP-Latitude"
	HeaderVercelLongitude = "X-Vercel-IP-Longitude"
)

// Cloudflare edge headers (the location ones require the managed transform).
const (
	HeaderCFCity      = "CF-IPCity"
	HeaderCFCountry   = "CF-IPCountry"
	HeaderCFRegion    = "CF-Region"
	HeaderCFLatitude  = "CF-IPLatitude"
	HeaderCFLongitude = "CF-IPLongitude"
)

// Headers lists every header FromHeaders may read, so callers can forward
// or redact them as a set.
var Headers = []string{
	HeaderVercelCity, HeaderVercelCountry, HeaderVercelRegion, HeaderVercelLatitude, HeaderVercelLongitude,
	HeaderCFCity, HeaderCFCountry, HeaderCFRegion, HeaderCFLatitude, HeaderCFLongitude,
}

// Location is the best-effort position of a request. Every field is nil
// when the edge did not provide it.
type Location struct {
	City      *string
	Country   *string
	Region    *string
	Flag      *string
	Latitude  *string
	Longitude *string
}

// FromHeaders extracts a Location, preferring Vercel headers and falling
// back to Cloudflare ones field by field.
func FromHeaders(h http.Header) Location {
	pick := func(vercel, cf string) *string {
		for _, k := range []string{vercel, cf} {
			if v := strings.TrimSpace(h.Get(k)); v != "" {
				return &v
			}
		}
		return nil
	}

	loc := Location{
		City:      pick(HeaderVercelCity, HeaderCFCity),
		Region:    pick(HeaderVercelRegion, HeaderCFRegion),
		Latitude:  pick(HeaderVercelLatitude, HeaderCFLatitude),
		Longitude: pick(HeaderVercelLongitude, HeaderCFLongitude),
	}
	if loc.City != nil {
		if dec, err := url.QueryUnescape(*loc.City); err == nil {
			loc.City = &dec
		}
	}
	if c := pick(HeaderVercelCountry, HeaderCFCountry); c != nil {
		code := strings.ToUpper(*c)
		// Cloudflare reports XX for unknown and T1 for Tor.
		if code != "XX" && code != "T1" {
			loc.Country = &code
			if f := Flag(code); f != "" {
				loc.Flag = &f
			}
		}
	}
	return loc
}

// Flag converts an ISO 3166-1 alpha-2 code to its regional indicator emoji.
// It returns "" for anything that is not two ASCII letters.
func Flag(code string) string {
	if len(code) != 2 {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(code) {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (r - 'A'))
	}
	return b.String()
}
