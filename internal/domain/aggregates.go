package domain

import "encoding/json"

// Dimension names used by grouped session counts. They double as the JSON
// key of the grouped value.
const (
	DimensionOS       = "os"
	DimensionBrowser  = "browser"
	DimensionDevice   = "device"
	DimensionReferrer = "referrer"
	DimensionPath     = "path"
	DimensionCountry  = "country"
)

// GroupCount is one row of a grouped session count: how many sessions share
// Value for Dimension, and their share of all grouped sessions in percent
// (one decimal).
type GroupCount struct {
	Dimension string
	Value     string
	Flag      string // country rows only
	Count     int64
	Percent   float64
}

// MarshalJSON renders the row keyed by its dimension, e.g.
// {"os":"Windows","count":2,"percent":66.7}.
func (g GroupCount) MarshalJSON() ([]byte, error) {
	key := g.Dimension
	if key == "" {
		key = "value"
	}
	out := map[string]any{
		key:       g.Value,
		"count":   g.Count,
		"percent": g.Percent,
	}
	if g.Dimension == DimensionCountry {
		out["flag"] = g.Flag
	}
	return json.Marshal(out)
}

// VisitPoint is one day of the visit series. Date is YYYY-MM-DD in the
// configured analytics time zone.
type VisitPoint struct {
	Date   string `json:"date"`
	Visits int64  `json:"visits"`
}
