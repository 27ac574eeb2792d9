package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-analytics/internal/geo"
	"github.com/tbourn/go-blog-analytics/internal/sysutil"
	"github.com/tbourn/go-blog-analytics/internal/tracker"
	"github.com/tbourn/go-blog-analytics/internal/useragent"
)

// PageViewSink accepts captured navigations. *tracker.Tracker implements it.
type PageViewSink interface {
	Track(ev tracker.Event) bool
}

// PageViews records successful HTML page loads served by the router.
// Requests under skipPrefix (the API), non-GET requests, non-2xx responses,
// prefetches and visitors sending DNT or Sec-GPC are not recorded.
func PageViews(sink PageViewSink, skipPrefix string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		r := c.Request
		if r.Method != http.MethodGet || optedOut(r) {
			return
		}
		if skipPrefix != "" && strings.HasPrefix(r.URL.Path, skipPrefix) {
			return
		}
		if s := c.Writer.Status(); s < 200 || s > 299 {
			return
		}
		if !strings.HasPrefix(c.Writer.Header().Get("Content-Type"), "text/html") {
			return
		}

		sink.Track(tracker.Event{
			Path:      r.URL.Path,
			Referrer:  r.Referer(),
			UserAgent: r.UserAgent(),
			Language:  useragent.PrimaryLanguage(r.Header.Get("Accept-Language")),
			Forward:   geoHeaders(r.Header),
		})
	}
}

func optedOut(r *http.Request) bool {
	if sysutil.IsTruthy(r.Header.Get("DNT")) || sysutil.IsTruthy(r.Header.Get("Sec-GPC")) {
		return true
	}
	purpose := sysutil.FirstNonEmpty(r.Header.Get("Sec-Purpose"), r.Header.Get("Purpose"))
	return strings.HasPrefix(strings.ToLower(purpose), "prefetch")
}

// geoHeaders copies only the edge location headers; the tracker runs after
// the request is gone, so it must not share the request's header map.
func geoHeaders(h http.Header) http.Header {
	out := make(http.Header, len(geo.Headers))
	for _, k := range geo.Headers {
		if v := h.Values(k); len(v) > 0 {
			out[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
		}
	}
	return out
}
