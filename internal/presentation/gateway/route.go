package gateway

import (
	"strings"

	"github.com/swapspot/swapspot/internal/infrastructure/apperr"
)

// route is one parsed request path: /<service>/<command>[/<id>]. Extra
// segments past the third are ignored.
type route struct {
	Service string
	Command string
	ID      string
}

// parseRoute splits the path on "/" and drops empty segments, so doubled or
// trailing slashes do not change the result. Fewer than two segments is a
// malformed URL.
func parseRoute(path string) (route, error) {
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) < 2 {
		return route{}, apperr.BadRequest("invalid URL format")
	}
	r := route{
		Service: segments[0],
		Command: camelCommand(segments[1]),
	}
	if len(segments) >= 3 {
		r.ID = segments[2]
	}
	return r, nil
}

// camelCommand turns a hyphen-cased path segment into the camelCase command
// name the services register: "open-box" → "openBox". Purely lexical; the
// target service decides whether the command exists.
func camelCommand(segment string) string {
	parts := strings.Split(segment, "-")
	var b strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
