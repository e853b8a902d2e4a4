package ratelimit

import "strings"

// MatchEndpoint returns the configuration for a route pattern and method, or
// nil when none applies. Patterns compare segment by segment so a request
// path such as /api/drafts/3f25.../session/save also matches its template
// when the router did not report one.
func MatchEndpoint(pattern, method string, configs []EndpointConfig) *EndpointConfig {
	for i := range configs {
		c := &configs[i]
		if c.Method == method && c.Pattern == pattern {
			return c
		}
	}

	segs := splitPath(pattern)
	for i := range configs {
		c := &configs[i]
		if c.Method == method && segmentsMatch(splitPath(c.Pattern), segs) {
			return c
		}
	}
	return nil
}

func splitPath(p string) []string {
	return strings.Split(strings.Trim(p, "/"), "/")
}

func segmentsMatch(tmpl, path []string) bool {
	if len(tmpl) != len(path) {
		return false
	}
	for i, s := range tmpl {
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			if path[i] == "" {
				return false
			}
			continue
		}
		if s != path[i] {
			return false
		}
	}
	return true
}
