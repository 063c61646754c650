package mw

import (
	"net"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/marksync/internal/logger"
)

// EnforceHost rejects requests whose Host header matches none of
// allowedHosts. A page on another origin can resolve its own name to
// 127.0.0.1 and reach the control API; its Host header still carries that
// name, so only the names listed here get through.
//
// Patterns are case-insensitive. A pattern without a port accepts any port,
// "*.example.com" accepts subdomains and "*" accepts everything. An empty
// list disables the check.
func EnforceHost(allowedHosts []string, log logger.Logger) func(http.Handler) http.Handler {
	patterns := normalizeHosts(allowedHosts)
	if len(patterns) == 0 {
		log.Debug("EnforceHost: empty allowedHosts, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	log.Debugf("EnforceHost: initialized with hosts=%v", patterns)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, pattern := range patterns {
				if matchHost(r.Host, pattern) {
					next.ServeHTTP(w, r)
					return
				}
			}
			log.Warn("control API request rejected: unexpected host",
				logger.String("host", r.Host),
				logger.String("path", r.URL.Path))
			w.WriteHeader(http.StatusForbidden)
		})
	}
}

func normalizeHosts(in []string) []string {
	out := make([]string, 0, len(in))
	for _, h := range in {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}

// matchHost reports whether host matches pattern.
func matchHost(host, pattern string) bool {
	if pattern == "*" {
		return true
	}
	name, port := splitHost(strings.ToLower(host))
	pname, pport := splitHost(pattern)
	if pport != "" && pport != port {
		return false
	}
	if strings.HasPrefix(pname, "*.") {
		return strings.HasSuffix(name, pname[1:])
	}
	return name == pname
}

// splitHost separates an optional port. "[::1]:80", "[::1]" and "::1" all
// yield the name "::1".
func splitHost(s string) (name, port string) {
	if h, p, err := net.SplitHostPort(s); err == nil {
		return h, p
	}
	return strings.Trim(s, "[]"), ""
}
