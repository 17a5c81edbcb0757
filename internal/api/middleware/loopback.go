package middleware

import (
	"net"
	"net/http"

	"brocode_arena/internal/common"
)

// AllowHosts rejects callers whose socket address is not in hosts. Only
// RemoteAddr is consulted, so it must not sit behind chi's RealIP.
func AllowHosts(hosts []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			allowed[ip.String()] = struct{}{}
			continue
		}
		allowed[h] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			if ip := net.ParseIP(host); ip != nil {
				host = ip.String()
			}
			if _, ok := allowed[host]; !ok {
				common.RespondWithError(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
