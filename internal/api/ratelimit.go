package api

import (
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// rateLimitSearch rejects searches from a client that exceeds the inbound
// search rate with 429 Too Many Requests.
func (s *Server) rateLimitSearch(ctx huma.Context, next func(huma.Context)) {
	if s.searchLimiter == nil {
		next(ctx)
		return
	}

	key := clientKey(ctx.RemoteAddr())
	if !s.searchLimiter.Allow(key) {
		s.logger.Warn("Rate limit exceeded",
			"ip", key,
			"path", ctx.URL().Path,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return
	}

	next(ctx)
}

// clientKey strips the port from a remote address. RealIP middleware has
// already replaced it with the forwarded client address when present.
func clientKey(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
