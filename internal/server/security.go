package server

import (
	"fmt"
	"net/http"
)

type SecurityConfig struct {
	BaseURL string
}

// securityHeaders locks the page down while still allowing the embedded
// YouTube iframe: the player script and frame come from youtube.com, poster
// thumbnails from ytimg.com, and the engine connection upgrades to a
// websocket on our own origin.
func securityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	strictTransport := cfg.BaseURL != "" && hasHTTPS(cfg.BaseURL)

	csp := fmt.Sprintf(
		"default-src 'self'; img-src 'self' data: https://i.ytimg.com; script-src 'self' https://www.youtube.com; frame-src %s; connect-src 'self' ws: wss:; frame-ancestors 'self';",
		"https://www.youtube.com https://www.youtube-nocookie.com",
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "SAMEORIGIN")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			w.Header().Set("Content-Security-Policy", csp)

			if strictTransport {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasHTTPS(baseURL string) bool {
	return len(baseURL) >= 8 && baseURL[:8] == "https://"
}
