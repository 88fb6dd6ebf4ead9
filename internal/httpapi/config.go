package httpapi

import "time"

// defaultMaxBodyBytes leaves room for base64 attachments on entries.
const defaultMaxBodyBytes int64 = 10 << 20

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes = defaultMaxBodyBytes

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
		return
	}
	maxBodyBytes = n
}

// Page size bounds for list endpoints.
const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// watchKeepalive is the interval between SSE comment frames on watch streams.
var watchKeepalive = 15 * time.Second

// SetWatchKeepalive sets the keepalive interval for watch streams (<=0 restores the default).
func SetWatchKeepalive(d time.Duration) {
	if d <= 0 {
		d = 15 * time.Second
	}
	watchKeepalive = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
