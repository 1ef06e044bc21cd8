package ratelimit

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ClientIdentity resolves the bucket owner of a request: the first non-empty forwarded
// hop, then the real-IP header, then a hash of user agent and accept-language so
// anonymous clients still land in a stable bucket.
func ClientIdentity(r *http.Request) string {
	for _, hop := range strings.Split(r.Header.Get("X-Forwarded-For"), ",") {
		if ip := strings.TrimSpace(hop); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	sum := xxhash.Sum64String(r.Header.Get("User-Agent") + "|" + r.Header.Get("Accept-Language"))
	return "anon:" + strconv.FormatUint(sum, 16)
}
