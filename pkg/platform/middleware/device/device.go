// Package device derives a coarse, human readable device label from the
// User-Agent header. The label is shown back to the user on their session
// summary; it is never used as an identifier.
package device

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"witchmart/pkg/requestcontext"
)

const unknownDevice = "Unknown Device"

// Label formats a User-Agent as "Browser on OS", e.g. "Firefox on Linux".
func Label(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return unknownDevice
	}

	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	os := ua.OS()

	// Mobile OS strings carry build noise; the platform is more readable.
	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			os = platform
		}
	}
	if browser == "" {
		browser = "Unknown Browser"
	}
	if os == "" {
		os = "Unknown OS"
	}
	return browser + " on " + os
}

// Device stores the label for the request's User-Agent in the context.
// It expects request.ClientMetadata to have run first.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ua := requestcontext.UserAgent(ctx)
		if ua == "" {
			ua = r.Header.Get("User-Agent")
		}
		ctx = requestcontext.WithDeviceLabel(ctx, Label(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
