package subsystems

import "net/http"

// HTTPConfiguration encapsulates the HTTP configuration options set by HTTPConfigurationBuilder,
// for use by SDK components that need to construct their own HTTP requests.
type HTTPConfiguration struct {
	// DefaultHeaders are the headers that should be added to all HTTP requests made by SDK
	// components, including the standard Authorization header.
	DefaultHeaders http.Header

	// CreateHTTPClient returns a new HTTP client instance based on the SDK configuration. SDK
	// components should use this rather than constructing their own HTTP client, so that timeouts,
	// proxies, and TLS configuration are applied consistently.
	CreateHTTPClient func() *http.Client
}
