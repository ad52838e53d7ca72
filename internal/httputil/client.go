package httputil

import (
	"net/http"
	"time"
)

// Export downloads can be large; allow more headroom than a typical API call.
const DefaultTimeout = 60 * time.Second

// NewClient returns an HTTP client with standard timeout configuration.
func NewClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
	}
}
