package clientip

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRealClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.5:51234"
	assert.Equal(t, "203.0.113.5", RealClientIP(r))

	// Ignores proxy headers.
	r.Header.Set("X-Forwarded-For", "198.51.100.9")
	assert.Equal(t, "203.0.113.5", RealClientIP(r))
}

func TestForwardedClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.5:51234"

	assert.Equal(t, "203.0.113.5", ForwardedClientIP(r))

	r.Header.Set("X-Real-IP", "198.51.100.9")
	assert.Equal(t, "198.51.100.9", ForwardedClientIP(r))

	r.Header.Set("X-Forwarded-For", "192.0.2.1, 198.51.100.9")
	assert.Equal(t, "192.0.2.1", ForwardedClientIP(r))
}
