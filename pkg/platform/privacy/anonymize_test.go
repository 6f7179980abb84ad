package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "ipv4 address", input: "192.168.1.47", expected: "192.168.1.0/24"},
		{name: "ipv4 localhost", input: "127.0.0.1", expected: "127.0.0.0/24"},
		{name: "ipv4 mapped ipv6", input: "::ffff:10.1.2.3", expected: "10.1.2.0/24"},
		{name: "ipv6 compressed", input: "2001:db8:85a3::8a2e:370:7334", expected: "2001:db8:85a3::/48"},
		{name: "ipv6 loopback", input: "::1", expected: "::/48"},
		{name: "ipv6 with zone", input: "fe80::1%eth0", expected: "fe80::/48"},
		{name: "empty", input: "", expected: "unknown"},
		{name: "unknown marker", input: "unknown", expected: "unknown"},
		{name: "garbage", input: "not-an-ip", expected: "invalid"},
		{name: "host and port", input: "10.0.0.1:8080", expected: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AnonymizeIP(tt.input))
		})
	}
}
