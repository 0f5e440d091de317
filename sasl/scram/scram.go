// Package scram implements the client side of SCRAM (RFC 5802), the salted
// challenge-response mechanism used for XMPP SASL authentication. A session
// proves knowledge of the password without transmitting it and verifies the
// server's signature in return.
package scram

import (
	"github.com/natter-xmpp/natter/sasl"
	"github.com/xdg-go/stringprep"
)

func init() {
	register("SHA-1", 80, 90)
	register("SHA-256", 85, 95)
}

// register installs the plain and -PLUS variants for one hash. The -PLUS
// variant additionally requires channel-binding data before it is usable.
func register(hashName string, priority, plusPriority int) {
	sasl.Register("SCRAM-"+hashName, priority,
		sasl.Properties.HasCredentials,
		func() sasl.Client {
			c, _ := New(hashName, false)
			return c
		})
	sasl.Register("SCRAM-"+hashName+"-PLUS", plusPriority,
		func(p sasl.Properties) bool {
			return p.HasCredentials() && len(p.ChannelBinding) > 0
		},
		func() sasl.Client {
			c, _ := New(hashName, true)
			return c
		})
}

// normalize runs SASLprep over a username, password or authzid before it is
// used in any derivation, per RFC 5802 section 5.1.
func normalize(s string) (string, error) {
	return stringprep.SASLprep.Prepare(s)
}
