// Package sasl implements the client side of SASL authentication (RFC 4422).
package sasl

import "errors"

var (
	ErrMissingCredential = errors.New("sasl: missing required credential")
	ErrInvalidCredential = errors.New("sasl: credential contains prohibited characters")
	ErrNoChannelBinding  = errors.New("sasl: channel binding required but no binding data available")
)

// Success is the terminal result of a completed exchange.
type Success struct {
	Username string
	Authzid  string
}

// Failure is a protocol-level authentication failure. Reason is a short
// machine-readable token ("bad-challenge", "extra-challenge", ...) that the
// outer authentication driver can act on.
type Failure struct {
	Reason string
}

func (f *Failure) Error() string { return "sasl failed: " + f.Reason }

// Client drives one authentication exchange from the client role. Start
// produces the initial response, Challenge consumes each server challenge and
// produces the next response (or nil when the exchange needs no further
// output), and Finish confirms the outcome once the outer protocol signals
// overall success.
//
// A Client is good for a single exchange and is discarded afterwards. Its
// methods are called sequentially by the owning connection; it holds no state
// shared with other sessions.
type Client interface {
	Name() string
	Start(props Properties) ([]byte, error)
	Challenge(challenge []byte) ([]byte, error)
	Finish(data []byte) (*Success, error)
}

// Properties carries the caller-supplied inputs for an exchange.
type Properties struct {
	Username string
	Password string
	Authzid  string

	// NonceFactory overrides the default crypto/rand nonce source.
	// Mechanisms that need no nonce ignore it.
	NonceFactory func() []byte

	// ChannelBinding maps a binding type ("tls-unique",
	// "tls-server-end-point", ...) to the raw binding bytes exported by the
	// underlying secure channel.
	ChannelBinding map[string][]byte

	// EnabledMechanisms lists the mechanism names the peer advertised.
	EnabledMechanisms []string
}

// HasCredentials reports whether the properties are sufficient for a
// password-based mechanism.
func (p Properties) HasCredentials() bool {
	return p.Username != "" && p.Password != ""
}

// Enabled reports whether name appears in EnabledMechanisms.
func (p Properties) Enabled(name string) bool {
	for _, m := range p.EnabledMechanisms {
		if m == name {
			return true
		}
	}
	return false
}
