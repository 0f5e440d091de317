package scram

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
)

// Suite binds a SCRAM hash name to its digest and HMAC primitives. Suites are
// value types looked up from a fixed table and shared freely; all methods are
// pure.
type Suite struct {
	name string
	fn   func() hash.Hash
}

var suites = map[string]func() hash.Hash{
	"SHA-1":   sha1.New,
	"SHA-224": sha256.New224,
	"SHA-256": sha256.New,
	"SHA-384": sha512.New384,
	"SHA-512": sha512.New,
	"MD-5":    md5.New,
}

// LookupSuite resolves a SCRAM hash name ("SHA-1", "SHA-256", ...). An
// unknown name is a configuration error, caught before any network activity.
func LookupSuite(name string) (Suite, error) {
	fn, ok := suites[name]
	if !ok {
		return Suite{}, fmt.Errorf("scram: unknown hash %q", name)
	}
	return Suite{name, fn}, nil
}

func (s Suite) Name() string { return s.name }

// Size returns the digest length in bytes.
func (s Suite) Size() int { return s.fn().Size() }

// Digest is the H(str) function from RFC 5802.
func (s Suite) Digest(b []byte) []byte {
	h := s.fn()
	h.Write(b)
	return h.Sum(nil)
}

// HMAC is the HMAC(key, str) function from RFC 5802.
func (s Suite) HMAC(key, msg []byte) []byte {
	mac := hmac.New(s.fn, key)
	mac.Write(msg)
	return mac.Sum(nil)
}
