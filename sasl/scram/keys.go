package scram

import "golang.org/x/crypto/pbkdf2"

// Hi implements the salted-password derivation from RFC 5802 section 2.2:
// U1 = HMAC(str, salt || INT(1)), Ui = HMAC(str, Ui-1), all Ui folded
// together with XOR. That is exactly PBKDF2 with the suite's HMAC and a
// digest-sized derived key.
func (s Suite) Hi(password, salt []byte, iters int) []byte {
	return pbkdf2.Key(password, salt, iters, s.Size(), s.fn)
}

// xorBytes XORs two equal-length byte strings. The operands are always
// digest-sized by construction, so a length mismatch is an internal invariant
// violation, not a recoverable protocol error.
func xorBytes(a, b []byte) []byte {
	if len(a) != len(b) {
		panic("scram: xor operands of unequal length")
	}
	x := make([]byte, len(a))
	for i := range x {
		x[i] = a[i] ^ b[i]
	}
	return x
}

// wipe zeroes a secret buffer once it is no longer needed.
func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
