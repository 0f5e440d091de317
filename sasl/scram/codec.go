package scram

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// The wire grammar is the attr-val syntax of RFC 5802 section 7, enforced
// with explicit character-class checks rather than a regex engine so that
// each malformed input yields a specific diagnostic.

// isValueChar reports whether c may appear in an attribute value: printable
// ASCII excluding the comma delimiter.
func isValueChar(c byte) bool {
	return c >= 0x21 && c <= 0x7e && c != ','
}

func validValue(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isValueChar(s[i]) {
			return false
		}
	}
	return true
}

// saslnameEscaper escapes the two characters that may not appear raw in a
// saslname (username or authzid) per RFC 5802 section 5.1.
var saslnameEscaper = strings.NewReplacer("=", "=3D", ",", "=2C")

func escapeSaslname(s string) string { return saslnameEscaper.Replace(s) }

// serverFirst is the parsed server-first-message. The raw text is kept by
// the session for the transcript; trailing extensions are tolerated here but
// preserved there.
type serverFirst struct {
	mext  bool
	nonce string
	salt  []byte
	iters int
}

func parseServerFirst(msg string) (*serverFirst, error) {
	var sf serverFirst
	fields := strings.Split(msg, ",")
	i := 0

	if strings.HasPrefix(fields[i], "m=") {
		if !validValue(fields[i][2:]) {
			return nil, fmt.Errorf("malformed extension attribute %q", fields[i])
		}
		sf.mext = true
		i++
	}

	if i >= len(fields) || !strings.HasPrefix(fields[i], "r=") || !validValue(fields[i][2:]) {
		return nil, errors.New("missing or malformed nonce attribute")
	}
	sf.nonce = fields[i][2:]
	i++

	if i >= len(fields) || !strings.HasPrefix(fields[i], "s=") {
		return nil, errors.New("missing salt attribute")
	}
	salt, err := base64.StdEncoding.DecodeString(fields[i][2:])
	if err != nil || len(salt) == 0 {
		return nil, fmt.Errorf("salt is not valid base64: %q", fields[i][2:])
	}
	sf.salt = salt
	i++

	if i >= len(fields) || !strings.HasPrefix(fields[i], "i=") {
		return nil, errors.New("missing iteration count attribute")
	}
	sf.iters, err = parseIterationCount(fields[i][2:])
	if err != nil {
		return nil, err
	}

	// Anything after i= is an optional extension: ignored, but the caller
	// signs over the raw message so it stays in the transcript.
	return &sf, nil
}

// parseIterationCount accepts only an unsigned decimal integer greater than
// zero. strconv.Atoi is not used because it admits signs and is happy to
// overflow into an error message that loses the original text.
func parseIterationCount(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty iteration count")
	}
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("iteration count %q is not a number", s)
		}
		n = n*10 + int(c-'0')
		if n > 1<<30 {
			return 0, fmt.Errorf("iteration count %q out of range", s)
		}
	}
	if n == 0 {
		return 0, errors.New("iteration count must be positive")
	}
	return n, nil
}

// serverFinal is the parsed server-final-message: either a server error token
// or a verifier, never both.
type serverFinal struct {
	err      string
	verifier []byte
}

func parseServerFinal(msg string) (*serverFinal, error) {
	switch {
	case strings.HasPrefix(msg, "e="):
		// server-error admits no trailing extensions
		val := msg[2:]
		if val == "" || strings.ContainsRune(val, ',') {
			return nil, fmt.Errorf("malformed server error %q", msg)
		}
		return &serverFinal{err: val}, nil
	case strings.HasPrefix(msg, "v="):
		val := msg[2:]
		if i := strings.IndexByte(val, ','); i >= 0 {
			val = val[:i]
		}
		verifier, err := base64.StdEncoding.DecodeString(val)
		if err != nil || val == "" {
			return nil, fmt.Errorf("verifier is not valid base64: %q", val)
		}
		return &serverFinal{verifier: verifier}, nil
	default:
		return nil, fmt.Errorf("malformed final message %q", msg)
	}
}
