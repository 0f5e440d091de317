package scram

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"

	"github.com/natter-xmpp/natter/sasl"
)

type state uint8

const (
	stateInit state = iota
	stateAwaitServerFirst
	stateAwaitServerFinal
	stateFinished
	stateFailed
)

// Client is the client half of one SCRAM exchange. It is created per
// authentication attempt, driven sequentially by the owning connection, and
// discarded once finished or failed. All transcript and secret material is
// owned exclusively by the session; secrets are wiped as soon as they are no
// longer needed.
type Client struct {
	name  string
	suite Suite
	plus  bool

	state state

	// identity reported on success, as supplied by the caller
	username string
	authzid  string

	// normalized password, wiped once the salted password is derived
	password []byte

	cNonce    []byte
	gs2Header []byte
	cbData    []byte

	clientFirstBare []byte

	// expected server signature over the fixed auth message, computed
	// together with the proof and held for the final verification
	serverSignature []byte
}

// New returns a client authenticator for the named SCRAM hash ("SHA-1",
// "SHA-256", ...). channelBinding selects the -PLUS variant; its binding data
// must then be present in the start properties.
func New(hashName string, channelBinding bool) (*Client, error) {
	suite, err := LookupSuite(hashName)
	if err != nil {
		return nil, err
	}
	name := "SCRAM-" + hashName
	if channelBinding {
		name += "-PLUS"
	}
	return &Client{name: name, suite: suite, plus: channelBinding}, nil
}

func (c *Client) Name() string { return c.name }

// Start builds the client-first-message. It fails without producing any
// output when a credential is missing or unpreppable, or when channel binding
// was requested but props carry no binding data.
func (c *Client) Start(props sasl.Properties) ([]byte, error) {
	if c.state != stateInit {
		return nil, errors.New("scram: session already started")
	}
	if !props.HasCredentials() {
		return nil, sasl.ErrMissingCredential
	}

	username, err := normalize(props.Username)
	if err != nil {
		return nil, fmt.Errorf("%w: username: %v", sasl.ErrInvalidCredential, err)
	}
	password, err := normalize(props.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: password: %v", sasl.ErrInvalidCredential, err)
	}
	authzid := ""
	if props.Authzid != "" {
		if authzid, err = normalize(props.Authzid); err != nil {
			return nil, fmt.Errorf("%w: authzid: %v", sasl.ErrInvalidCredential, err)
		}
	}
	c.username = props.Username
	c.authzid = props.Authzid
	c.password = []byte(password)

	nonce := defaultNonce()
	if props.NonceFactory != nil {
		nonce = props.NonceFactory()
	}
	// a factory nonce may contain arbitrary bytes; re-encode it into the
	// value charset instead of rejecting it
	if !validValue(string(nonce)) {
		nonce = []byte(base64.StdEncoding.EncodeToString(nonce))
	}
	c.cNonce = nonce

	var cbFlag string
	if c.plus {
		cbType := bindingType(props.ChannelBinding)
		if cbType == "" {
			return nil, sasl.ErrNoChannelBinding
		}
		c.cbData = props.ChannelBinding[cbType]
		cbFlag = "p=" + cbType
	} else if props.Enabled(c.name + "-PLUS") {
		cbFlag = "y"
	} else {
		cbFlag = "n"
	}

	var authzidAttr string
	if authzid != "" {
		authzidAttr = "a=" + escapeSaslname(authzid)
	}
	c.gs2Header = []byte(cbFlag + "," + authzidAttr + ",")
	c.clientFirstBare = []byte("n=" + escapeSaslname(username) + ",r=" + string(c.cNonce))

	c.state = stateAwaitServerFirst

	first := make([]byte, 0, len(c.gs2Header)+len(c.clientFirstBare))
	first = append(first, c.gs2Header...)
	return append(first, c.clientFirstBare...), nil
}

// Challenge consumes one server message. It returns the next outbound
// message, or (nil, nil) once the server's verifier has been checked, or a
// *sasl.Failure. A failed session never recovers; a finished one rejects
// further challenges.
func (c *Client) Challenge(challenge []byte) ([]byte, error) {
	if c.state == stateFinished {
		return nil, &sasl.Failure{Reason: "extra-challenge"}
	}
	if len(challenge) == 0 {
		return nil, c.fail("bad-challenge")
	}
	switch c.state {
	case stateAwaitServerFirst:
		return c.serverFirst(challenge)
	case stateAwaitServerFinal:
		return nil, c.serverFinal(challenge)
	default: // not started, or already failed
		return nil, &sasl.Failure{Reason: "bad-challenge"}
	}
}

func (c *Client) serverFirst(challenge []byte) ([]byte, error) {
	sf, err := parseServerFirst(string(challenge))
	if err != nil {
		return nil, c.fail("bad-challenge")
	}
	if sf.mext {
		// message extensions are not supported; reject rather than guess
		return nil, c.fail("bad-challenge")
	}
	if !bytes.HasPrefix([]byte(sf.nonce), c.cNonce) {
		return nil, c.fail("bad-challenge")
	}

	saltedPassword := c.suite.Hi(c.password, sf.salt, sf.iters)
	wipe(c.password)
	c.password = nil

	cb := make([]byte, 0, len(c.gs2Header)+len(c.cbData))
	cb = append(cb, c.gs2Header...)
	cb = append(cb, c.cbData...)
	withoutProof := []byte("c=" + base64.StdEncoding.EncodeToString(cb) + ",r=" + sf.nonce)

	// the exact bytes both parties sign over: bare first message, raw
	// server-first (extensions included), final message without proof
	authMessage := bytes.Join([][]byte{c.clientFirstBare, challenge, withoutProof}, []byte{','})

	clientKey := c.suite.HMAC(saltedPassword, []byte("Client Key"))
	storedKey := c.suite.Digest(clientKey)
	clientSignature := c.suite.HMAC(storedKey, authMessage)
	proof := xorBytes(clientKey, clientSignature)

	serverKey := c.suite.HMAC(saltedPassword, []byte("Server Key"))
	c.serverSignature = c.suite.HMAC(serverKey, authMessage)

	// only the server signature is needed from here on
	wipe(saltedPassword)
	wipe(clientKey)
	wipe(storedKey)
	wipe(clientSignature)
	wipe(serverKey)

	final := append(withoutProof, ",p="...)
	final = append(final, base64.StdEncoding.EncodeToString(proof)...)
	wipe(proof)

	c.state = stateAwaitServerFinal
	return final, nil
}

func (c *Client) serverFinal(challenge []byte) error {
	sf, err := parseServerFinal(string(challenge))
	if err != nil {
		return c.fail("bad-challenge")
	}
	if sf.err != "" {
		return c.fail("scram-" + sf.err)
	}
	if !hmac.Equal(sf.verifier, c.serverSignature) {
		return c.fail("bad-succes")
	}
	c.state = stateFinished
	c.wipeSecrets()
	return nil
}

// Finish confirms mutual authentication once the outer protocol reports
// overall success. When the deployment folds the server-final-message into
// the success signal, data carries it and the verifier check runs here.
func (c *Client) Finish(data []byte) (*sasl.Success, error) {
	switch c.state {
	case stateFinished:
		return &sasl.Success{Username: c.username, Authzid: c.authzid}, nil
	case stateAwaitServerFinal:
		if err := c.serverFinal(data); err != nil {
			return nil, err
		}
		return &sasl.Success{Username: c.username, Authzid: c.authzid}, nil
	default:
		// success before the server ever sent a challenge
		return nil, &sasl.Failure{Reason: "bad-success"}
	}
}

func (c *Client) fail(reason string) error {
	c.state = stateFailed
	c.wipeSecrets()
	return &sasl.Failure{Reason: reason}
}

func (c *Client) wipeSecrets() {
	wipe(c.password)
	wipe(c.serverSignature)
	c.password = nil
	c.serverSignature = nil
}

// bindingType picks which channel-binding type to offer: tls-unique if the
// channel exports it, then tls-server-end-point, then whatever else is there.
func bindingType(cb map[string][]byte) string {
	if len(cb["tls-unique"]) > 0 {
		return "tls-unique"
	}
	if len(cb["tls-server-end-point"]) > 0 {
		return "tls-server-end-point"
	}
	keys := make([]string, 0, len(cb))
	for k := range cb {
		if len(cb[k]) > 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return ""
	}
	sort.Strings(keys)
	return keys[0]
}

// defaultNonce returns the base64 encoding of 24 bytes from crypto/rand,
// which is already within the value charset.
func defaultNonce() []byte {
	raw := make([]byte, 24)
	rand.Read(raw)
	nonce := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(nonce, raw)
	return nonce
}
