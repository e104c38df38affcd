// Package sogsauth signs HTTP requests to community (SOGS) servers.
//
// The signed message is
//
//	serverPK || nonce || timestamp || method || path [|| BLAKE2b-512(body)]
//
// and is signed either with the plain Ed25519 identity key (pubkey header
// "00" + hex) or with the key blinded for the server ("15" + hex).
package sogsauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/relves/groupsig/pkg/edcrypto"
	"github.com/relves/groupsig/pkg/nettime"
	"github.com/relves/groupsig/pkg/precondition"
	"github.com/relves/groupsig/pkg/signing"
	"github.com/relves/groupsig/pkg/types"
)

// Header names.
const (
	HeaderPubkey    = "X-SOGS-Pubkey"
	HeaderTimestamp = "X-SOGS-Timestamp"
	HeaderNonce     = "X-SOGS-Nonce"
	HeaderSignature = "X-SOGS-Signature"
)

// NonceSize is the length of the random request nonce.
const NonceSize = 16

const ctxSOGS = "sogsauth"

// Request describes one request to sign. Timestamp (seconds) and Nonce are
// filled in by the Authenticator when zero.
type Request struct {
	ServerPK  []byte
	Method    string
	Path      string
	Body      []byte
	Timestamp int64
	Nonce     []byte
	Blinded   bool
}

// Headers are the four authentication headers of a signed request.
type Headers struct {
	Pubkey    types.SessionID
	Timestamp string
	Nonce     string
	Signature string
}

// Apply sets the headers on h.
func (hd Headers) Apply(h http.Header) {
	h.Set(HeaderPubkey, hd.Pubkey.String())
	h.Set(HeaderTimestamp, hd.Timestamp)
	h.Set(HeaderNonce, hd.Nonce)
	h.Set(HeaderSignature, hd.Signature)
}

// Authenticator signs requests for one identity.
type Authenticator struct {
	provider edcrypto.Provider
	identity edcrypto.Identity
	clock    nettime.Clock
	rand     io.Reader
}

// NewAuthenticator creates an Authenticator. A nil clock uses a fresh
// network clock with no offset.
func NewAuthenticator(p edcrypto.Provider, id edcrypto.Identity, clock nettime.Clock) *Authenticator {
	if clock == nil {
		clock = nettime.NewNetworkClock(nil)
	}
	return &Authenticator{provider: p, identity: id, clock: clock, rand: rand.Reader}
}

// Sign computes the authentication headers for req.
func (a *Authenticator) Sign(req Request) (Headers, error) {
	if err := precondition.CheckLength(req.ServerPK, edcrypto.PointSize, "serverPK", ctxSOGS); err != nil {
		return Headers{}, err
	}
	if err := precondition.CheckNotEmpty(req.Method, "method", ctxSOGS); err != nil {
		return Headers{}, err
	}
	if err := precondition.CheckNotEmpty(req.Path, "path", ctxSOGS); err != nil {
		return Headers{}, err
	}

	nonce := req.Nonce
	if nonce == nil {
		nonce = make([]byte, NonceSize)
		if _, err := io.ReadFull(a.rand, nonce); err != nil {
			return Headers{}, fmt.Errorf("failed to generate nonce: %w", err)
		}
	}
	if err := precondition.CheckLength(nonce, NonceSize, "nonce", ctxSOGS); err != nil {
		return Headers{}, err
	}
	ts := req.Timestamp
	if ts == 0 {
		ts = nettime.NowSeconds(a.clock)
	}
	tsText := strconv.FormatInt(ts, 10)

	var (
		signer signing.Signer
		pubkey types.SessionID
	)
	if req.Blinded {
		bs, err := signing.NewBlindedSigner(a.provider, a.identity, req.ServerPK)
		if err != nil {
			return Headers{}, err
		}
		signer, pubkey = bs, bs.SessionID()
	} else {
		signer = signing.NewStandardSigner(a.provider, a.identity)
		pubkey = types.NewSessionID(types.PrefixUnblinded, a.identity.Public[:])
	}

	msg := make([]byte, 0, len(req.ServerPK)+len(nonce)+len(tsText)+len(req.Method)+len(req.Path)+edcrypto.HashSize)
	msg = append(msg, req.ServerPK...)
	msg = append(msg, nonce...)
	msg = append(msg, tsText...)
	msg = append(msg, req.Method...)
	msg = append(msg, req.Path...)
	if len(req.Body) > 0 {
		h := a.provider.GenericHash512(req.Body)
		msg = append(msg, h[:]...)
	}

	sig, err := signer.Sign(msg)
	if err != nil {
		return Headers{}, fmt.Errorf("sign request: %w", err)
	}

	return Headers{
		Pubkey:    pubkey,
		Timestamp: tsText,
		Nonce:     base64.StdEncoding.EncodeToString(nonce),
		Signature: base64.StdEncoding.EncodeToString(sig),
	}, nil
}
