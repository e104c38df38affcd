package sogsauth

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relves/groupsig/pkg/edcrypto"
	"github.com/relves/groupsig/pkg/nettime"
	"github.com/relves/groupsig/pkg/precondition"
	"github.com/relves/groupsig/pkg/types"
)

const (
	testSeedHex   = "c010d89eccbaf5d1c6d19df766c6eedf965d4a28a56f87c9fc819edb59896dd9"
	testServerHex = "c3b3c6f32f0ab5a57f853cc4f30f5da7fda5624b0c77b3fb0829de562ada081d"
	testNonceHex  = "09d0799f2295990182c3ab3406fbfc5b"
	testPath      = "/room/the-best-room/messages/recent?limit=25"
	testBody      = "This is a test message body 12345"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func newTestAuthenticator(t *testing.T) *Authenticator {
	t.Helper()
	id, err := edcrypto.IdentityFromSeed(mustHex(t, testSeedHex))
	require.NoError(t, err)
	return NewAuthenticator(edcrypto.Default(), id, nettime.FixedClock{T: time.Unix(1642472103, 0)})
}

func TestSignKnownVectors(t *testing.T) {
	a := newTestAuthenticator(t)

	tests := []struct {
		name       string
		blinded    bool
		body       []byte
		wantPubkey types.SessionID
		wantSig    string
	}{
		{
			name:       "blinded",
			blinded:    true,
			wantPubkey: "1598932d4bccbe595a8789d7eb1629cefc483a0eaddc7e20e8fe5c771efafd9af5",
			wantSig:    "gYqpWZX6fnF4Gb2xQM3xaXs0WIYEI49+B8q4mUUEg8Rw0ObaHUWfoWjMHMArAtP9QlORfiydsKWz1o6zdPVeCQ==",
		},
		{
			name:       "unblinded",
			wantPubkey: "00bac6e71efd7dfa4a83c98ed24f254ab2c267f9ccdb172a5280a0444ad24e89cc",
			wantSig:    "xxLpXHbomAJMB9AtGMyqvBsXrdd2040y+Ol/IKzElWfKJa3EYZRv1GLO6CTLhrDFUwVQe8PPltyGs54Kd7O5Cg==",
		},
		{
			name:       "blinded with body",
			blinded:    true,
			body:       []byte(testBody),
			wantPubkey: "1598932d4bccbe595a8789d7eb1629cefc483a0eaddc7e20e8fe5c771efafd9af5",
			wantSig:    "Bs680K7t2VOmbiXNX+uIPa7dDWzxKQfLk8SxdGxe2wwadFQOr9KdAetVmVQ6w4MfyHOD6WiP0JAVb4Tb8I5lAA==",
		},
		{
			name:       "unblinded with body",
			body:       []byte(testBody),
			wantPubkey: "00bac6e71efd7dfa4a83c98ed24f254ab2c267f9ccdb172a5280a0444ad24e89cc",
			wantSig:    "2w9zMiGPqa3RApSpVbL0zhh7cUd6Z9skbZlf2XqyDTND2aDadGOAcKpXANcOSA+zi+kmgP8+zVkDdz0JOiB1Cw==",
		},
		{
			name:       "blinded with utf8 body",
			blinded:    true,
			body:       []byte("hello 🎂"),
			wantPubkey: "1598932d4bccbe595a8789d7eb1629cefc483a0eaddc7e20e8fe5c771efafd9af5",
			wantSig:    "hZCg5pEoy9t98umaY6fNarzcLP5UKUF8chz5mIjwwrRIQLy1kinRoYcNPdFOpJu8heA0val4viymXRTp1DGeBg==",
		},
		{
			name:       "unblinded with utf8 body",
			body:       []byte("hello 🎂"),
			wantPubkey: "00bac6e71efd7dfa4a83c98ed24f254ab2c267f9ccdb172a5280a0444ad24e89cc",
			wantSig:    "uumZNee7NUb0lVufegjzgjjnj4pe3kAe6OYw7iVTJrcxxxdIxUCgt5/xliBWqPlgY6ReUZRAuptNa4nprv7nCA==",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := a.Sign(Request{
				ServerPK:  mustHex(t, testServerHex),
				Method:    http.MethodGet,
				Path:      testPath,
				Body:      tt.body,
				Timestamp: 1642472103,
				Nonce:     mustHex(t, testNonceHex),
				Blinded:   tt.blinded,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPubkey, h.Pubkey)
			assert.Equal(t, "1642472103", h.Timestamp)
			assert.Equal(t, "CdB5nyKVmQGCw6s0Bvv8Ww==", h.Nonce)
			assert.Equal(t, tt.wantSig, h.Signature)
		})
	}
}

func TestSignDefaults(t *testing.T) {
	a := newTestAuthenticator(t)
	a.rand = bytes.NewReader(mustHex(t, testNonceHex))

	h, err := a.Sign(Request{
		ServerPK: mustHex(t, testServerHex),
		Method:   http.MethodGet,
		Path:     testPath,
		Blinded:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "1642472103", h.Timestamp)
	assert.Equal(t, "CdB5nyKVmQGCw6s0Bvv8Ww==", h.Nonce)
	assert.Equal(t, "gYqpWZX6fnF4Gb2xQM3xaXs0WIYEI49+B8q4mUUEg8Rw0ObaHUWfoWjMHMArAtP9QlORfiydsKWz1o6zdPVeCQ==", h.Signature)

	hdr := http.Header{}
	h.Apply(hdr)
	assert.Equal(t, h.Pubkey.String(), hdr.Get(HeaderPubkey))
	assert.Equal(t, h.Signature, hdr.Get(HeaderSignature))
}

func TestSignRandomNonce(t *testing.T) {
	a := newTestAuthenticator(t)
	req := Request{ServerPK: mustHex(t, testServerHex), Method: http.MethodPost, Path: "/x"}

	h1, err := a.Sign(req)
	require.NoError(t, err)
	h2, err := a.Sign(req)
	require.NoError(t, err)
	assert.NotEqual(t, h1.Nonce, h2.Nonce)

	raw, err := base64.StdEncoding.DecodeString(h1.Nonce)
	require.NoError(t, err)
	assert.Len(t, raw, NonceSize)
}

func TestSignPreconditions(t *testing.T) {
	a := newTestAuthenticator(t)

	_, err := a.Sign(Request{ServerPK: make([]byte, 31), Method: "GET", Path: "/"})
	assert.ErrorIs(t, err, precondition.ErrCryptoPrecondition)

	_, err = a.Sign(Request{ServerPK: mustHex(t, testServerHex), Path: "/"})
	assert.ErrorIs(t, err, precondition.ErrMissingField)

	_, err = a.Sign(Request{ServerPK: mustHex(t, testServerHex), Method: "GET", Path: "/", Nonce: []byte{1, 2}})
	assert.ErrorIs(t, err, precondition.ErrCryptoPrecondition)
}
