package jwks_testutil

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	"github.com/legacy-registry/profile-api/internal/platform/auth/jwtissuer"
)

type Keypair = jwtissuer.Keypair

func GenerateRSAKeypair(kid string) (Keypair, error) {
	return jwtissuer.GenerateRSAKeypair(kid)
}

// NewRotatingJWKSServer returns a JWKS server whose key set can be swapped at runtime.
//
// Use SetKeys to rotate keys.
func NewRotatingJWKSServer() (*httptest.Server, func(keys []Keypair)) {
	var doc atomic.Value // []byte
	doc.Store([]byte(`{"keys":[]}`))

	setKeys := func(keys []Keypair) {
		b, err := jwtissuer.MarshalJWKS(keys...)
		if err != nil {
			panic(err)
		}
		doc.Store(b)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc.Load().([]byte))
	}))
	return srv, setKeys
}

// MintRS256JWT creates a signed token for sub. nbfDelta, when set, adds an nbf claim relative to now.
func MintRS256JWT(kp Keypair, iss string, aud string, sub string, now time.Time, expDelta time.Duration, nbfDelta *time.Duration) (string, error) {
	spec := jwtissuer.TokenSpec{
		Issuer:   iss,
		Audience: []string{aud},
		Subject:  sub,
		IssuedAt: now,
		TTL:      expDelta,
	}
	if nbfDelta != nil {
		spec.NotBefore = now.Add(*nbfDelta)
	}
	return jwtissuer.Mint(kp, spec)
}
