// Package jwtissuer signs RS256 access tokens and publishes the matching JWKS.
// It backs the dev token server, the dev auth provider and tests; production tokens come from the hosted auth provider.
package jwtissuer

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type Keypair struct {
	Kid     string
	Private *rsa.PrivateKey
}

func GenerateRSAKeypair(kid string) (Keypair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return Keypair{}, err
	}
	return Keypair{Kid: kid, Private: priv}, nil
}

// Claims are the access token claims understood by the API.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

type TokenSpec struct {
	Issuer   string
	Audience []string
	Subject  string
	Email    string
	Name     string

	IssuedAt time.Time
	TTL      time.Duration
	// NotBefore is omitted from the token when zero.
	NotBefore time.Time
}

// Mint signs a token for spec with kp.
func Mint(kp Keypair, spec TokenSpec) (string, error) {
	if kp.Private == nil {
		return "", errors.New("jwtissuer: missing private key")
	}
	c := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    spec.Issuer,
			Subject:   spec.Subject,
			Audience:  jwt.ClaimStrings(spec.Audience),
			IssuedAt:  jwt.NewNumericDate(spec.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(spec.IssuedAt.Add(spec.TTL)),
		},
		Email: spec.Email,
		Name:  spec.Name,
	}
	if !spec.NotBefore.IsZero() {
		c.NotBefore = jwt.NewNumericDate(spec.NotBefore)
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, c)
	tok.Header["kid"] = kp.Kid
	return tok.SignedString(kp.Private)
}

type jwk struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// MarshalJWKS renders the public halves of keys as a JWKS document.
func MarshalJWKS(keys ...Keypair) ([]byte, error) {
	enc := base64.RawURLEncoding
	set := jwks{Keys: make([]jwk, 0, len(keys))}
	for _, kp := range keys {
		pub := kp.Private.PublicKey
		set.Keys = append(set.Keys, jwk{
			Kty: "RSA",
			Use: "sig",
			Alg: "RS256",
			Kid: kp.Kid,
			N:   enc.EncodeToString(pub.N.Bytes()),
			// e is a big-endian unsigned int.
			E: enc.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	return json.Marshal(set)
}
