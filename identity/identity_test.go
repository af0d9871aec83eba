package identity_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-pod-app/identity"
	apperrors "github.com/jrsteele09/go-pod-app/internal/errors"
	"github.com/stretchr/testify/require"
)

const (
	issuer   = "https://idp.example"
	clientID = "pod-demo"
	webID    = "https://id.example/alice/profile/card#me"
)

func signedToken(t *testing.T, key *rsa.PrivateKey, claims jwtlib.MapClaims) string {
	t.Helper()
	raw, err := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return raw
}

func baseClaims() jwtlib.MapClaims {
	return jwtlib.MapClaims{
		"iss":   issuer,
		"sub":   "user-1",
		"aud":   clientID,
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
		"webid": webID,
	}
}

func TestParseUnverified(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	t.Run("webid claim", func(t *testing.T) {
		claims, err := identity.ParseUnverified(signedToken(t, key, baseClaims()))
		require.NoError(t, err)
		require.Equal(t, "user-1", claims.Subject)
		require.Equal(t, webID, claims.WebID)
		require.Equal(t, issuer, claims.Issuer)
		require.Equal(t, []string{clientID}, claims.Audience)
		require.False(t, claims.Verified)
	})

	t.Run("subject used as webid when it is a URL", func(t *testing.T) {
		c := baseClaims()
		delete(c, "webid")
		c["sub"] = webID
		claims, err := identity.ParseUnverified(signedToken(t, key, c))
		require.NoError(t, err)
		require.Equal(t, webID, claims.WebID)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := identity.ParseUnverified("not.a.jwt")
		require.ErrorIs(t, err, apperrors.ErrParse)
	})
}

func TestStaticVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := identity.NewStaticVerifier(issuer, clientID, key.Public())

	t.Run("valid token", func(t *testing.T) {
		claims, err := v.Verify(context.Background(), signedToken(t, key, baseClaims()))
		require.NoError(t, err)
		require.True(t, claims.Verified)
		require.Equal(t, webID, claims.WebID)
	})

	t.Run("wrong key", func(t *testing.T) {
		_, err := v.Verify(context.Background(), signedToken(t, other, baseClaims()))
		require.Error(t, err)
	})

	t.Run("wrong audience", func(t *testing.T) {
		c := baseClaims()
		c["aud"] = "someone-else"
		_, err := v.Verify(context.Background(), signedToken(t, key, c))
		require.Error(t, err)
	})
}

func TestResolve(t *testing.T) {
	_, err := identity.Resolve(context.Background(), nil, "")
	require.ErrorIs(t, err, apperrors.ErrNoSession)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	claims, err := identity.Resolve(context.Background(), nil, signedToken(t, key, baseClaims()))
	require.NoError(t, err)
	require.False(t, claims.Verified)
}
