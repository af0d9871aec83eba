// Package identity reads the claims of the ID token the backend exposes in
// the session information, optionally verifying it against the issuer.
package identity

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-pod-app/internal/errors"
)

// Claims are the identity facts the UI shows about the logged in user.
type Claims struct {
	Subject   string    `json:"sub"`
	WebID     string    `json:"webid,omitempty"`
	Issuer    string    `json:"iss"`
	Audience  []string  `json:"aud,omitempty"`
	ExpiresAt time.Time `json:"exp"`
	Verified  bool      `json:"verified"`
}

// ParseUnverified decodes the ID token without checking its signature.
func ParseUnverified(rawIDToken string) (*Claims, error) {
	token, _, err := jwtlib.NewParser().ParseUnverified(rawIDToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("[identity ParseUnverified] %w: %v", apperrors.ErrParse, err)
	}
	mapClaims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, fmt.Errorf("[identity ParseUnverified] %w: unexpected claims type", apperrors.ErrParse)
	}

	claims := &Claims{}
	claims.Subject, _ = mapClaims.GetSubject()
	claims.Issuer, _ = mapClaims.GetIssuer()
	if aud, err := mapClaims.GetAudience(); err == nil {
		claims.Audience = aud
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if webID, ok := mapClaims["webid"].(string); ok {
		claims.WebID = webID
	}
	claims.WebID = webIDOrSubject(claims.WebID, claims.Subject)
	return claims, nil
}

// webIDOrSubject falls back to the subject when it is itself a WebID.
func webIDOrSubject(webID, subject string) string {
	if webID != "" {
		return webID
	}
	if u, err := url.Parse(subject); err == nil && (u.Scheme == "https" || u.Scheme == "http") && u.Host != "" {
		return subject
	}
	return ""
}

// Verifier checks ID token signatures against an OIDC issuer.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers the issuer's keys. An empty clientID skips the audience check.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	if issuer == "" {
		return nil, errors.New("[identity NewVerifier] issuer is required")
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("[identity NewVerifier] failed to create OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(verifierConfig(clientID))}, nil
}

// NewStaticVerifier verifies against fixed public keys instead of discovery.
func NewStaticVerifier(issuer, clientID string, keys ...crypto.PublicKey) *Verifier {
	keySet := &oidc.StaticKeySet{PublicKeys: keys}
	return &Verifier{verifier: oidc.NewVerifier(issuer, keySet, verifierConfig(clientID))}
}

func verifierConfig(clientID string) *oidc.Config {
	return &oidc.Config{
		ClientID:          clientID,
		SkipClientIDCheck: clientID == "",
	}
}

// Verify checks the signature, issuer, audience and expiry of rawIDToken.
func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (*Claims, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("[identity Verify] ID token verification failed: %w", err)
	}
	var extra struct {
		WebID string `json:"webid"`
	}
	if err := idToken.Claims(&extra); err != nil {
		return nil, fmt.Errorf("[identity Verify] %w: %v", apperrors.ErrParse, err)
	}
	return &Claims{
		Subject:   idToken.Subject,
		WebID:     webIDOrSubject(extra.WebID, idToken.Subject),
		Issuer:    idToken.Issuer,
		Audience:  idToken.Audience,
		ExpiresAt: idToken.Expiry,
		Verified:  true,
	}, nil
}

// Resolve verifies rawIDToken when v is configured and falls back to an unverified read otherwise.
func Resolve(ctx context.Context, v *Verifier, rawIDToken string) (*Claims, error) {
	if rawIDToken == "" {
		return nil, fmt.Errorf("[identity Resolve] %w: session carries no ID token", apperrors.ErrNoSession)
	}
	if v == nil {
		return ParseUnverified(rawIDToken)
	}
	return v.Verify(ctx, rawIDToken)
}
