package config

type OAuthConfig interface {
	GetOIDCIssuer() string
	GetOIDCClientID() string
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

// GetOIDCIssuer is the identity provider that issued the session's ID token.
// Empty disables signature verification of the ID token.
func (OAuth) GetOIDCIssuer() string {
	return GetEnv("OIDC_ISSUER", "")
}

func (OAuth) GetOIDCClientID() string {
	return GetEnv("OIDC_CLIENT_ID", "")
}
