package config

type Config interface {
	EnvConfig
	BackendConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetFrontendURL() string
}

type BackendConfig interface {
	GetBackendURL() string
	GetConsentURL() string
	GetSessionCookie() string
	GetAccessToken() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Backend
	Cors
	OAuth
	Security
}

func New() Config {
	return mainConfig{}
}
