package config

import "time"

type SecurityConfig interface {
	GetRequestTimeout() time.Duration
	GetShutdownTimeout() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetRequestTimeout bounds every call to the backend. REQUEST_TIMEOUT takes a
// Go duration string ("10s", "1m").
func (Security) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(GetEnv("REQUEST_TIMEOUT", "15s"))
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

func (Security) GetShutdownTimeout() time.Duration {
	return 5 * time.Second
}
