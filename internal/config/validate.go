package config

import (
	"fmt"
	"os"
	"strings"

	apperrors "github.com/jrsteele09/go-pod-app/internal/errors"
)

// RequiredEnvVars must all be set and non-empty before the application starts.
var RequiredEnvVars = []string{
	protocolEnvVar,
	hostEnvVar,
	portEnvVar,
	backendURLVar,
	amaURLVar,
	amaConsentPathVar,
}

// Validate reports every missing or empty required environment variable in one error.
func Validate() error {
	var missing []string
	for _, key := range RequiredEnvVars {
		if strings.TrimSpace(os.Getenv(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing or empty environment variables: %s", apperrors.ErrConfiguration, strings.Join(missing, ", "))
	}
	return nil
}
