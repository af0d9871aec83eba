package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	protocolEnvVar   = "PROTOCOL"
	hostEnvVar       = "HOST"
	portEnvVar       = "PORT"
	listenPortEnvVar = "LISTEN_PORT"
	appNameVar       = "APP_NAME"
	logLevelVar      = "LOG_LEVEL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

// GetPort returns the address the local UI listens on. LISTEN_PORT wins over PORT
// so the UI can sit behind a proxy that owns the public port.
func (EnvVars) GetPort() string {
	port := GetEnv(listenPortEnvVar, GetEnv(portEnvVar, "4200"))
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Pod Demo")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetFrontendURL is the public address of this application, used as the
// redirect target of the consent flow (e.g., "http://localhost:4200").
func (EnvVars) GetFrontendURL() string {
	protocol := os.Getenv(protocolEnvVar)
	host := os.Getenv(hostEnvVar)
	port := os.Getenv(portEnvVar)
	if protocol == "" || host == "" {
		return ""
	}
	if port == "" {
		return fmt.Sprintf("%s://%s", protocol, host)
	}
	return fmt.Sprintf("%s://%s:%s", protocol, host, port)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadDotEnv reads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("[config LoadDotEnv] %s: %w", path, err)
		}
	}
	return nil
}
