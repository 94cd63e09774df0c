package config

import (
	"fmt"
	"strings"
	"time"
)

type DevServer struct{}

var _ DevServerConfig = DevServer{}

func (DevServer) GetPort() string {
	port := GetEnv("PORT", "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

// GetSigningSecret is only meant for local development.
func (DevServer) GetSigningSecret() string {
	return GetEnv("SIGNING_SECRET", "dev-signing-secret-change-me")
}

func (DevServer) GetAccessTokenTTL() time.Duration {
	return GetDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute)
}

func (DevServer) GetRefreshTokenTTL() time.Duration {
	return GetDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour)
}

func (DevServer) GetRotateRefreshTokens() bool {
	return GetBoolEnv("ROTATE_REFRESH_TOKENS", false)
}
