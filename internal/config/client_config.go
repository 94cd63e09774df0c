package config

import (
	"strings"
	"time"
)

// DefaultSafetyMargin forces a proactive refresh slightly before true expiry.
const DefaultSafetyMargin = 5 * time.Second

type Client struct{}

var _ ClientConfig = Client{}

// GetAPIBaseURL returns the hotel backend base URL without a trailing slash
func (Client) GetAPIBaseURL() string {
	return strings.TrimRight(GetEnv("API_BASE_URL", "http://localhost:8080"), "/")
}

func (Client) GetRefreshPath() string {
	return GetEnv("REFRESH_PATH", "/open/refresh")
}

func (Client) GetLoginPath() string {
	return GetEnv("LOGIN_PATH", "/open/login")
}

func (Client) GetRegisterPath() string {
	return GetEnv("REGISTER_PATH", "/open/register")
}

func (Client) GetSafetyMargin() time.Duration {
	return GetDurationEnv("SAFETY_MARGIN", DefaultSafetyMargin)
}

func (Client) GetRefreshTimeout() time.Duration {
	return GetDurationEnv("REFRESH_TIMEOUT", 10*time.Second)
}

func (Client) GetHTTPTimeout() time.Duration {
	return GetDurationEnv("HTTP_TIMEOUT", 30*time.Second)
}
