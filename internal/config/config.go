package config

import "time"

type Config interface {
	EnvConfig
	ClientConfig
	StoreConfig
	DevServerConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
}

// ClientConfig drives the request gate and the refresh exchange.
type ClientConfig interface {
	GetAPIBaseURL() string
	GetRefreshPath() string
	GetLoginPath() string
	GetRegisterPath() string
	GetSafetyMargin() time.Duration
	GetRefreshTimeout() time.Duration
	GetHTTPTimeout() time.Duration
}

// StoreConfig selects and configures the durable credential store.
type StoreConfig interface {
	GetCredentialStore() string
	GetCredentialFile() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisKeyPrefix() string
	GetProfile() string
}

type DevServerConfig interface {
	GetPort() string
	GetSigningSecret() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
	GetRotateRefreshTokens() bool
}

type mainConfig struct {
	EnvVars
	Client
	Store
	DevServer
}

func New() Config {
	return mainConfig{}
}
