package config

import (
	"os"
	"path/filepath"
)

const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

type Store struct{}

var _ StoreConfig = Store{}

func (Store) GetCredentialStore() string {
	return GetEnv("CREDENTIAL_STORE", StoreFile)
}

// GetCredentialFile defaults to a file under the user's home directory, which
// plays the role of the browser profile.
func (Store) GetCredentialFile() string {
	if f := os.Getenv("CREDENTIAL_FILE"); f != "" {
		return f
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".hotelsession", "credentials.json")
}

func (Store) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Store) GetRedisPassword() string {
	return GetEnv("REDIS_PASSWORD", "")
}

func (Store) GetRedisDB() int {
	return GetIntEnv("REDIS_DB", 0)
}

func (Store) GetRedisKeyPrefix() string {
	return GetEnv("REDIS_KEY_PREFIX", "hotelsession")
}

func (Store) GetProfile() string {
	return GetEnv("PROFILE", "default")
}
