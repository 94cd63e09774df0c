package credstore

import "context"

// Storage keys, shared by every backend so a stored profile is recognisable
// whichever store wrote it.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Store persists the current credential pair for one device profile.
// An empty string returned from Load means the entry is absent.
type Store interface {
	// Save overwrites both entries. No reader observes only one of them updated.
	Save(ctx context.Context, access, refresh string) error

	// Load returns whatever is present. Absence of either entry is not an error.
	Load(ctx context.Context) (access, refresh string, err error)

	// Clear removes both entries. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
