package authapi

// TokenPair is returned by the login and registration endpoints and, with only
// AccessToken set unless rotation is enabled, by the refresh endpoint.
type TokenPair struct {
	// AccessToken is the short-lived signed token sent as
	// "Authorization: Bearer <access_token>" on every API call.
	AccessToken string `json:"accessToken"`

	// RefreshToken is the long-lived signed token used solely against the
	// refresh endpoint. Empty in a refresh response means "keep the current one".
	RefreshToken string `json:"refreshToken,omitempty"`
}

// RefreshRequest is the body of POST /open/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LoginRequest is the body of POST /open/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /open/register. New accounts are guests.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// ErrorResponse is the backend's error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
