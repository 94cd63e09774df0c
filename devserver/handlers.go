package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/hotel-session/authapi"
)

const maxRequestBytes = 1 << 16

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.LoginRequest
		if !decodeBody(w, r, &req) {
			return
		}

		user, err := s.directory.Authenticate(req.Email, req.Password)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
			return
		}
		s.issuePair(w, user)
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req authapi.RegisterRequest
		if !decodeBody(w, r, &req) {
			return
		}

		if !strings.Contains(req.Email, "@") {
			writeError(w, http.StatusBadRequest, "invalid_request", "a valid email is required")
			return
		}
		if err := ValidatePasswordStrength(req.Password); err != nil {
			writeError(w, http.StatusBadRequest, "weak_password", err.Error())
			return
		}

		// Self-registration only ever creates guests.
		user, err := s.directory.Add(&User{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Role:      RoleGuest,
		}, req.Password)
		if errors.Is(err, ErrUserExists) {
			writeError(w, http.StatusConflict, "user_exists", err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", "failed to register user")
			return
		}

		s.log.Info().Str("subject", user.ID).Msg("guest registered")
		s.issuePair(w, user)
	}
}

// RefreshHandler exchanges a refresh token for a new access token, and a new
// refresh token as well when rotation is on.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.refreshCount.Add(1)

		var req authapi.RefreshRequest
		if !decodeBody(w, r, &req) {
			s.refreshes.WithLabelValues("bad_request").Inc()
			return
		}

		claims, err := s.issuer.Verify(req.RefreshToken, TypeRefresh)
		if err != nil {
			s.refreshes.WithLabelValues("rejected").Inc()
			s.log.Debug().Err(err).Msg("refresh token rejected")
			writeError(w, http.StatusUnauthorized, "invalid_token", "refresh token is invalid or expired")
			return
		}

		user, err := s.directory.GetByID(claims.Subject)
		if err != nil || user.Blocked {
			s.refreshes.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusUnauthorized, "invalid_token", "unknown or blocked user")
			return
		}

		access, err := s.issuer.Issue(user, TypeAccess)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server_error", "failed to issue token")
			return
		}
		resp := authapi.TokenPair{AccessToken: access}
		if s.rotate {
			if resp.RefreshToken, err = s.issuer.Issue(user, TypeRefresh); err != nil {
				writeError(w, http.StatusInternalServerError, "server_error", "failed to issue token")
				return
			}
		}

		s.refreshes.WithLabelValues("issued").Inc()
		writeJSON(w, http.StatusOK, resp)
	}
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Role      string `json:"role"`
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing claims")
			return
		}
		user, err := s.directory.GetByID(claims.Subject)
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, MeResponse{
			ID:        user.ID,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Role:      claims.Role,
		})
	}
}

func (s *Server) issuePair(w http.ResponseWriter, user *User) {
	pair, err := s.issuer.IssuePair(user)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to issue token pair")
		writeError(w, http.StatusInternalServerError, "server_error", "failed to issue tokens")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, authapi.ErrorResponse{Error: code, Message: message})
}
