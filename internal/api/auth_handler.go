package api

import (
	"net/http"

	"github.com/eulerhq/euler-api/internal/api/shared"
	"github.com/eulerhq/euler-api/internal/config"
	"github.com/eulerhq/euler-api/internal/service/auth"
)

// adminSubject is the token subject for the single admin credential.
const adminSubject = "admin"

// LoginRequest represents the request body for admin login
type LoginRequest struct {
	Password string `json:"password" validate:"required,min=1"`
}

// LoginResponse represents the response for a successful login
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	authConfig       config.AuthConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
	authConfig config.AuthConfig,
) *AuthHandler {
	return &AuthHandler{
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
		authConfig:       authConfig,
	}
}

// Login handles POST /auth/login requests. The API has a single admin
// credential configured as a bcrypt hash.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Password is required")
		return
	}

	if err := h.passwordVerifier.Compare(h.authConfig.AdminPasswordHash, req.Password); err != nil {
		RespondWithMappedError(w, r, auth.ErrInvalidCredentials)
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), adminSubject)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "Failed to generate token", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{AccessToken: token})
}
