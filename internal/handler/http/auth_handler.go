package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/siriwatk/bookstore-backend/internal/auth"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Address   string `json:"address" validate:"required"`
}

type AuthUserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

type AuthHandler struct {
	service      auth.Service
	tokens       *auth.TokenManager
	validate     *validator.Validate
	cookieSecure bool
}

func NewAuthHandler(service auth.Service, tokens *auth.TokenManager, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		service:      service,
		tokens:       tokens,
		validate:     validator.New(),
		cookieSecure: cookieSecure,
	}
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	_, err := h.service.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailExists) {
			respondWithError(w, http.StatusConflict, "This email is already registered")
			return
		}
		log.Error().Err(err).Msg("Failed to register user")
		respondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "Register successful"})
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	u, pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		log.Error().Err(err).Msg("Failed to log user in")
		respondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	h.setAccessCookie(w, pair.AccessToken)
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     refreshCookiePath,
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"user":    AuthUserResponse{ID: u.ID, Email: u.Email, Role: u.Role},
	})
}

func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshTokenCookie)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, "No refresh token")
		return
	}

	accessToken, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		if errors.Is(err, auth.ErrTokenRevoked) || errors.Is(err, auth.ErrInvalidToken) {
			h.clearAuthCookies(w)
			respondWithError(w, http.StatusForbidden, "Invalid refresh token")
			return
		}
		log.Error().Err(err).Msg("Failed to refresh access token")
		respondWithError(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	h.setAccessCookie(w, accessToken)
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed"})
}

func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
			log.Error().Err(err).Msg("Failed to revoke refresh token on logout")
		}
	}

	h.clearAuthCookies(w)
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Logout success"})
}

func (h *AuthHandler) HandleAuthInfo(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	u, err := h.service.GetUserByID(r.Context(), principal.UserID)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "Failed to get user")
		return
	}

	respondWithJSON(w, http.StatusOK, AuthUserResponse{ID: u.ID, Email: u.Email, Role: u.Role})
}

func (h *AuthHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	profile, err := h.service.GetProfile(r.Context(), principal.UserID)
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "Failed to get profile")
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

func (h *AuthHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	err := h.service.UpdateProfile(r.Context(), principal.UserID, auth.Profile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
	})
	if err != nil {
		respondWithError(w, mapErrorToStatusCode(err), "Failed to update profile")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Profile updated"})
}

func (h *AuthHandler) setAccessCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.tokens.AccessTTL()),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: accessTokenCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: refreshTokenCookie, Value: "", Path: refreshCookiePath, MaxAge: -1, HttpOnly: true})
}
