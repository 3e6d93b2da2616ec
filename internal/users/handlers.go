package users

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/taskhive/taskhive/internal/apperrors"
	"github.com/taskhive/taskhive/internal/auth"
	"github.com/taskhive/taskhive/internal/validation"
)

// RegisterRequest is the payload for POST /api/v1/auth/register
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest is the payload for POST /api/v1/auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse carries the bearer token issued on register/login.
type SessionResponse struct {
	Token string `json:"token"`
	User  Public `json:"user"`
}

// HandleRegister handles POST /api/v1/auth/register
func HandleRegister(service *Service, jwtSecret string, sessionDays int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := validation.DecodeJSONBody(r, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		user, err := service.Register(r.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, ErrEmailTaken) {
				apperrors.WriteConflict(w, r, "Email address already registered")
				return
			}
			log.Error().Err(err).Msg("Failed to register user")
			apperrors.WriteInternalError(w, r, "Failed to create account")
			return
		}

		token, err := auth.CreateToken(user.ID, jwtSecret, sessionDays)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create session token")
			apperrors.WriteInternalError(w, r, "Failed to create session")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusCreated, SessionResponse{
			Token: token,
			User:  user.Public(),
		})
	}
}

// HandleLogin handles POST /api/v1/auth/login
func HandleLogin(service *Service, jwtSecret string, sessionDays int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := validation.DecodeJSONBody(r, &req); err != nil {
			apperrors.WriteBadRequest(w, r, err.Error())
			return
		}

		user, err := service.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInactive) {
				apperrors.WriteUnauthorized(w, r, "Invalid email or password")
				return
			}
			log.Error().Err(err).Msg("Failed to authenticate user")
			apperrors.WriteInternalError(w, r, "Failed to log in")
			return
		}

		token, err := auth.CreateToken(user.ID, jwtSecret, sessionDays)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create session token")
			apperrors.WriteInternalError(w, r, "Failed to create session")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, SessionResponse{
			Token: token,
			User:  user.Public(),
		})
	}
}

// HandleMe handles GET /api/v1/auth/me
func HandleMe(service *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.GetUserID(r.Context())

		user, err := service.GetByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				apperrors.WriteUnauthorized(w, r, "Account no longer exists")
				return
			}
			log.Error().Err(err).Msg("Failed to load user")
			apperrors.WriteInternalError(w, r, "Failed to load account")
			return
		}

		apperrors.WriteSuccess(w, r, http.StatusOK, map[string]any{
			"user": user.Public(),
		})
	}
}
