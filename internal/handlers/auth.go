package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/inkwell-blog/blogserver/internal/auth"
	"github.com/inkwell-blog/blogserver/internal/services"
	"github.com/inkwell-blog/blogserver/internal/store"
	"github.com/inkwell-blog/blogserver/types"
)

// AuthHandler provides registration, token, and profile endpoints.
type AuthHandler struct {
	userService *services.UserService
	issuer      *auth.Issuer
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(userService *services.UserService, issuer *auth.Issuer) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		issuer:      issuer,
	}
}

// TokenRouter registers the token endpoints on the given router.
func TokenRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/", handler.Token)
	r.Post("/refresh/", handler.RefreshToken)
}

// AuthRouter registers registration and profile routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Post("/register/", handler.Register)
	r.With(authMiddleware).Get("/profile/", handler.Profile)
	r.With(authMiddleware).Put("/profile/update/", handler.UpdateProfile)
	r.With(authMiddleware).Patch("/profile/update/", handler.UpdateProfile)
}

// RequireAuth validates the bearer credential on the request and injects
// the resolved user ID into the context.
func RequireAuth(issuer *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := auth.BearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			userID, err := issuer.ParseAccess(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), contextUserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type RegisterResponse struct {
	Message string       `json:"message"`
	User    types.Author `json:"user"`
}

type ProfileUpdateRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type ProfileUpdateResponse struct {
	Message string       `json:"message"`
	User    types.Author `json:"user"`
}

// Token verifies a username/password pair and returns an access/refresh
// credential pair.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.userService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err, "failed to authenticate")
		return
	}

	pair, err := h.issuer.IssuePair(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// RefreshToken exchanges a valid refresh credential for a new pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	userID, err := h.issuer.ParseRefresh(req.Refresh)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	// The account may have been disabled since the refresh token was issued.
	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to refresh token")
		return
	}
	if !user.Active {
		writeError(w, http.StatusUnauthorized, auth.ErrAccountDisabled.Error())
		return
	}

	pair, err := h.issuer.IssuePair(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.userService.Register(r.Context(), services.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeServiceError(w, err, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message: "user registered successfully",
		User:    user.Author(),
	})
}

// Profile returns the authenticated user's profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load user")
		return
	}

	writeJSON(w, http.StatusOK, user.Author())
}

// UpdateProfile applies a partial update to the authenticated user's
// profile. The username stays as registered.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ProfileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if req.Email != nil && strings.TrimSpace(*req.Email) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "validation failed",
			Fields: map[string]string{"email": "may not be blank"},
		})
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, services.ProfileUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		writeServiceError(w, err, "failed to update profile")
		return
	}

	writeJSON(w, http.StatusOK, ProfileUpdateResponse{
		Message: "profile updated successfully",
		User:    user.Author(),
	})
}
