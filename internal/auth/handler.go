package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kukiwrite/kukiwrite/internal/api"
	"github.com/kukiwrite/kukiwrite/internal/users"
)

// ReferralRecorder credits a new account to the owner of a referral code.
type ReferralRecorder interface {
	Attribute(ctx context.Context, code string, referredID uuid.UUID) error
}

type Handler struct {
	authSvc   *Service
	userSvc   *users.Service
	referrals ReferralRecorder
	validate  *validator.Validate
}

func NewHandler(authSvc *Service, userSvc *users.Service) *Handler {
	return &Handler{
		authSvc:  authSvc,
		userSvc:  userSvc,
		validate: validator.New(),
	}
}

// WithReferrals makes Register honour referral_code.
func (h *Handler) WithReferrals(rec ReferralRecorder) *Handler {
	h.referrals = rec
	return h
}

type RegisterRequest struct {
	Name         string `json:"name" validate:"max=255"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	ReferralCode string `json:"referral_code" validate:"max=20"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=255"`
	Image    *string `json:"image" validate:"omitempty,url,max=2048"`
	Phone    *string `json:"phone" validate:"omitempty,max=50"`
	Headline *string `json:"headline" validate:"omitempty,max=255"`
	Bio      *string `json:"bio" validate:"omitempty,max=2000"`
}

// decode reads and validates the body into dst, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return false
	}
	return true
}

func (h *Handler) issueTokens(w http.ResponseWriter, r *http.Request, status int, user *users.User) {
	tokens, err := h.authSvc.GenerateTokens(r.Context(), user.ID.String(), user.Email)
	if err != nil {
		slog.Error("generating tokens", "error", err, "user_id", user.ID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	api.JSON(w, status, tokens)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	exists, err := h.userSvc.ExistsByEmail(r.Context(), req.Email)
	if err != nil {
		slog.Error("checking email existence", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if exists {
		api.HandleError(w, api.ErrEmailAlreadyExists)
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		slog.Error("hashing password", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	user, err := h.userSvc.Create(r.Context(), req.Email, req.Name, hash)
	switch {
	case errors.Is(err, users.ErrEmailTaken):
		api.HandleError(w, api.ErrEmailAlreadyExists)
		return
	case err != nil:
		slog.Error("creating user", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	slog.Info("user registered", "user_id", user.ID)
	if req.ReferralCode != "" && h.referrals != nil {
		// An unknown or stale code never blocks sign-up.
		if err := h.referrals.Attribute(r.Context(), req.ReferralCode, user.ID); err != nil {
			slog.Warn("recording referral", "error", err, "user_id", user.ID)
		}
	}
	h.issueTokens(w, r, http.StatusCreated, user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.userSvc.GetByEmail(r.Context(), req.Email)
	if err != nil {
		slog.Error("getting user by email", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	// Unknown email and wrong password answer identically.
	if user == nil || ComparePassword(user.PasswordHash, req.Password) != nil {
		api.HandleError(w, api.ErrInvalidCredentials)
		return
	}

	h.issueTokens(w, r, http.StatusOK, user)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.decode(w, r, &req) {
		return
	}

	tokens, err := h.authSvc.RefreshTokens(r.Context(), req.RefreshToken)
	if err != nil {
		if !errors.Is(err, ErrInvalidToken) && !errors.Is(err, ErrRefreshRevoked) {
			slog.Error("refreshing tokens", "error", err)
		}
		api.HandleError(w, api.ErrInvalidToken)
		return
	}

	api.JSON(w, http.StatusOK, tokens)
}

// Logout revokes every refresh token of the caller. Access tokens stay valid
// until they expire.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(w, r)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(r.Context(), userID.String()); err != nil {
		slog.Error("logging out", "error", err, "user_id", userID)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	api.JSONMessage(w, http.StatusOK, "logged out successfully")
}

func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(w, r)
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(r.Context(), userID)
	h.writeUser(w, user, err)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := CurrentUserID(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.userSvc.UpdateProfile(r.Context(), userID, users.ProfileUpdate{
		Name:     req.Name,
		Image:    req.Image,
		Phone:    req.Phone,
		Headline: req.Headline,
		Bio:      req.Bio,
	})
	h.writeUser(w, user, err)
}

func (h *Handler) writeUser(w http.ResponseWriter, user *users.User, err error) {
	switch {
	case err != nil:
		slog.Error("loading profile", "error", err)
		api.HandleError(w, api.ErrInternalServer)
	case user == nil:
		api.HandleError(w, api.NewNotFoundError("user not found"))
	default:
		api.JSON(w, http.StatusOK, user)
	}
}

// CurrentUserID resolves the authenticated user or writes a 401 and returns false.
func CurrentUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	claims := GetUserClaims(r.Context())
	if claims == nil {
		api.HandleError(w, api.ErrUnauthorized)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		api.HandleError(w, api.ErrUnauthorized)
		return uuid.Nil, false
	}
	return id, true
}
