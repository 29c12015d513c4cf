package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stream-user-service/internal/config"
	"github.com/iliyamo/stream-user-service/internal/middleware"
	"github.com/iliyamo/stream-user-service/internal/repository"
	"github.com/iliyamo/stream-user-service/internal/storage"
	"github.com/iliyamo/stream-user-service/internal/utils"
)

// AccountHandler serves the protected profile-mutation endpoints.  Every
// route here runs behind the request gate, so the account is read from the
// echo context rather than re-authenticated.
type AccountHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Media storage.Uploader
}

func NewAccountHandler(cfg config.Config, u *repository.UserRepo, m storage.Uploader) *AccountHandler {
	return &AccountHandler{Cfg: cfg, Users: u, Media: m}
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type updateAccountReq struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// CurrentUser returns the authenticated account as attached by the gate.
func (h *AccountHandler) CurrentUser(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized request"})
	}
	return c.JSON(http.StatusOK, u.PublicView())
}

// ChangePassword verifies the current password against the stored hash and
// replaces it with a hash of the new one.
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized request"})
	}

	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "current and new password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// The gate loads the scrubbed projection; credentials need a re-read.
	full, err := h.Users.GetWithCredentials(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if !utils.VerifyPassword(full.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "incorrect password"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change password failed"})
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change password failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

// UpdateAccount mutates the profile metadata fields (fullName, email).
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized request"})
	}

	var req updateAccountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" || req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fullName and email are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.UpdateDetails(ctx, u.ID, req.FullName, req.Email); err != nil {
		if err == repository.ErrUserExists {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update account failed"})
	}

	updated, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update account failed"})
	}
	return c.JSON(http.StatusOK, updated.PublicView())
}

// UpdateAvatar replaces the avatar image.
func (h *AccountHandler) UpdateAvatar(c echo.Context) error {
	return h.updateMedia(c, "avatar", h.Users.UpdateAvatar)
}

// UpdateCoverImage replaces the cover image.  Avatar and cover are
// independent columns updated by independent statements.
func (h *AccountHandler) UpdateCoverImage(c echo.Context) error {
	return h.updateMedia(c, "coverImage", h.Users.UpdateCoverImage)
}

// updateMedia implements the shared single-file upload flow: stage the
// multipart file, push it to the media bucket, persist the URL with the
// provided setter and return the refreshed scrubbed account.
func (h *AccountHandler) updateMedia(c echo.Context, field string, set func(context.Context, uint64, string) error) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized request"})
	}

	fh, err := c.FormFile(field)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": field + " file is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	url, err := h.upload(ctx, fh)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": field + " upload failed"})
	}
	if err := set(ctx, u.ID, url); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update " + field + " failed"})
	}

	updated, err := h.Users.GetByID(ctx, u.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update " + field + " failed"})
	}
	return c.JSON(http.StatusOK, updated.PublicView())
}

func (h *AccountHandler) upload(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	path, err := storage.Stage(fh, h.Cfg.StagingDir)
	if err != nil {
		return "", err
	}
	defer storage.Discard(path)
	return h.Media.Upload(ctx, path)
}
