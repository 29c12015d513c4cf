package handler

import (
	"context"
	"database/sql"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/stream-user-service/internal/config"
	"github.com/iliyamo/stream-user-service/internal/middleware"
	"github.com/iliyamo/stream-user-service/internal/model"
	"github.com/iliyamo/stream-user-service/internal/queue"
	"github.com/iliyamo/stream-user-service/internal/repository"
	publisher "github.com/iliyamo/stream-user-service/internal/service"
	"github.com/iliyamo/stream-user-service/internal/storage"
	"github.com/iliyamo/stream-user-service/internal/utils"
)

// AuthHandler bundles dependencies for the session lifecycle endpoints:
// register, login, refresh and logout.
type AuthHandler struct {
	Cfg   config.Config
	Users *repository.UserRepo
	Media storage.Uploader
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, m storage.Uploader) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Media: m}
}

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type loginResp struct {
	User         model.PublicUser `json:"user"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
}

type tokenPairResp struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register creates an account from a multipart form: text fields fullName,
// email, username, password plus a required avatar file and an optional
// coverImage file.  Images are staged locally, pushed to the media bucket
// and the staged copies removed regardless of outcome.  The password is
// hashed here, before the record is constructed, never as a save-time side
// effect.
func (h *AuthHandler) Register(c echo.Context) error {
	fullName := strings.TrimSpace(c.FormValue("fullName"))
	email := strings.TrimSpace(c.FormValue("email"))
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	if fullName == "" || email == "" || username == "" || password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "all fields are required"})
	}

	avatarFile, err := c.FormFile("avatar")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "avatar is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	// Duplicate identity is the common failure; detect it before uploading
	// anything so a rejected registration leaves no orphaned bucket objects.
	exists, err := h.Users.ExistsByIdentity(ctx, username, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	if exists {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user with same username or email already exists"})
	}

	avatarURL, err := h.stageAndUpload(ctx, avatarFile)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "avatar upload failed"})
	}

	coverURL := ""
	if coverFile, err := c.FormFile("coverImage"); err == nil {
		coverURL, err = h.stageAndUpload(ctx, coverFile)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cover image upload failed"})
		}
	}

	hash, err := utils.HashPassword(password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	uid, err := h.Users.Create(ctx, model.User{
		Username:      username,
		Email:         email,
		FullName:      fullName,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		PasswordHash:  hash,
	})
	if err != nil {
		if err == repository.ErrUserExists {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "user with same username or email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	created, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}

	// Fire-and-forget: downstream consumers (signup audit log) must not
	// delay or fail the registration response.
	go func(u model.User) {
		_ = publisher.PublishUserRegistered(context.Background(), queue.UserRegisteredEvent{
			UserID:       u.ID,
			Username:     u.Username,
			Email:        u.Email,
			FullName:     u.FullName,
			RegisteredAt: u.CreatedAt.UTC().Format(time.RFC3339),
		})
	}(created)

	return c.JSON(http.StatusCreated, created.PublicView())
}

// Login verifies credentials, issues a fresh (access, refresh) pair,
// persists the refresh token on the account — silently invalidating any
// previous session's token — and sets both tokens as secure, http-only
// cookies.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ident := strings.TrimSpace(req.Username)
	if ident == "" {
		ident = strings.TrimSpace(req.Email)
	}
	if ident == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username or email and password are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByLogin(ctx, ident)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user does not exist"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "incorrect password"})
	}

	access, refresh, err := h.issuePair(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	setAuthCookies(c, access, refresh)
	return c.JSON(http.StatusOK, loginResp{
		User:         u.PublicView(),
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
	})
}

// Refresh exchanges a valid refresh token for a brand-new pair
// (rotation-on-use).  The incoming token must verify against the refresh
// secret AND match the single token stored on the account byte for byte;
// a superseded token fails the comparison even while its own signature and
// expiry are still valid.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := refreshTokenFromRequest(c)
	if raw == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized request"})
	}

	uid, err := utils.VerifyRefreshToken(h.Cfg.RefreshSecret, raw)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetWithCredentials(ctx, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	if u.RefreshToken == "" || u.RefreshToken != raw {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token is expired or used"})
	}

	access, refresh, err := h.issuePair(ctx, u)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}

	setAuthCookies(c, access, refresh)
	return c.JSON(http.StatusOK, tokenPairResp{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
	})
}

// Logout clears the stored refresh token and expires both cookies.  The
// route is protected, so the request gate has already attached the account.
// Any refresh token previously issued to this account becomes permanently
// unusable: the byte-for-byte comparison in Refresh can no longer match.
func (h *AuthHandler) Logout(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized request"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.ClearRefreshToken(ctx, u.ID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}

	clearAuthCookies(c)
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

// issuePair signs a new (access, refresh) pair and persists the refresh
// token as the account's single live session token.
func (h *AuthHandler) issuePair(ctx context.Context, u model.User) (utils.AccessToken, utils.RefreshToken, error) {
	access, err := utils.NewAccessToken(h.Cfg.AccessSecret, u, h.Cfg.AccessTTLMin)
	if err != nil {
		return utils.AccessToken{}, utils.RefreshToken{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshSecret, u.ID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return utils.AccessToken{}, utils.RefreshToken{}, err
	}
	if err := h.Users.SetRefreshToken(ctx, u.ID, refresh.Token); err != nil {
		return utils.AccessToken{}, utils.RefreshToken{}, err
	}
	return access, refresh, nil
}

// stageAndUpload copies a multipart file to the staging dir, uploads it to
// the media bucket and removes the staged copy, on success and on failure.
func (h *AuthHandler) stageAndUpload(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	path, err := storage.Stage(fh, h.Cfg.StagingDir)
	if err != nil {
		return "", err
	}
	defer storage.Discard(path)
	return h.Media.Upload(ctx, path)
}

// refreshTokenFromRequest pulls the refresh token from the cookie first,
// then from the JSON body.
func refreshTokenFromRequest(c echo.Context) string {
	if ck, err := c.Cookie("refreshToken"); err == nil && ck.Value != "" {
		return ck.Value
	}
	var req refreshReq
	_ = c.Bind(&req)
	return strings.TrimSpace(req.RefreshToken)
}

// setAuthCookies attaches both tokens as secure, http-only cookies whose
// lifetimes mirror the token expiries.
func setAuthCookies(c echo.Context, access utils.AccessToken, refresh utils.RefreshToken) {
	c.SetCookie(&http.Cookie{
		Name:     "accessToken",
		Value:    access.Token,
		Path:     "/",
		Expires:  access.Exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	c.SetCookie(&http.Cookie{
		Name:     "refreshToken",
		Value:    refresh.Token,
		Path:     "/",
		Expires:  refresh.Exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearAuthCookies expires both cookies immediately.
func clearAuthCookies(c echo.Context) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  time.Unix(0, 0),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
