package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/stream-user-service/internal/model"
)

// UserRepo persists account rows.  Identity fields (username, email) are
// normalized to lowercase before every read or write so uniqueness is
// case-insensitive regardless of collation.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// scrubbedColumns is the projection used everywhere the caller must not see
// credential fields (request gate, profile reads).
const scrubbedColumns = "id,username,email,full_name,avatar_url,cover_image_url,created_at,updated_at"

// Create inserts a new account and returns its ID.  The password must
// already be hashed by the caller; this layer never sees plaintext.
func (r *UserRepo) Create(ctx context.Context, u model.User) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, full_name, avatar_url, cover_image_url, password_hash) VALUES (?,?,?,?,?,?)",
		strings.ToLower(strings.TrimSpace(u.Username)),
		strings.ToLower(strings.TrimSpace(u.Email)),
		u.FullName, u.AvatarURL, u.CoverImageURL, u.PasswordHash)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrUserExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ExistsByIdentity reports whether an account already owns the username or
// email.  Register checks this before paying for media uploads; the unique
// indexes still catch a concurrent insert.
func (r *UserRepo) ExistsByIdentity(ctx context.Context, username, email string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE username=? OR email=? LIMIT 1",
		strings.ToLower(strings.TrimSpace(username)),
		strings.ToLower(strings.TrimSpace(email))).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetByID fetches the scrubbed view of an account: password hash and
// refresh token are never selected.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+scrubbedColumns+" FROM users WHERE id=? LIMIT 1", id).
		Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.AvatarURL, &u.CoverImageURL, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByUsername fetches the scrubbed view of an account by its username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+scrubbedColumns+" FROM users WHERE username=? LIMIT 1",
		strings.ToLower(strings.TrimSpace(username))).
		Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.AvatarURL, &u.CoverImageURL, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByLogin fetches the full account row (credentials included) matching
// the given username or email.  Used only by the login handler.
func (r *UserRepo) GetByLogin(ctx context.Context, usernameOrEmail string) (model.User, error) {
	ident := strings.ToLower(strings.TrimSpace(usernameOrEmail))
	return r.scanFull(r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,full_name,avatar_url,cover_image_url,password_hash,refresh_token,created_at,updated_at FROM users WHERE username=? OR email=? LIMIT 1",
		ident, ident))
}

// GetWithCredentials fetches the full account row by id, including the
// password hash and stored refresh token.  Used by the refresh and
// change-password flows, which must compare credentials.
func (r *UserRepo) GetWithCredentials(ctx context.Context, id uint64) (model.User, error) {
	return r.scanFull(r.DB.QueryRowContext(ctx,
		"SELECT id,username,email,full_name,avatar_url,cover_image_url,password_hash,refresh_token,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id))
}

func (r *UserRepo) scanFull(row *sql.Row) (model.User, error) {
	var (
		u       model.User
		refresh sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.AvatarURL,
		&u.CoverImageURL, &u.PasswordHash, &refresh, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.RefreshToken = refresh.String
	return u, nil
}

// SetRefreshToken overwrites the stored refresh token.  Last write wins:
// a second login or refresh silently invalidates the previous session's
// token because any later renewal compares against this column.
func (r *UserRepo) SetRefreshToken(ctx context.Context, id uint64, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=? WHERE id=?", token, id)
	return err
}

// ClearRefreshToken removes the stored refresh token, returning the account
// to the logged-out state.
func (r *UserRepo) ClearRefreshToken(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET refresh_token=NULL WHERE id=?", id)
	return err
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", hash, id)
	return err
}

// UpdateDetails updates the mutable profile fields.
func (r *UserRepo) UpdateDetails(ctx context.Context, id uint64, fullName, email string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET full_name=?, email=? WHERE id=?",
		fullName, strings.ToLower(strings.TrimSpace(email)), id)
	if err != nil && isDuplicate(err) {
		return ErrUserExists
	}
	return err
}

// UpdateAvatar stores a new avatar URL.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id uint64, url string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET avatar_url=? WHERE id=?", url, id)
	return err
}

// UpdateCoverImage stores a new cover image URL.  Deliberately a separate
// statement from UpdateAvatar: the two media fields are independent.
func (r *UserRepo) UpdateCoverImage(ctx context.Context, id uint64, url string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET cover_image_url=? WHERE id=?", url, id)
	return err
}

// isDuplicate reports whether err is a MySQL duplicate-key violation (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
