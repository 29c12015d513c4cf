package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/stream-user-service/internal/model"
)

func newMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

var scrubbedCols = []string{"id", "username", "email", "full_name", "avatar_url", "cover_image_url", "created_at", "updated_at"}
var fullCols = []string{"id", "username", "email", "full_name", "avatar_url", "cover_image_url", "password_hash", "refresh_token", "created_at", "updated_at"}

func TestUserRepoCreateNormalizesIdentity(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO users (username, email, full_name, avatar_url, cover_image_url, password_hash) VALUES (?,?,?,?,?,?)")).
		WithArgs("chai", "chai@example.com", "Chai Aur Code", "http://img/avatar.png", "", "hash").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Create(context.Background(), model.User{
		Username:     "  ChAi ",
		Email:        " Chai@Example.com ",
		FullName:     "Chai Aur Code",
		AvatarURL:    "http://img/avatar.png",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreateDuplicate(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'chai' for key 'uq_users_username'"))

	_, err := repo.Create(context.Background(), model.User{Username: "chai", Email: "chai@example.com"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestUserRepoExistsByIdentity(t *testing.T) {
	repo, mock := newMock(t)

	q := regexp.QuoteMeta("SELECT 1 FROM users WHERE username=? OR email=? LIMIT 1")
	mock.ExpectQuery(q).
		WithArgs("chai", "chai@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(q).
		WithArgs("ghost", "ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err := repo.ExistsByIdentity(context.Background(), " ChAi ", " Chai@Example.com ")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByIdentity(context.Background(), "ghost", "ghost@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoGetByIDExcludesCredentials(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id,username,email,full_name,avatar_url,cover_image_url,created_at,updated_at FROM users WHERE id=? LIMIT 1")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(scrubbedCols).
			AddRow(7, "chai", "chai@example.com", "Chai Aur Code", "http://img/a.png", "", now, now))

	u, err := repo.GetByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "chai", u.Username)
	assert.Empty(t, u.PasswordHash)
	assert.Empty(t, u.RefreshToken)
}

func TestUserRepoGetByLoginMatchesUsernameOrEmail(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\? OR email=\\? LIMIT 1").
		WithArgs("chai@example.com", "chai@example.com").
		WillReturnRows(sqlmock.NewRows(fullCols).
			AddRow(7, "chai", "chai@example.com", "Chai Aur Code", "http://img/a.png", "", "hash", nil, now, now))

	u, err := repo.GetByLogin(context.Background(), " Chai@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "hash", u.PasswordHash)
	// NULL refresh_token scans to the logged-out zero value.
	assert.Empty(t, u.RefreshToken)
}

func TestUserRepoSetAndClearRefreshToken(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token=? WHERE id=?")).
		WithArgs("tok", uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET refresh_token=NULL WHERE id=?")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetRefreshToken(context.Background(), 7, "tok"))
	require.NoError(t, repo.ClearRefreshToken(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoUpdateDetailsDuplicateEmail(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec("UPDATE users SET full_name=").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'taken@example.com'"))

	err := repo.UpdateDetails(context.Background(), 7, "New Name", "taken@example.com")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestUserRepoGetByUsernameNotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("SELECT .+ FROM users WHERE username=\\? LIMIT 1").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
