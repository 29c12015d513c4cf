package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubMock(t *testing.T) (*SubscriptionRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSubscriptionRepo(db), mock
}

var profileCols = []string{"id", "username", "full_name", "avatar_url", "cover_image_url", "subscribers", "subscribed_to", "is_subscribed"}

func TestChannelProfileAggregation(t *testing.T) {
	repo, mock := newSubMock(t)

	mock.ExpectQuery("SELECT u.id, u.username, u.full_name").
		WithArgs(uint64(3), "chai").
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow(7, "chai", "Chai Aur Code", "http://img/a.png", "", 120, 4, true))

	p, err := repo.ChannelProfile(context.Background(), " Chai ", 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), p.ID)
	assert.Equal(t, int64(120), p.SubscribersCount)
	assert.Equal(t, int64(4), p.SubscribedToCount)
	assert.True(t, p.IsSubscribed)
}

func TestChannelProfileUnknownChannel(t *testing.T) {
	repo, mock := newSubMock(t)

	mock.ExpectQuery("SELECT u.id, u.username, u.full_name").
		WithArgs(uint64(3), "ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.ChannelProfile(context.Background(), "ghost", 3)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestToggleUnsubscribesExistingRelation(t *testing.T) {
	repo, mock := newSubMock(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM subscriptions WHERE subscriber_id=? AND channel_id=?")).
		WithArgs(uint64(3), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	subscribed, err := repo.Toggle(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.False(t, subscribed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleSubscribesWhenNoRelation(t *testing.T) {
	repo, mock := newSubMock(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM subscriptions WHERE subscriber_id=? AND channel_id=?")).
		WithArgs(uint64(3), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO subscriptions (subscriber_id, channel_id) VALUES (?,?)")).
		WithArgs(uint64(3), uint64(7)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	subscribed, err := repo.Toggle(context.Background(), 3, 7)
	require.NoError(t, err)
	assert.True(t, subscribed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
