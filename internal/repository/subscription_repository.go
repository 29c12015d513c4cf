package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/stream-user-service/internal/model"
)

// SubscriptionRepo persists follower relations and answers the channel
// profile aggregation.
type SubscriptionRepo struct{ DB *sql.DB }

func NewSubscriptionRepo(db *sql.DB) *SubscriptionRepo { return &SubscriptionRepo{DB: db} }

// ChannelProfile loads the public profile of the channel owned by username
// together with its subscriber count, the number of channels it follows,
// and whether viewerID is currently subscribed.  The three aggregates run
// as correlated subqueries so the profile is one round-trip.
func (r *SubscriptionRepo) ChannelProfile(ctx context.Context, username string, viewerID uint64) (model.ChannelProfile, error) {
	var p model.ChannelProfile
	err := r.DB.QueryRowContext(ctx,
		`SELECT u.id, u.username, u.full_name, u.avatar_url, u.cover_image_url,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
			(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
			EXISTS(SELECT 1 FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = ?)
		FROM users u WHERE u.username = ? LIMIT 1`,
		viewerID, strings.ToLower(strings.TrimSpace(username))).
		Scan(&p.ID, &p.Username, &p.FullName, &p.AvatarURL, &p.CoverImageURL,
			&p.SubscribersCount, &p.SubscribedToCount, &p.IsSubscribed)
	return p, err
}

// Toggle flips the subscription of subscriberID to channelID and reports
// the resulting state: true when the caller is now subscribed.  An existing
// relation is removed first; when nothing was removed a new row is inserted.
// A duplicate-key error on insert means a concurrent toggle won the race,
// which still leaves the caller subscribed.
func (r *SubscriptionRepo) Toggle(ctx context.Context, subscriberID, channelID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE subscriber_id=? AND channel_id=?",
		subscriberID, channelID)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return false, nil
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO subscriptions (subscriber_id, channel_id) VALUES (?,?)",
		subscriberID, channelID)
	if err != nil && !isDuplicate(err) {
		return false, err
	}
	return true, nil
}
