package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/redis/go-redis/v9"

	"github.com/keepsafe/pushpipe/producer"
)

// SettingsCache is a read-through cache of users' notification preferences.
//
// It implements producer.SettingsRepository. Preferences that are not cached
// are fetched from the inner repository and cached for TTL. A failure of the
// inner repository is not propagated; the affected users are simply omitted
// from the result, which downstream filtering treats as "notifications
// enabled".
type SettingsCache struct {
	// Client is the Redis client. If it is nil, every lookup goes to the
	// inner repository.
	Client redis.Cmdable

	// Next is the repository consulted on a cache miss.
	Next producer.SettingsRepository

	// TTL is the lifetime of cached entries. If it is zero, DefaultTTL is
	// used.
	TTL time.Duration

	// Logger is the target for messages about cache failures. If it is nil,
	// logging.DefaultLogger is used.
	Logger logging.Logger
}

// settingsRecord is the cached representation of a user's preferences. The
// field names match the database columns, as the cache is populated by
// several services.
type settingsRecord struct {
	UserID            string `json:"user_id"`
	PushNotifications bool   `json:"push_notifications"`
	FriendRequests    bool   `json:"friend_requests"`
	FriendActivity    bool   `json:"friend_activity"`
	EntryReminder     bool   `json:"entry_reminder"`
}

func settingsKey(userID string) string {
	return "notification_settings:" + userID
}

// SettingsForUsers returns the notification preferences of each of the given
// users.
func (c *SettingsCache) SettingsForUsers(
	ctx context.Context,
	userIDs []string,
) (map[string]producer.Settings, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = settingsKey(id)
	}

	result := map[string]producer.Settings{}
	var missing []string

	if values, ok := mget(ctx, c.Client, c.Logger, keys); ok {
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, userIDs[i])
				continue
			}

			var rec settingsRecord
			if err := json.Unmarshal([]byte(s), &rec); err != nil {
				logging.Log(
					c.Logger,
					"unable to parse cached settings for user %s: %s",
					userIDs[i],
					err,
				)

				missing = append(missing, userIDs[i])
				continue
			}

			result[userIDs[i]] = producer.Settings{
				UserID:            rec.UserID,
				PushNotifications: rec.PushNotifications,
				FriendRequests:    rec.FriendRequests,
				FriendActivity:    rec.FriendActivity,
				EntryReminder:     rec.EntryReminder,
			}
		}
	} else {
		missing = userIDs
	}

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := c.Next.SettingsForUsers(ctx, missing)
	if err != nil {
		logging.Log(
			c.Logger,
			"unable to load notification settings for %d user(s): %s",
			len(missing),
			err,
		)

		return result, nil
	}

	for id, s := range fetched {
		result[id] = s

		data, err := json.Marshal(settingsRecord{
			UserID:            s.UserID,
			PushNotifications: s.PushNotifications,
			FriendRequests:    s.FriendRequests,
			FriendActivity:    s.FriendActivity,
			EntryReminder:     s.EntryReminder,
		})
		if err != nil {
			continue
		}

		set(ctx, c.Client, c.Logger, settingsKey(id), data, c.TTL)
	}

	return result, nil
}
