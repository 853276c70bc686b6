package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/redis/go-redis/v9"

	"github.com/keepsafe/pushpipe/producer"
)

// TokenCache is a read-through cache of users' push tokens.
//
// It implements producer.TokenRepository. Unlike SettingsCache it caches
// negative results too; a user without tokens is cached as an empty list so
// that repeated fan-outs do not repeatedly query the inner repository.
type TokenCache struct {
	// Client is the Redis client. If it is nil, every lookup goes to the
	// inner repository.
	Client redis.Cmdable

	// Next is the repository consulted on a cache miss.
	Next producer.TokenRepository

	// TTL is the lifetime of cached entries. If it is zero, DefaultTTL is
	// used.
	TTL time.Duration

	// Logger is the target for messages about cache failures. If it is nil,
	// logging.DefaultLogger is used.
	Logger logging.Logger
}

func tokensKey(userID string) string {
	return "push_tokens:" + userID
}

// TokensForUsers returns the push tokens of each of the given users.
func (c *TokenCache) TokensForUsers(
	ctx context.Context,
	userIDs []string,
) (map[string][]string, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = tokensKey(id)
	}

	result := map[string][]string{}
	var missing []string

	if values, ok := mget(ctx, c.Client, c.Logger, keys); ok {
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, userIDs[i])
				continue
			}

			var tokens []string
			if err := json.Unmarshal([]byte(s), &tokens); err != nil {
				logging.Log(
					c.Logger,
					"unable to parse cached tokens for user %s: %s",
					userIDs[i],
					err,
				)

				missing = append(missing, userIDs[i])
				continue
			}

			result[userIDs[i]] = tokens
		}
	} else {
		missing = userIDs
	}

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := c.Next.TokensForUsers(ctx, missing)
	if err != nil {
		logging.Log(
			c.Logger,
			"unable to load push tokens for %d user(s): %s",
			len(missing),
			err,
		)

		return result, nil
	}

	for _, id := range missing {
		tokens := fetched[id]
		if tokens == nil {
			tokens = []string{}
		}

		result[id] = tokens

		data, err := json.Marshal(tokens)
		if err != nil {
			continue
		}

		set(ctx, c.Client, c.Logger, tokensKey(id), data, c.TTL)
	}

	return result, nil
}
