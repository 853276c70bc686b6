// Package producer builds notification jobs in response to application
// events and places them on the queue.
package producer

import (
	"context"

	"github.com/keepsafe/pushpipe/notification"
)

// An Enqueuer accepts notification jobs onto the queue.
//
// *dispatch.Dispatcher is the production implementation.
type Enqueuer interface {
	// Enqueue validates j and appends it to the queue.
	Enqueue(ctx context.Context, j notification.Job) error
}

// A Profile describes a user as shown to other users.
type Profile struct {
	ID       string
	Username string
	FullName string
	Email    string
}

// DisplayName returns the name used to describe this user in notification
// text.
func (p Profile) DisplayName() string {
	if p.Username != "" {
		return p.Username
	}

	if p.FullName != "" {
		return p.FullName
	}

	return "Someone"
}

// Settings are a user's notification preferences.
type Settings struct {
	UserID            string
	PushNotifications bool
	FriendRequests    bool
	FriendActivity    bool
	EntryReminder     bool
}

// ProfileRepository provides access to user profiles.
type ProfileRepository interface {
	// ProfileByID returns the profile of the user with the given ID.
	//
	// ok is false if no such user exists.
	ProfileByID(ctx context.Context, userID string) (p Profile, ok bool, err error)
}

// SettingsRepository provides access to users' notification preferences.
type SettingsRepository interface {
	// SettingsForUsers returns the notification preferences of each of the
	// given users.
	//
	// Users without a stored preference record are omitted from the result.
	SettingsForUsers(ctx context.Context, userIDs []string) (map[string]Settings, error)
}

// TokenRepository provides access to users' push-address tokens.
type TokenRepository interface {
	// TokensForUsers returns the push tokens of each of the given users.
	//
	// A user may have several tokens, one per device. Users without tokens
	// are mapped to an empty slice or omitted entirely.
	TokensForUsers(ctx context.Context, userIDs []string) (map[string][]string, error)
}
