package producer

import (
	"context"
	"fmt"
	"strings"

	"github.com/dogmatiq/dodeca/logging"

	"github.com/keepsafe/pushpipe/notification"
)

// An Entry is a journal entry as seen by the notification producers.
type Entry struct {
	// ID uniquely identifies the entry.
	ID string

	// OwnerID is the ID of the user that created the entry.
	OwnerID string

	// Type is the media type of the entry, such as "photo", "video" or
	// "audio".
	Type string

	// SharedWith are the IDs of the users the entry is explicitly shared
	// with.
	SharedWith []string

	// SharedWithEveryone is true if the entry is shared with all of the
	// owner's friends.
	SharedWithEveryone bool

	// IsPrivate is true if the entry is visible only to its owner.
	IsPrivate bool
}

// EntryNotifier produces notifications about journal entries.
type EntryNotifier struct {
	// Profiles provides the profile of the entry's owner.
	Profiles ProfileRepository

	// Settings provides the recipients' notification preferences.
	Settings SettingsRepository

	// Tokens provides the recipients' push tokens.
	Tokens TokenRepository

	// Enqueuer accepts the produced jobs onto the queue.
	Enqueuer Enqueuer

	// Logger is the target for messages about skipped and produced
	// notifications. If it is nil, logging.DefaultLogger is used.
	Logger logging.Logger
}

// EntryShared enqueues a notification telling each user the entry was shared
// with that it is available.
//
// Having nobody to notify is not an error. The owner is never notified of
// their own entry, and users who have disabled friend-activity notifications
// are excluded.
func (n *EntryNotifier) EntryShared(ctx context.Context, e Entry) error {
	if e.ID == "" || e.OwnerID == "" {
		return fmt.Errorf("entry is missing its ID or owner")
	}

	if e.IsPrivate && len(e.SharedWith) == 0 && !e.SharedWithEveryone {
		logging.Debug(
			n.Logger,
			"entry %s is private and not shared, nobody to notify",
			e.ID,
		)

		return nil
	}

	owner, ok, err := n.Profiles.ProfileByID(ctx, e.OwnerID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no profile found for entry owner %s", e.OwnerID)
	}

	var recipients []string
	for _, id := range e.SharedWith {
		if id != e.OwnerID {
			recipients = append(recipients, id)
		}
	}

	if len(recipients) == 0 {
		logging.Debug(
			n.Logger,
			"no recipients for entry %s",
			e.ID,
		)

		return nil
	}

	recipients = filterBySettings(
		ctx,
		n.Settings,
		n.Logger,
		recipients,
		func(s Settings) bool {
			return s.FriendActivity
		},
	)

	if len(recipients) == 0 {
		logging.Debug(
			n.Logger,
			"no recipients with friend-activity notifications enabled for entry %s",
			e.ID,
		)

		return nil
	}

	tokens := collectTokens(ctx, n.Tokens, n.Logger, recipients)
	if len(tokens) == 0 {
		logging.Debug(
			n.Logger,
			"no push tokens for recipients of entry %s",
			e.ID,
		)

		return nil
	}

	return n.Enqueuer.Enqueue(
		ctx,
		notification.Job{
			Title:      "New Entry Shared",
			Body:       fmt.Sprintf("%s shared %s with you", owner.DisplayName(), describeEntryType(e.Type)),
			Recipients: tokens,
			Priority:   notification.PriorityNormal,
			Metadata: map[string]any{
				"entry_id":          e.ID,
				"owner_id":          e.OwnerID,
				"entry_type":        e.Type,
				"notification_type": "entry_share",
			},
			Data: map[string]any{
				"page_url": "/vault?refresh=true",
			},
		},
	)
}

// describeEntryType renders an entry type for use in notification text, as in
// "shared a Photo with you".
func describeEntryType(t string) string {
	if t == "" {
		t = "entry"
	}

	if t == "audio" {
		return "an audio recording"
	}

	return "a " + strings.ToUpper(t[:1]) + t[1:]
}
