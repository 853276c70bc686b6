package producer

import (
	"context"
	"fmt"

	"github.com/dogmatiq/dodeca/logging"

	"github.com/keepsafe/pushpipe/notification"
)

// A Friendship is a friend relationship, possibly still pending, between two
// users.
type Friendship struct {
	// ID uniquely identifies the friendship.
	ID string

	// UserID is the ID of the user that sent the friend request.
	UserID string

	// FriendID is the ID of the user that received the friend request.
	FriendID string

	// Status is the state of the friendship, such as "pending" or
	// "accepted".
	Status string
}

// FriendNotifier produces notifications about friend requests.
type FriendNotifier struct {
	// Profiles provides the profiles of the users involved.
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

// RequestSent enqueues a notification telling the recipient of a friend
// request that it was sent.
//
// Friendships that are not pending are ignored; the request has already been
// answered.
func (n *FriendNotifier) RequestSent(ctx context.Context, f Friendship) error {
	if err := validateFriendship(f); err != nil {
		return err
	}

	if f.Status != "pending" {
		logging.Debug(
			n.Logger,
			"friendship %s is not pending, nobody to notify",
			f.ID,
		)

		return nil
	}

	sender, ok, err := n.Profiles.ProfileByID(ctx, f.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no profile found for friend request sender %s", f.UserID)
	}

	return n.notify(
		ctx,
		f.FriendID,
		func(s Settings) bool {
			return s.FriendRequests
		},
		notification.Job{
			Title: "New Friend Request",
			Body:  fmt.Sprintf("%s sent you a friend request", sender.DisplayName()),
			Metadata: map[string]any{
				"friendship_id":     f.ID,
				"sender_id":         f.UserID,
				"recipient_id":      f.FriendID,
				"notification_type": "friend_request",
			},
		},
	)
}

// RequestAccepted enqueues a notification telling the original requester that
// their friend request was accepted.
func (n *FriendNotifier) RequestAccepted(ctx context.Context, f Friendship) error {
	if err := validateFriendship(f); err != nil {
		return err
	}

	if f.Status != "accepted" {
		logging.Debug(
			n.Logger,
			"friendship %s is not accepted, nobody to notify",
			f.ID,
		)

		return nil
	}

	accepter, ok, err := n.Profiles.ProfileByID(ctx, f.FriendID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no profile found for friend request accepter %s", f.FriendID)
	}

	return n.notify(
		ctx,
		f.UserID,
		func(s Settings) bool {
			return s.FriendActivity
		},
		notification.Job{
			Title: "Friend Request Accepted",
			Body:  fmt.Sprintf("%s accepted your friend request", accepter.DisplayName()),
			Metadata: map[string]any{
				"friendship_id":     f.ID,
				"requester_id":      f.UserID,
				"accepter_id":       f.FriendID,
				"notification_type": "friend_accept",
			},
		},
	)
}

// notify resolves the recipient's preferences and push tokens, then enqueues
// the job if there is anything to deliver it to.
func (n *FriendNotifier) notify(
	ctx context.Context,
	recipientID string,
	enabled func(Settings) bool,
	j notification.Job,
) error {
	recipients := filterBySettings(
		ctx,
		n.Settings,
		n.Logger,
		[]string{recipientID},
		enabled,
	)

	if len(recipients) == 0 {
		logging.Debug(
			n.Logger,
			"user %s has these notifications disabled",
			recipientID,
		)

		return nil
	}

	tokens := collectTokens(ctx, n.Tokens, n.Logger, recipients)
	if len(tokens) == 0 {
		logging.Debug(
			n.Logger,
			"no push tokens for user %s",
			recipientID,
		)

		return nil
	}

	j.Recipients = tokens
	j.Priority = notification.PriorityNormal
	j.Data = map[string]any{
		"page_url": "/friends",
	}

	return n.Enqueuer.Enqueue(ctx, j)
}

func validateFriendship(f Friendship) error {
	if f.ID == "" || f.UserID == "" || f.FriendID == "" {
		return fmt.Errorf("friendship is missing its ID or participants")
	}

	return nil
}
