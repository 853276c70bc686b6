package producer_test

import (
	"context"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/keepsafe/pushpipe/notification"
	"github.com/keepsafe/pushpipe/producer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type FriendNotifier", func() {
	var (
		ctx        context.Context
		cancel     context.CancelFunc
		profiles   *profileRepositoryStub
		settings   *settingsRepositoryStub
		tokens     *tokenRepositoryStub
		enqueuer   *enqueuerStub
		notifier   *producer.FriendNotifier
		friendship producer.Friendship
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 3*time.Second)

		profiles = &profileRepositoryStub{
			Profiles: map[string]producer.Profile{
				"<sender>":    {ID: "<sender>", Username: "ben"},
				"<recipient>": {ID: "<recipient>", Username: "cho"},
			},
		}

		settings = &settingsRepositoryStub{
			Settings: map[string]producer.Settings{},
		}

		tokens = &tokenRepositoryStub{
			Tokens: map[string][]string{
				"<sender>":    {"<sender-token>"},
				"<recipient>": {"<recipient-token>"},
			},
		}

		enqueuer = &enqueuerStub{}

		notifier = &producer.FriendNotifier{
			Profiles: profiles,
			Settings: settings,
			Tokens:   tokens,
			Enqueuer: enqueuer,
			Logger:   logging.DiscardLogger{},
		}

		friendship = producer.Friendship{
			ID:       "<friendship>",
			UserID:   "<sender>",
			FriendID: "<recipient>",
			Status:   "pending",
		}
	})

	AfterEach(func() {
		cancel()
	})

	Describe("func RequestSent()", func() {
		It("notifies the recipient of the request", func() {
			err := notifier.RequestSent(ctx, friendship)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(enqueuer.Jobs).To(HaveLen(1))

			j := enqueuer.Jobs[0]
			Expect(j.Title).To(Equal("New Friend Request"))
			Expect(j.Body).To(Equal("ben sent you a friend request"))
			Expect(j.Recipients).To(ConsistOf("<recipient-token>"))
			Expect(j.Priority).To(Equal(notification.PriorityNormal))
			Expect(j.Metadata).To(Equal(map[string]any{
				"friendship_id":     "<friendship>",
				"sender_id":         "<sender>",
				"recipient_id":      "<recipient>",
				"notification_type": "friend_request",
			}))
			Expect(j.Data).To(Equal(map[string]any{
				"page_url": "/friends",
			}))
		})

		It("ignores friendships that are not pending", func() {
			friendship.Status = "accepted"

			err := notifier.RequestSent(ctx, friendship)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(enqueuer.Jobs).To(BeEmpty())
		})

		It("respects the recipient's friend-request preference", func() {
			settings.Settings["<recipient>"] = producer.Settings{
				UserID:         "<recipient>",
				FriendRequests: false,
				FriendActivity: true,
			}

			err := notifier.RequestSent(ctx, friendship)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(enqueuer.Jobs).To(BeEmpty())
		})

		It("does nothing when the recipient has no push tokens", func() {
			tokens.Tokens = nil

			err := notifier.RequestSent(ctx, friendship)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(enqueuer.Jobs).To(BeEmpty())
		})

		It("returns an error if the sender has no profile", func() {
			friendship.UserID = "<stranger>"

			err := notifier.RequestSent(ctx, friendship)
			Expect(err).To(MatchError("no profile found for friend request sender <stranger>"))
		})

		It("returns an error if the friendship is incomplete", func() {
			err := notifier.RequestSent(ctx, producer.Friendship{ID: "<friendship>"})
			Expect(err).Should(HaveOccurred())
		})
	})

	Describe("func RequestAccepted()", func() {
		BeforeEach(func() {
			friendship.Status = "accepted"
		})

		It("notifies the original requester", func() {
			err := notifier.RequestAccepted(ctx, friendship)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(enqueuer.Jobs).To(HaveLen(1))

			j := enqueuer.Jobs[0]
			Expect(j.Title).To(Equal("Friend Request Accepted"))
			Expect(j.Body).To(Equal("cho accepted your friend request"))
			Expect(j.Recipients).To(ConsistOf("<sender-token>"))
			Expect(j.Metadata).To(Equal(map[string]any{
				"friendship_id":     "<friendship>",
				"requester_id":      "<sender>",
				"accepter_id":       "<recipient>",
				"notification_type": "friend_accept",
			}))
		})

		It("ignores friendships that are not accepted", func() {
			friendship.Status = "pending"

			err := notifier.RequestAccepted(ctx, friendship)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(enqueuer.Jobs).To(BeEmpty())
		})

		It("respects the requester's friend-activity preference", func() {
			settings.Settings["<sender>"] = producer.Settings{
				UserID:         "<sender>",
				FriendRequests: true,
				FriendActivity: false,
			}

			err := notifier.RequestAccepted(ctx, friendship)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(enqueuer.Jobs).To(BeEmpty())
		})

		It("returns an error if the accepter has no profile", func() {
			friendship.FriendID = "<stranger>"

			err := notifier.RequestAccepted(ctx, friendship)
			Expect(err).To(MatchError("no profile found for friend request accepter <stranger>"))
		})
	})
})
