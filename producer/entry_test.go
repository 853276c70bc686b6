package producer_test

import (
	"context"
	"errors"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/keepsafe/pushpipe/notification"
	"github.com/keepsafe/pushpipe/producer"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type EntryNotifier", func() {
	var (
		ctx      context.Context
		cancel   context.CancelFunc
		profiles *profileRepositoryStub
		settings *settingsRepositoryStub
		tokens   *tokenRepositoryStub
		enqueuer *enqueuerStub
		notifier *producer.EntryNotifier
		entry    producer.Entry
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 3*time.Second)

		profiles = &profileRepositoryStub{
			Profiles: map[string]producer.Profile{
				"<owner>": {ID: "<owner>", Username: "ana"},
			},
		}

		settings = &settingsRepositoryStub{
			Settings: map[string]producer.Settings{},
		}

		tokens = &tokenRepositoryStub{
			Tokens: map[string][]string{
				"<friend-1>": {"<token-1>"},
				"<friend-2>": {"<token-2a>", "<token-2b>"},
			},
		}

		enqueuer = &enqueuerStub{}

		notifier = &producer.EntryNotifier{
			Profiles: profiles,
			Settings: settings,
			Tokens:   tokens,
			Enqueuer: enqueuer,
			Logger:   logging.DiscardLogger{},
		}

		entry = producer.Entry{
			ID:         "<entry>",
			OwnerID:    "<owner>",
			Type:       "photo",
			SharedWith: []string{"<friend-1>", "<friend-2>"},
		}
	})

	AfterEach(func() {
		cancel()
	})

	Describe("func EntryShared()", func() {
		It("enqueues a notification for every device of every recipient", func() {
			err := notifier.EntryShared(ctx, entry)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(enqueuer.Jobs).To(HaveLen(1))

			j := enqueuer.Jobs[0]
			Expect(j.Title).To(Equal("New Entry Shared"))
			Expect(j.Body).To(Equal("ana shared a Photo with you"))
			Expect(j.Recipients).To(ConsistOf("<token-1>", "<token-2a>", "<token-2b>"))
			Expect(j.Priority).To(Equal(notification.PriorityNormal))
			Expect(j.Metadata).To(Equal(map[string]any{
				"entry_id":          "<entry>",
				"owner_id":          "<owner>",
				"entry_type":        "photo",
				"notification_type": "entry_share",
			}))
			Expect(j.Data).To(Equal(map[string]any{
				"page_url": "/vault?refresh=true",
			}))
		})

		It("describes audio entries as recordings", func() {
			entry.Type = "audio"

			err := notifier.EntryShared(ctx, entry)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(enqueuer.Jobs).To(HaveLen(1))
			Expect(enqueuer.Jobs[0].Body).To(Equal("ana shared an audio recording with you"))
		})

		It("falls back through the owner's names", func() {
			profiles.Profiles["<owner>"] = producer.Profile{
				ID:       "<owner>",
				FullName: "Ana Santos",
			}

			err := notifier.EntryShared(ctx, entry)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(enqueuer.Jobs[0].Body).To(Equal("Ana Santos shared a Photo with you"))

			profiles.Profiles["<owner>"] = producer.Profile{ID: "<owner>"}
			enqueuer.Jobs = nil

			err = notifier.EntryShared(ctx, entry)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(enqueuer.Jobs[0].Body).To(Equal("Someone shared a Photo with you"))
		})

		It("never notifies the owner about their own entry", func() {
			entry.SharedWith = []string{"<owner>", "<friend-1>"}

			err := notifier.EntryShared(ctx, entry)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(enqueuer.Jobs).To(HaveLen(1))
			Expect(enqueuer.Jobs[0].Recipients).To(ConsistOf("<token-1>"))
		})

		It("does nothing for a private entry that is not shared", func() {
			entry.IsPrivate = true
			entry.SharedWith = nil

			err := notifier.EntryShared(ctx, entry)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(enqueuer.Jobs).To(BeEmpty())
		})

		It("does nothing when there is nobody to notify", func() {
			entry.SharedWith = []string{"<owner>"}

			err := notifier.EntryShared(ctx, entry)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(enqueuer.Jobs).To(BeEmpty())
		})

		It("excludes users who disabled friend-activity notifications", func() {
			settings.Settings["<friend-1>"] = producer.Settings{
				UserID:         "<friend-1>",
				FriendActivity: false,
			}

			err := notifier.EntryShared(ctx, entry)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(enqueuer.Jobs).To(HaveLen(1))
			Expect(enqueuer.Jobs[0].Recipients).To(ConsistOf("<token-2a>", "<token-2b>"))
		})

		It("includes users who have no stored preferences", func() {
			err := notifier.EntryShared(ctx, entry)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(enqueuer.Jobs).To(HaveLen(1))
			Expect(enqueuer.Jobs[0].Recipients).To(HaveLen(3))
		})

		It("notifies everyone when preferences can not be loaded", func() {
			settings.Err = errors.New("<error>")

			err := notifier.EntryShared(ctx, entry)
			Expect(err).ShouldNot(HaveOccurred())

			Expect(enqueuer.Jobs).To(HaveLen(1))
			Expect(enqueuer.Jobs[0].Recipients).To(HaveLen(3))
		})

		It("does nothing when no recipient has a push token", func() {
			tokens.Tokens = nil

			err := notifier.EntryShared(ctx, entry)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(enqueuer.Jobs).To(BeEmpty())
		})

		It("does nothing when the tokens can not be loaded", func() {
			tokens.Err = errors.New("<error>")

			err := notifier.EntryShared(ctx, entry)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(enqueuer.Jobs).To(BeEmpty())
		})

		It("returns an error if the entry has no ID or owner", func() {
			err := notifier.EntryShared(ctx, producer.Entry{})
			Expect(err).Should(HaveOccurred())
		})

		It("returns an error if the owner has no profile", func() {
			entry.OwnerID = "<stranger>"

			err := notifier.EntryShared(ctx, entry)
			Expect(err).To(MatchError("no profile found for entry owner <stranger>"))
		})

		It("propagates enqueue failures", func() {
			enqueuer.Err = errors.New("<error>")

			err := notifier.EntryShared(ctx, entry)
			Expect(err).To(MatchError("<error>"))
		})
	})
})
