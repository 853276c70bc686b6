package queuestoretest

import (
	"context"
	"time"

	"github.com/keepsafe/pushpipe/queuestore"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

// DefaultTestTimeout is the maximum duration allowed for each test.
const DefaultTestTimeout = 10 * time.Second

// Declare declares a functional test-suite for a specific queuestore.Store
// implementation.
//
// newStore returns the store under test and a function that tears it down.
func Declare(
	newStore func(ctx context.Context) (queuestore.Store, func()),
) {
	ginkgo.Describe("standard queue store test suite", func() {
		var (
			ctx      context.Context
			cancel   context.CancelFunc
			store    queuestore.Store
			tearDown func()
		)

		ginkgo.BeforeEach(func() {
			ctx, cancel = context.WithTimeout(context.Background(), DefaultTestTimeout)
			store, tearDown = newStore(ctx)
		})

		ginkgo.AfterEach(func() {
			if tearDown != nil {
				tearDown()
			}

			cancel()
		})

		ginkgo.Describe("func Send()", func() {
			ginkgo.It("assigns a distinct ID to each message", func() {
				id1, err := store.Send(ctx, "<queue>", []byte("<payload-1>"))
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				id2, err := store.Send(ctx, "<queue>", []byte("<payload-2>"))
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				gomega.Expect(id1).NotTo(gomega.Equal(id2))
			})
		})

		ginkgo.Describe("func ReadBatch()", func() {
			ginkgo.It("returns an empty result if the queue is empty", func() {
				messages, err := store.ReadBatch(ctx, "<queue>", time.Minute, 10)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(messages).To(gomega.BeEmpty())
			})

			ginkgo.It("returns the queued messages", func() {
				id, err := store.Send(ctx, "<queue>", []byte("<payload>"))
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				messages, err := store.ReadBatch(ctx, "<queue>", time.Minute, 10)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(messages).To(gomega.HaveLen(1))
				gomega.Expect(messages[0].ID).To(gomega.Equal(id))
				gomega.Expect(messages[0].ReadCount).To(gomega.BeEquivalentTo(1))
				gomega.Expect(messages[0].Payload).To(gomega.Equal([]byte("<payload>")))
			})

			ginkgo.It("returns at most n messages", func() {
				for i := 0; i < 3; i++ {
					_, err := store.Send(ctx, "<queue>", []byte("<payload>"))
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				}

				messages, err := store.ReadBatch(ctx, "<queue>", time.Minute, 2)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(messages).To(gomega.HaveLen(2))
			})

			ginkgo.It("hides messages for the duration of the visibility timeout", func() {
				_, err := store.Send(ctx, "<queue>", []byte("<payload>"))
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				_, err = store.ReadBatch(ctx, "<queue>", time.Minute, 10)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				messages, err := store.ReadBatch(ctx, "<queue>", time.Minute, 10)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(messages).To(gomega.BeEmpty())
			})

			ginkgo.It("makes unacknowledged messages visible again after the timeout", func() {
				_, err := store.Send(ctx, "<queue>", []byte("<payload>"))
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				_, err = store.ReadBatch(ctx, "<queue>", 20*time.Millisecond, 10)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				gomega.Eventually(func() []queuestore.Message {
					messages, err := store.ReadBatch(ctx, "<queue>", time.Minute, 10)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
					return messages
				}).ShouldNot(gomega.BeEmpty())

				messages, err := store.ReadBatch(ctx, "<queue>", time.Minute, 10)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(messages).To(gomega.BeEmpty())
			})

			ginkgo.It("increments the read count on each delivery", func() {
				_, err := store.Send(ctx, "<queue>", []byte("<payload>"))
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				_, err = store.ReadBatch(ctx, "<queue>", 20*time.Millisecond, 10)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				var messages []queuestore.Message
				gomega.Eventually(func() []queuestore.Message {
					var err error
					messages, err = store.ReadBatch(ctx, "<queue>", time.Minute, 10)
					gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
					return messages
				}).ShouldNot(gomega.BeEmpty())

				gomega.Expect(messages[0].ReadCount).To(gomega.BeEquivalentTo(2))
			})

			ginkgo.It("keeps queues with different names separate", func() {
				_, err := store.Send(ctx, "<queue-1>", []byte("<payload>"))
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				messages, err := store.ReadBatch(ctx, "<queue-2>", time.Minute, 10)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(messages).To(gomega.BeEmpty())
			})
		})

		ginkgo.Describe("func Delete()", func() {
			ginkgo.It("removes the message from the queue", func() {
				id, err := store.Send(ctx, "<queue>", []byte("<payload>"))
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = store.Delete(ctx, "<queue>", id)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				messages, err := store.ReadBatch(ctx, "<queue>", time.Minute, 10)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(messages).To(gomega.BeEmpty())
			})

			ginkgo.It("does not return an error if the message has already been deleted", func() {
				id, err := store.Send(ctx, "<queue>", []byte("<payload>"))
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = store.Delete(ctx, "<queue>", id)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = store.Delete(ctx, "<queue>", id)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			})

			ginkgo.It("does not return an error if the message never existed", func() {
				err := store.Delete(ctx, "<queue>", 404)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
			})

			ginkgo.It("does not affect other messages", func() {
				id1, err := store.Send(ctx, "<queue>", []byte("<payload-1>"))
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				id2, err := store.Send(ctx, "<queue>", []byte("<payload-2>"))
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				err = store.Delete(ctx, "<queue>", id1)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())

				messages, err := store.ReadBatch(ctx, "<queue>", time.Minute, 10)
				gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
				gomega.Expect(messages).To(gomega.HaveLen(1))
				gomega.Expect(messages[0].ID).To(gomega.Equal(id2))
			})
		})
	})
}
