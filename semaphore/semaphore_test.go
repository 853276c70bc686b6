package semaphore_test

import (
	"context"
	"time"

	. "github.com/keepsafe/pushpipe/semaphore"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Semaphore", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 1*time.Second)
	})

	AfterEach(func() {
		cancel()
	})

	When("the semaphore has a limit", func() {
		It("reports its limit", func() {
			sem := New(3)
			Expect(sem.Limit()).To(Equal(3))
		})

		It("blocks Acquire() once the limit is reached", func() {
			sem := New(1)

			err := sem.Acquire(ctx)
			Expect(err).ShouldNot(HaveOccurred())

			blockedCtx, blockedCancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer blockedCancel()

			err = sem.Acquire(blockedCtx)
			Expect(err).To(Equal(context.DeadlineExceeded))
		})

		It("unblocks Acquire() when a permit is released", func() {
			sem := New(1)

			err := sem.Acquire(ctx)
			Expect(err).ShouldNot(HaveOccurred())

			go func() {
				time.Sleep(10 * time.Millisecond)
				sem.Release()
			}()

			err = sem.Acquire(ctx)
			Expect(err).ShouldNot(HaveOccurred())
		})
	})

	When("the semaphore is the zero-value", func() {
		It("imposes no limit", func() {
			var sem Semaphore
			Expect(sem.Limit()).To(Equal(0))

			err := sem.Acquire(ctx)
			Expect(err).ShouldNot(HaveOccurred())

			sem.Release()
		})
	})
})
