package telemetry

import (
	"github.com/keepsafe/pushpipe/notification"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("func distinctID()", func() {
	It("uses the user ID from the job's metadata", func() {
		j := &notification.Job{
			Recipients: []string{"ExponentPushToken[aaa]"},
			Metadata: map[string]any{
				"user_id": "<user-id>",
			},
		}

		Expect(distinctID(j)).To(Equal("<user-id>"))
	})

	It("falls back to a prefix of the first recipient token", func() {
		j := &notification.Job{
			Recipients: []string{"ExponentPushToken[aaa]"},
		}

		// The full token must never be used as an identity; it is a
		// credential for pushing to the device.
		Expect(distinctID(j)).To(Equal("token_Exponent"))
	})

	It("does not truncate short tokens", func() {
		j := &notification.Job{
			Recipients: []string{"abc"},
		}

		Expect(distinctID(j)).To(Equal("token_abc"))
	})

	It("falls back to a fixed identity if the job has no recipients", func() {
		j := &notification.Job{}

		Expect(distinctID(j)).To(Equal("unknown"))
	})
})
