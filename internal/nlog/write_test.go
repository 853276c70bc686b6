package nlog_test

import (
	. "github.com/keepsafe/pushpipe/internal/nlog"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = DescribeTable(
	"func String()",
	func(expected string, ids []IconWithLabel, icons []Icon, text []string) {
		Expect(
			String(ids, icons, text...),
		).To(Equal(expected))
	},
	Entry(
		"renders a standard log message",
		"= 123  ⊟ notifications  ▼ ↻  <foo> ● <bar>",
		[]IconWithLabel{
			MessageIDIcon.WithLabel("123"),
			QueueIcon.WithLabel("notifications"),
		},
		[]Icon{
			ConsumeIcon,
			RetryIcon,
		},
		[]string{
			"<foo>",
			"<bar>",
		},
	),
	Entry(
		"renders a hyphen in place of empty labels",
		"= 123  ⊟ -  ▼ ↻  <foo> ● <bar>",
		[]IconWithLabel{
			MessageIDIcon.WithLabel("123"),
			QueueIcon.WithLabel(""),
		},
		[]Icon{
			ConsumeIcon,
			RetryIcon,
		},
		[]string{
			"<foo>",
			"<bar>",
		},
	),
	Entry(
		"pads empty icons to the same width",
		"= 123  ⊟ notifications  ▼    <foo> ● <bar>",
		[]IconWithLabel{
			MessageIDIcon.WithLabel("123"),
			QueueIcon.WithLabel("notifications"),
		},
		[]Icon{
			ConsumeIcon,
			"",
		},
		[]string{
			"<foo>",
			"<bar>",
		},
	),
	Entry(
		"skips empty text",
		"= 123  ⊟ notifications  ▼ ↻  <foo> ● <bar>",
		[]IconWithLabel{
			MessageIDIcon.WithLabel("123"),
			QueueIcon.WithLabel("notifications"),
		},
		[]Icon{
			ConsumeIcon,
			RetryIcon,
		},
		[]string{
			"<foo>",
			"",
			"<bar>",
		},
	),
)

var _ = Describe("type Icon", func() {
	Describe("func String()", func() {
		It("returns the icon as a string", func() {
			Expect(ConsumeIcon.String()).To(Equal("▼"))
		})
	})

	Describe("func WithLabel()", func() {
		It("applies the format specifier", func() {
			i := MessageIDIcon.WithLabel("<%s>", "value")
			Expect(i.Label).To(Equal("<value>"))
		})
	})
})

var _ = Describe("type IconWithLabel", func() {
	Describe("func String()", func() {
		It("returns the icon and label separated by a space", func() {
			Expect(
				MessageIDIcon.WithLabel("123").String(),
			).To(Equal("= 123"))
		})
	})
})
