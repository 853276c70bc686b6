package nlog

import "fmt"

const (
	// MessageIDIcon is the icon shown directly before a queue message ID.
	// It is an "equals sign", indicating that this message "has exactly" the
	// displayed ID.
	MessageIDIcon Icon = "="

	// QueueIcon is the icon shown directly before the name of the queue a
	// message was read from or written to.
	QueueIcon Icon = "⊟"

	// ConsumeIcon is the icon shown to indicate that a message is being
	// consumed. It is a downward pointing arrow, as such "inbound" messages
	// could be considered as being "downloaded" from the queue.
	ConsumeIcon Icon = "▼"

	// ConsumeErrorIcon is a variant of ConsumeIcon used when there is an error
	// condition. It is an hollow version of the regular consume icon,
	// indicating that the requirement remains "unfulfilled".
	ConsumeErrorIcon Icon = "▽"

	// ProduceIcon is the icon shown to indicate that a message is being
	// produced. It is an upward pointing arrow, as such "outbound" messages
	// could be considered as being "uploaded" to the queue.
	ProduceIcon Icon = "▲"

	// RetryIcon is an icon used instead of ConsumeIcon when a message is being
	// re-attempted. It is an open-circle with an arrow, indicating that the
	// message has "come around again".
	RetryIcon Icon = "↻"

	// ErrorIcon is the icon shown when logging information about an error.
	// It is a heavy cross, indicating a failure.
	ErrorIcon Icon = "✖"

	// DiscardIcon is the icon shown when a message is dropped without being
	// delivered. It is the "circled division slash", indicating that the
	// message is excluded from further processing.
	DiscardIcon Icon = "⊘"

	// SystemIcon is an icon shown when a log message relates to the internals
	// of the pipeline. It is a sprocket, representing the inner workings of
	// the machine.
	SystemIcon Icon = "⚙"

	// SeparatorIcon is an icon used to separate strings of unrelated text
	// inside a log message. It is a large bullet, intended to have a large
	// visual impact.
	SeparatorIcon Icon = "●"
)

// Icon is a unicode symbol used as an icon in log messages.
type Icon string

func (i Icon) String() string {
	return string(i)
}

// WithLabel return an IconWithLabel containing this icon and the given label.
func (i Icon) WithLabel(f string, v ...interface{}) IconWithLabel {
	label := fmt.Sprintf(f, v...)
	if label == "" {
		label = "-"
	}

	return IconWithLabel{i, label}
}

// IconWithLabel is a container for an icon and its associated text label.
type IconWithLabel struct {
	Icon  Icon
	Label string
}

func (i IconWithLabel) String() string {
	return i.Icon.String() + " " + i.Label
}
