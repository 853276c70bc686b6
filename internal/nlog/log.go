package nlog

import (
	"fmt"

	"github.com/dogmatiq/dodeca/logging"
)

// LogConsume logs a message indicating that a queue message is being
// delivered.
func LogConsume(
	log logging.Logger,
	queue string,
	id int64,
	fc uint,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				MessageIDIcon.WithLabel("%d", id),
				QueueIcon.WithLabel(queue),
			},
			[]Icon{
				ConsumeIcon,
				retryIcon(fc),
			},
			"delivering notification",
		),
	)
}

// LogDelivered logs a message indicating that a queue message was delivered
// to every recipient.
func LogDelivered(
	log logging.Logger,
	queue string,
	id int64,
	desc string,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				MessageIDIcon.WithLabel("%d", id),
				QueueIcon.WithLabel(queue),
			},
			[]Icon{
				ConsumeIcon,
				"",
			},
			"delivered",
			desc,
		),
	)
}

// LogEscalate logs a message indicating that a queue message failed to be
// delivered and has been moved to the dead-letter queue.
func LogEscalate(
	log logging.Logger,
	queue, dlq string,
	id int64,
	fc uint,
	cause error,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				MessageIDIcon.WithLabel("%d", id),
				QueueIcon.WithLabel(queue),
			},
			[]Icon{
				ConsumeErrorIcon,
				ErrorIcon,
			},
			cause.Error(),
			fmt.Sprintf("moved to %s with failure count of %d", dlq, fc),
		),
	)
}

// LogDiscard logs a message indicating that a queue message has exhausted its
// delivery attempts and is being dropped.
func LogDiscard(
	log logging.Logger,
	queue string,
	id int64,
	fc uint,
	cause error,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				MessageIDIcon.WithLabel("%d", id),
				QueueIcon.WithLabel(queue),
			},
			[]Icon{
				ConsumeErrorIcon,
				DiscardIcon,
			},
			cause.Error(),
			fmt.Sprintf("discarded after %d failures", fc),
		),
	)
}

// LogMalformed logs a message indicating that a queue message could not be
// decoded and is being dropped.
func LogMalformed(
	log logging.Logger,
	queue string,
	id int64,
	cause error,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				MessageIDIcon.WithLabel("%d", id),
				QueueIcon.WithLabel(queue),
			},
			[]Icon{
				ConsumeErrorIcon,
				DiscardIcon,
			},
			"malformed message",
			cause.Error(),
		),
	)
}

// LogDataLoss logs a message indicating that a queue message was removed from
// its queue but could not be written to the dead-letter queue.
func LogDataLoss(
	log logging.Logger,
	queue, dlq string,
	id int64,
	cause error,
) {
	logging.LogString(
		log,
		String(
			[]IconWithLabel{
				MessageIDIcon.WithLabel("%d", id),
				QueueIcon.WithLabel(queue),
			},
			[]Icon{
				ConsumeErrorIcon,
				ErrorIcon,
			},
			"message lost, can not write to "+dlq,
			cause.Error(),
		),
	)
}

// LogProduce logs a message indicating that a queue message is being
// enqueued.
func LogProduce(
	log logging.Logger,
	queue string,
	id int64,
	desc string,
) {
	logging.Debug(
		log,
		String(
			[]IconWithLabel{
				MessageIDIcon.WithLabel("%d", id),
				QueueIcon.WithLabel(queue),
			},
			[]Icon{
				ProduceIcon,
				"",
			},
			desc,
		),
	)
}

func retryIcon(n uint) Icon {
	if n == 0 {
		return ""
	}

	return RetryIcon
}
