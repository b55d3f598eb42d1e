package queue

import (
	"errors"

	"github.com/OFFIS-RIT/claimgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

const retriesHeader = "x-retries"

// RetryCount returns how often a delivery has already been retried.
func RetryCount(headers amqp091.Table) int {
	switch v := headers[retriesHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case int16:
		return int(v)
	case int8:
		return int(v)
	default:
		return 0
	}
}

// HandleProcessingError settles a delivery whose processing failed.
// Invalid messages and messages retried MaxRetries times are moved to the
// dead letter queue, everything else is republished to the retry queue
// with an incremented retry counter. When republishing fails the delivery
// is nacked and requeued.
func HandleProcessingError(ch Publisher, msg amqp091.Delivery, queueName string, procErr error) {
	retries := RetryCount(msg.Headers)

	if retries >= MaxRetries || errors.Is(procErr, ErrInvalidMessage) {
		dlqName := DeadLetterName(queueName)
		logger.Warn("[Queue] Sending message to DLQ", "dlq", dlqName, "retries", retries, "err", procErr)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp091.Publishing{
				ContentType:  msg.ContentType,
				Body:         msg.Body,
				Headers:      msg.Headers,
				DeliveryMode: amqp091.Persistent,
			},
		)
		if pubErr != nil {
			logger.Error("[Queue] Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			_ = msg.Nack(false, true)
			return
		}
		_ = msg.Ack(false)
		return
	}

	retryName := RetryName(queueName)
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[retriesHeader] = int32(retries + 1)

	logger.Warn("[Queue] Scheduling retry", "retry_queue", retryName, "attempt", retries+1, "err", procErr)
	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp091.Publishing{
			ContentType:  msg.ContentType,
			Body:         msg.Body,
			Headers:      headers,
			DeliveryMode: amqp091.Persistent,
		},
	)
	if pubErr != nil {
		logger.Error("[Queue] Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}
