package queue

import (
	"time"

	"github.com/OFFIS-RIT/claimgraph/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// GraphBuildQueue carries one BuildMessage per graph construction run.
const GraphBuildQueue = "graph_build_queue"

const (
	// MaxRetries is the number of redeliveries before a message is parked
	// in the dead letter queue.
	MaxRetries = 10
	// RetryDelay is how long a message waits in the retry queue.
	RetryDelay = 10 * time.Second
)

// Init dials the broker at url.
func Init(url string) (*amqp091.Connection, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// QueueDeclarer is the subset of *amqp091.Channel used to declare queues.
type QueueDeclarer interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
}

// SetupQueues declares every queue in names together with its
// <name>_retry and <name>_dlq companions. Messages expire from the retry
// queue back into the work queue after RetryDelay.
func SetupQueues(ch QueueDeclarer, names []string) error {
	for _, name := range names {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			logger.Error("[Queue] QueueDeclare failed", "queue", name, "err", err)
			return err
		}

		dlqName := DeadLetterName(name)
		_, err = ch.QueueDeclare(
			dlqName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			logger.Error("[Queue] QueueDeclare failed", "queue", dlqName, "err", err)
			return err
		}

		retryName := RetryName(name)
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(RetryDelay / time.Millisecond),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			logger.Error("[Queue] QueueDeclare failed", "queue", retryName, "err", err)
			return err
		}
	}

	return nil
}

// RetryName returns the name of the retry queue belonging to queueName.
func RetryName(queueName string) string {
	return queueName + "_retry"
}

// DeadLetterName returns the name of the dead letter queue belonging to
// queueName.
func DeadLetterName(queueName string) string {
	return queueName + "_dlq"
}

// Publisher is the subset of *amqp091.Channel used to publish messages.
type Publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// PublishFIFO publishes data as a persistent message on the default
// exchange, routed directly to queueName.
func PublishFIFO(ch Publisher, queueName string, data []byte) error {
	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	return ch.Publish(
		"",
		queueName,
		false,
		false,
		publishing,
	)
}
