package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Exchange exchange для событий подписчиков.
const Exchange = "notifications"

// Ключи маршрутизации событий подписчиков.
const (
	RoutingSubscriberCreated  = "subscriber.created"
	RoutingSubscriberEnabled  = "subscriber.enabled"
	RoutingSubscriberDisabled = "subscriber.disabled"
)

type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// SubscriberQueues очереди почтового сервиса, по одной на тип события.
func SubscriberQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "mailer.subscriber.created", RoutingKey: RoutingSubscriberCreated},
		{QueueName: "mailer.subscriber.enabled", RoutingKey: RoutingSubscriberEnabled},
		{QueueName: "mailer.subscriber.disabled", RoutingKey: RoutingSubscriberDisabled},
	}
}

// SetupChannel открывает канал, объявляет exchange и привязывает к нему очереди.
func SetupChannel(conn *amqp.Connection, queues []QueueConfig) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = ch.ExchangeDeclare(
		Exchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(q.QueueName, true, false, false, false, nil); err != nil {
			return nil, fmt.Errorf("%s: failed to declare queue %s: %w", op, q.QueueName, err)
		}
		if err := ch.QueueBind(q.QueueName, q.RoutingKey, Exchange, false, nil); err != nil {
			return nil, fmt.Errorf("%s: failed to bind queue %s with routing key %s: %w", op, q.QueueName, q.RoutingKey, err)
		}
	}

	return ch, nil
}
