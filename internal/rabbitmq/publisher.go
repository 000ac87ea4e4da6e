package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/membership-ipn/internal/models"
)

// Channel часть *amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage сериализует message в JSON и публикует его.
func PublishMessage(ch Channel, exchange string, routingKey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует события подписчиков в Exchange.
type Publisher struct {
	ch Channel
}

func NewPublisher(ch Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Publish выбирает ключ маршрутизации по типу события и публикует его.
func (p *Publisher) Publish(_ context.Context, event models.SubscriberEvent) error {
	const op = "rabbitmq.Publish"

	key, err := RoutingKey(event.Type)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return PublishMessage(p.ch, Exchange, key, event)
}

// RoutingKey ключ маршрутизации для типа события.
func RoutingKey(t models.EventType) (string, error) {
	switch t {
	case models.EventSubscriberCreated:
		return RoutingSubscriberCreated, nil
	case models.EventSubscriberEnabled:
		return RoutingSubscriberEnabled, nil
	case models.EventSubscriberDisabled:
		return RoutingSubscriberDisabled, nil
	default:
		return "", fmt.Errorf("unknown event type %q", t)
	}
}
