// Package rabbitmq подключается к брокеру и публикует события подписчиков
// в exchange notifications, откуда их забирает почтовый сервис.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/membership-ipn/internal/lib/sl"
)

// Connect подключается к брокеру, делая до retries попыток с паузой delay.
// Отмена ctx прерывает ожидание между попытками.
func Connect(ctx context.Context, log *slog.Logger, url string, retries int, delay time.Duration) (*amqp.Connection, error) {
	const op = "rabbitmq.Connect"

	attempts := max(retries, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		log.Warn("rabbitmq is not reachable",
			slog.String("op", op),
			slog.Int("attempt", attempt),
			sl.Err(err),
		)
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("%s: %w", op, lastErr)
}
