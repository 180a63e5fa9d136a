// Package queue_publisher provides functions to publish domain events to
// RabbitMQ. Errors are logged and returned so callers can ignore failures
// without interrupting the main request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/kapiree/billing-portal/internal/queue"
)

// PublishBillingEvent publishes a BillingEvent to the billing.events queue.
// Best effort: the billing transaction has already committed by the time
// this runs, so the caller logs and moves on if the broker is down.
func PublishBillingEvent(ctx context.Context, event q.BillingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal billing event failed: %v", err)
		return err
	}
	return publish(ctx, "billing.events", body)
}

// PublishPasswordResetEmail hands a rendered reset email to the
// notification.emails queue for delivery by whatever mailer listens there.
func PublishPasswordResetEmail(ctx context.Context, msg q.PasswordResetEmail) error {
	body, err := json.Marshal(msg)
	if err != nil {
		log.Printf("rabbitmq: marshal reset email failed: %v", err)
		return err
	}
	return publish(ctx, "notification.emails", body)
}

// publish dials the broker, declares the durable queue (idempotent) and
// publishes one persistent message on the default exchange. Dial-per-publish
// keeps the function robust against stale connections at the cost of a
// handshake per event; event volume here is low.
func publish(ctx context.Context, queueName string, body []byte) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}
