package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/event-ticket-reservation/internal/metrics"
)

const auditLogPath = "logs/orders.log"

// StartOrderConsumer connects to RabbitMQ, declares the order queues
// (durable) and appends every received event to logs/orders.log in a
// single-line, human-friendly format.  It runs a reconnect loop with
// exponential backoff and keeps operating through broker restarts;
// malformed messages are rejected without requeue so a poison message
// cannot wedge the queue.
func StartOrderConsumer() error {
	url := BrokerURL()
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("order-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn); err != nil {
			log.Printf("order-consumer: consume loop ended: %v; reconnecting", err)
			_ = conn.Close()
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("order-consumer: set QoS failed: %v", err)
	}

	for _, q := range []string{OrderCompletedQueue, OrderCancelledQueue} {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
	}

	completed, err := ch.Consume(OrderCompletedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", OrderCompletedQueue, err)
	}
	cancelled, err := ch.Consume(OrderCancelledQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", OrderCancelledQueue, err)
	}

	for {
		var d amqp.Delivery
		var ok bool
		var queueName string
		select {
		case d, ok = <-completed:
			queueName = OrderCompletedQueue
		case d, ok = <-cancelled:
			queueName = OrderCancelledQueue
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := handleMessage(queueName, d.Body); err != nil {
			log.Printf("order-consumer: handle message failed: %v", err)
			metrics.QueueMessages.WithLabelValues("consume", queueName, "error").Inc()
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		metrics.QueueMessages.WithLabelValues("consume", queueName, "ok").Inc()
		_ = d.Ack(false)
	}
}

func handleMessage(queueName string, body []byte) error {
	var line string
	switch queueName {
	case OrderCompletedQueue:
		var ev OrderCompletedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		coupon := ev.CouponCode
		if coupon == "" {
			coupon = "-"
		}
		line = fmt.Sprintf("[%s] Order completed | order_id=%s | buyer_id=%s | event_id=%s | seats=[%s] | original=%d | discount=%d | coupon=%s | total=%d\n",
			ev.CompletedAt, ev.OrderID, ev.BuyerID, ev.EventID, strings.Join(ev.SeatIDs, ","), ev.OriginalPrice, ev.Discount, coupon, ev.TotalPrice)
	case OrderCancelledQueue:
		var ev OrderCancelledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		line = fmt.Sprintf("[%s] Order cancelled | order_id=%s | buyer_id=%s | event_id=%s | seats=[%s] | refund=%d\n",
			ev.CancelledAt, ev.OrderID, ev.BuyerID, ev.EventID, strings.Join(ev.SeatIDs, ","), ev.RefundAmount)
	default:
		return fmt.Errorf("unknown queue %q", queueName)
	}

	if err := os.MkdirAll(filepath.Dir(auditLogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(auditLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
