// Command auditor consumes order events from RabbitMQ and appends them
// to logs/orders.log.  It runs until killed, reconnecting to the broker
// as needed.
package main

import (
	"log"

	"github.com/iliyamo/event-ticket-reservation/internal/queue"
)

func main() {
	log.Printf("auditor: consuming %s and %s", queue.OrderCompletedQueue, queue.OrderCancelledQueue)
	if err := queue.StartOrderConsumer(); err != nil {
		log.Fatal(err)
	}
}
