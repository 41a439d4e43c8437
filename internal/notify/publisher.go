package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pizzamaster/pizzamaster-api/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// Event types carried on the notifications topic
const (
	EventOrderConfirmed     = "order_confirmed"
	EventOrderStatusChanged = "order_status_changed"
)

// Event is the payload consumed by the notification workers (email, SMS)
type Event struct {
	Type              string     `json:"type"`
	OrderNumber       string     `json:"order_number"`
	CustomerEmail     string     `json:"customer_email"`
	CustomerName      string     `json:"customer_name"`
	Status            string     `json:"status"`
	TotalPrice        float64    `json:"total_price,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	OccurredAt        time.Time  `json:"occurred_at"`
}

// Publisher sends order notifications to Kafka. Publishing is strictly
// fire-and-forget: a broker outage must never fail the order or status
// mutation it follows, so write errors are only logged.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for the given brokers. With no brokers
// configured it returns a disabled publisher whose methods no-op.
func NewPublisher(brokers []string, topic string) *Publisher {
	if len(brokers) == 0 {
		log.Warn("No Kafka brokers configured, order notifications disabled")
		return &Publisher{}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.WithError(err).WithField("messages", len(messages)).
					Warn("Failed to deliver notification events")
			}
		},
	}
	return &Publisher{writer: w}
}

// OrderConfirmed announces a freshly placed order
func (p *Publisher) OrderConfirmed(order *models.Order) {
	p.publish(Event{
		Type:              EventOrderConfirmed,
		OrderNumber:       order.OrderNumber(),
		CustomerEmail:     order.CustomerEmail,
		CustomerName:      order.CustomerName,
		Status:            string(order.Status),
		TotalPrice:        order.TotalPrice,
		EstimatedDelivery: order.EstimatedDelivery,
		OccurredAt:        time.Now().UTC(),
	})
}

// StatusChanged announces an order status transition to the order owner
func (p *Publisher) StatusChanged(order *models.Order) {
	p.publish(Event{
		Type:              EventOrderStatusChanged,
		OrderNumber:       order.OrderNumber(),
		CustomerEmail:     order.CustomerEmail,
		CustomerName:      order.CustomerName,
		Status:            string(order.Status),
		EstimatedDelivery: order.EstimatedDelivery,
		OccurredAt:        time.Now().UTC(),
	})
}

func (p *Publisher) publish(event Event) {
	if p == nil || p.writer == nil {
		return
	}
	value, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Warn("Failed to encode notification event")
		return
	}
	// Async writer: returns immediately, delivery errors surface in Completion
	err = p.writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(event.OrderNumber),
		Value: value,
		Time:  time.Now(),
	})
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"event":        event.Type,
			"order_number": event.OrderNumber,
		}).Warn("Failed to enqueue notification event")
	}
}

// Close flushes buffered messages and releases the writer
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
