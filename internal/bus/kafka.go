package bus

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Producer publishes resource changes to a Kafka topic.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer}
}

func (p *Producer) Publish(ctx context.Context, key string, change Change) error {
	data, err := json.Marshal(change)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// Consumer reads resource changes from a Kafka topic.
type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

func (c *Consumer) Consume(ctx context.Context, handler func(ctx context.Context, change Change) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("[Bus] Error reading message: %v", err)
				continue
			}

			var change Change
			if err := json.Unmarshal(msg.Value, &change); err != nil {
				log.Printf("[Bus] Error decoding message: %v", err)
				continue
			}
			if err := handler(ctx, change); err != nil {
				log.Printf("[Bus] Error handling change: %v", err)
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Relay mirrors a local bus onto Kafka so cache invalidations reach
// every gateway instance. Changes originated locally are forwarded;
// changes consumed from the topic are applied locally unless this
// instance produced them.
type Relay struct {
	bus        *Bus
	producer   *Producer
	consumer   *Consumer
	instanceID string
}

func NewRelay(b *Bus, brokers []string, topic, instanceID string) *Relay {
	r := &Relay{
		bus:        b,
		producer:   NewProducer(brokers, topic),
		consumer:   NewConsumer(brokers, topic, "gateway-"+instanceID),
		instanceID: instanceID,
	}
	b.setForwarder(r.forward)
	return r
}

func (r *Relay) forward(ch Change) {
	ch.Origin = r.instanceID
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.producer.Publish(ctx, ch.Resource, ch); err != nil {
		log.Printf("[Bus] Failed to forward %s change: %v", ch.Resource, err)
	}
}

// Run consumes the topic until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	return r.consumer.Consume(ctx, func(_ context.Context, change Change) error {
		if change.Origin == r.instanceID {
			return nil
		}
		r.bus.dispatch(change)
		return nil
	})
}

func (r *Relay) Close() error {
	if err := r.producer.Close(); err != nil {
		return err
	}
	return r.consumer.Close()
}
